package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry collects bot commands and routes until the bot starts.
type Registry struct {
	mu       sync.Mutex
	commands map[string]commands.Command
	routes   []Route
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]commands.Command)}
}

// RegisterCommand adds a slash command. Invalid and duplicate names are
// skipped with a warning.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	reason := ""
	switch {
	case name == "" || cmd.Handler == nil || cmd.Description == "":
		reason = "invalid"
	case !strings.HasPrefix(name, "/"):
		reason = "no_slash_prefix"
	}
	if reason != "" {
		logger.Warn(context.Background(), logger.CompWire, "register.command.skip",
			slog.String("name", name),
			slog.String("cause", reason),
		)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		logger.Warn(context.Background(), logger.CompWire, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// Commands returns a copy of the registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// ListCommands returns commands sorted by name, optionally without hidden ones.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for name, meta := range r.Commands() {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// AddRoutes queues routes to be bound when the bot starts.
func (r *Registry) AddRoutes(routes ...Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, routes...)
}

// Routes returns the queued routes.
func (r *Registry) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Route(nil), r.routes...)
}

// InitBotCommands publishes visible commands to the Telegram command menu.
func InitBotCommands(ctx context.Context, bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	if err := bot.SetCommands(list); err != nil {
		logger.Error(ctx, logger.CompWire, "register.commands.set_failed", slog.Any("err", err))
	}
}
