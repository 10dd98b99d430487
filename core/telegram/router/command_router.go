package router

import (
	"context"
	"log/slog"

	"github.com/nstonic/Fish-bot/core/logger"
	tg "github.com/nstonic/Fish-bot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes binds every registered command with a handler summary log.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		handler := def.Handler
		label := "command." + normalizeHandlerName(name)
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, label, func() error { return handler(c) })
			},
		})
	}
	logger.Info(context.Background(), logger.CompWire, "tg.wire",
		slog.Int("count", len(routes)),
	)
	return routes
}
