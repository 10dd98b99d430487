package telegram

import (
	"context"

	coretelegram "github.com/nstonic/Fish-bot/core/telegram"
	"github.com/nstonic/Fish-bot/core/telegram/callbacks"
	"github.com/nstonic/Fish-bot/core/telegram/commands"
	tghelpers "github.com/nstonic/Fish-bot/core/telegram/helpers"
	"github.com/nstonic/Fish-bot/core/telegram/router"
	"github.com/nstonic/Fish-bot/shop/bot"

	tele "gopkg.in/telebot.v4"
)

// Dispatcher accepts converted events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev bot.Event) error
}

// Handler turns telebot updates into bot events and queues them.
type Handler struct {
	dispatcher Dispatcher
}

// NewHandler returns a Handler feeding d.
func NewHandler(d Dispatcher) *Handler {
	return &Handler{dispatcher: d}
}

// Register adds /start to the command registry and queues the callback and
// text routes.
func (h *Handler) Register(reg *coretelegram.Registry) {
	reg.RegisterCommand("/"+bot.CommandStart, commands.Command{
		Handler:     h.OnStart,
		Description: "Открыть каталог",
	})
	reg.AddRoutes(router.CallbackRoute(h.OnCallback), router.TextRoute(h.OnText))
}

// OnStart handles /start.
func (h *Handler) OnStart(c tele.Context) error {
	return h.dispatch(c, bot.EventCommand)
}

// OnCallback handles inline button presses.
func (h *Handler) OnCallback(c tele.Context) error {
	return h.dispatch(c, bot.EventCallback)
}

// OnText handles free text, such as an e-mail reply.
func (h *Handler) OnText(c tele.Context) error {
	return h.dispatch(c, bot.EventText)
}

func (h *Handler) dispatch(c tele.Context, kind bot.EventKind) error {
	ev, ok := EventFrom(c, kind)
	if !ok {
		return nil
	}
	return h.dispatcher.Dispatch(tghelpers.BuildContext(c), ev)
}

// EventFrom converts the update behind c. It is not ok when the update has
// no chat or sender.
func EventFrom(c tele.Context, kind bot.EventKind) (bot.Event, bool) {
	chat, user := c.Chat(), c.Sender()
	if chat == nil || user == nil {
		return bot.Event{}, false
	}
	ev := bot.Event{Kind: kind, ChatID: chat.ID, UserID: user.ID}

	switch kind {
	case bot.EventCallback:
		cb := c.Callback()
		if cb == nil {
			return bot.Event{}, false
		}
		ev.CallbackID = cb.ID
		ev.Payload = callbacks.Join(callbacks.ParseCallbackData(cb))
		if cb.Message != nil {
			ev.MessageID = cb.Message.ID
		}
	case bot.EventCommand:
		ev.Payload = bot.CommandStart
		if msg := c.Message(); msg != nil {
			ev.MessageID = msg.ID
		}
	default:
		ev.Payload = c.Text()
		if msg := c.Message(); msg != nil {
			ev.MessageID = msg.ID
		}
	}
	return ev, true
}
