package router

import (
	"log/slog"

	tg "github.com/nstonic/Fish-bot/core/telegram"
	"github.com/nstonic/Fish-bot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute binds handler to every inline button press.
func CallbackRoute(handler tele.HandlerFunc) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: func(c tele.Context) error {
			if c.Callback() == nil {
				return nil
			}
			key, _ := callbacks.ParseCallbackData(c.Callback())
			return handleWithSummary(c, "callback."+normalizeHandlerName(key),
				func() error { return handler(c) },
				slog.String("cb_key", key),
			)
		},
	}
}
