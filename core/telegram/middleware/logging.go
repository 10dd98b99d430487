package middleware

import (
	"log/slog"
	"time"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/core/telegram/callbacks"
	tghelpers "github.com/nstonic/Fish-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware stores the request context and writes one debug receipt
// line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(tghelpers.KeyUpdateStart, time.Now())
		ctx := tghelpers.BuildContext(c)

		var attrs []slog.Attr
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user := c.Sender(); user != nil && user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		upd := c.Update()
		switch {
		case upd.Callback != nil:
			key, payload := callbacks.ParseCallbackData(upd.Callback)
			attrs = append(attrs,
				slog.String("cb_key", logger.SanitizeLimit(key, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 128)),
			)
		case upd.Message != nil:
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 128)))
		}
		logger.Debug(ctx, logger.CompTelegram, "update.received", attrs...)

		return next(c)
	}
}
