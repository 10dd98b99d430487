package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/nstonic/Fish-bot/core/logger"
	tghelpers "github.com/nstonic/Fish-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into an error log so the poller keeps running.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(tghelpers.BuildContext(c), logger.CompTelegram, "tg.panic",
					slog.String("cause", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
				err = nil
			}
		}()
		return next(c)
	}
}
