package router

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nstonic/Fish-bot/core/logger"
	tghelpers "github.com/nstonic/Fish-bot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// coder is implemented by errors that carry a stable machine-readable code.
type coder interface{ Code() string }

// handleWithSummary runs fn and writes one "handler.handled" line with its outcome.
func handleWithSummary(c tele.Context, name string, fn func() error, extras ...slog.Attr) error {
	start := time.Now()
	if v, ok := c.Get(tghelpers.KeyUpdateStart).(time.Time); ok {
		start = v
	}
	ctx := tghelpers.WithHandler(c, name)
	err := fn()

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("outcome", logger.Status(err)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.Info(ctx, logger.CompTelegram, "handler.handled", append(attrs, extras...)...)
	return err
}

func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

func errorCode(err error) string {
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(code)
		}
	}
	return "UNKNOWN_ERROR"
}
