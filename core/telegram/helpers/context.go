package helpers

import (
	"context"

	"github.com/nstonic/Fish-bot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	keyContext = "logger_ctx"
	// KeyUpdateStart holds the time.Time an update entered the middleware chain.
	KeyUpdateStart = "update_start"
)

// StoreContext attaches ctx to c for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(keyContext, ctx)
}

// ContextFrom returns the context previously stored on c.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(keyContext).(context.Context)
	return ctx, ok
}

// BuildContext returns the context stored on c, creating one with the rid
// and update/user/chat identifiers on first use.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	ctx := context.Background()
	if c == nil {
		return ctx
	}

	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	upd := c.Update()

	ctx = logger.WithRID(ctx, logger.BuildRID(upd.ID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches the stored context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
