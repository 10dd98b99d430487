package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/nstonic/Fish-bot/core/logger"
	tghelpers "github.com/nstonic/Fish-bot/core/telegram/helpers"
)

func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(upd)
}

func textUpdate(id int, userID int64) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Text:   "hello",
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}}
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Now:       func() time.Time { return now },
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	passed := 0
	h := mw(func(tele.Context) error { passed++; return nil })

	require.NoError(t, h(newContext(t, textUpdate(1, 10))))
	require.NoError(t, h(newContext(t, textUpdate(2, 10))))
	require.NoError(t, h(newContext(t, textUpdate(3, 11))))
	now = now.Add(2 * time.Second)
	require.NoError(t, h(newContext(t, textUpdate(4, 10))))

	assert.Equal(t, 3, passed)
	assert.Equal(t, 1, limited)
}

func TestRateLimitMiddlewareExcludesCallbacks(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"callback": {}},
	})
	passed := 0
	h := mw(func(tele.Context) error { passed++; return nil })
	cb := tele.Update{ID: 1, Callback: &tele.Callback{ID: "x", Sender: &tele.User{ID: 5}}}
	for i := 0; i < 3; i++ {
		require.NoError(t, h(newContext(t, cb)))
	}
	assert.Equal(t, 3, passed)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NotPanics(t, func() {
		assert.NoError(t, h(newContext(t, textUpdate(1, 1))))
	})
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	var rid string
	var chatID int64
	h := LoggerMiddleware(func(c tele.Context) error {
		ctx, ok := tghelpers.ContextFrom(c)
		require.True(t, ok)
		rid = logger.RIDFrom(ctx)
		chatID = logger.ChatIDFrom(ctx)
		return nil
	})
	require.NoError(t, h(newContext(t, textUpdate(77, 42))))
	assert.Equal(t, "77:42:42", rid)
	assert.EqualValues(t, 42, chatID)
}
