package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	return slog.New(h), func() string {
		require.NoError(t, aw.Close())
		return strings.TrimSpace(buf.String())
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", CompShop), slog.LevelInfo, "shop.step",
		slog.String("status", "ok"),
		slog.String("state", "BROWSING_MENU"),
	)

	tokens := strings.Split(read(), " ")
	expected := []string{"ts=", "level=INFO", "component=shop", "event=shop.step", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "state=BROWSING_MENU"}
	require.GreaterOrEqual(t, len(tokens), len(expected))
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSON(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	log.With("component", CompCommerce).LogAttrs(context.Background(), slog.LevelError, "",
		slog.String("event", "commerce.request"),
		slog.String("status", "FAIL"),
		slog.Any("err", errors.New("boom")),
		slog.Duration("duration", 1500*time.Microsecond),
		slog.String("outcome", "bogus"),
	)

	line := read()
	require.True(t, strings.HasPrefix(line, `{"ts":`), line)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, "ERROR", got["level"])
	assert.Equal(t, "commerce", got["component"])
	assert.Equal(t, "fail", got["status"])
	assert.Equal(t, "boom", got["err"])
	assert.EqualValues(t, 2, got["duration_ms"])
	assert.NotContains(t, got, "outcome")
}

func TestStructuredHandlerDefaults(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.Info("plain message", "note", "has space", "empty", "")

	line := read()
	assert.Contains(t, line, "component=app")
	assert.Contains(t, line, `event="plain message"`)
	assert.Contains(t, line, `note="has space"`)
	assert.NotContains(t, line, "empty=")
}

func TestStructuredHandlerGroups(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.WithGroup("moltin").Info("x", slog.Group("token", slog.Int("ttl", 30)))
	assert.Contains(t, read(), "moltin.token.ttl=30")
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\ncd", Sanitize("a\x00b\ncd\u200b"))
	assert.Equal(t, "При", SanitizeLimit("Привет", 3))
	assert.Equal(t, "", SanitizeLimit("abc", 0))
	assert.Equal(t, "abc", SanitizeLimit("abc", 10))
}
