package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits Telebot's "\f<unique>|<payload>" encoding.
// Callbacks already routed by unique keep Unique and Data separate.
func ParseCallbackData(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	unique, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Join rebuilds "<unique>|<payload>" from a parsed callback, or just unique
// when the payload is empty.
func Join(unique, payload string) string {
	if payload == "" {
		return unique
	}
	return unique + "|" + payload
}

// Split is the inverse of Join.
func Split(action string) (unique, payload string) {
	unique, payload, _ = strings.Cut(action, "|")
	return unique, payload
}
