package router

import (
	tg "github.com/nstonic/Fish-bot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextRoute binds handler to plain text messages that are not commands.
func TextRoute(handler tele.HandlerFunc) tg.Route {
	return tg.Route{
		Endpoint: tele.OnText,
		Handler: func(c tele.Context) error {
			return handleWithSummary(c, "text", func() error { return handler(c) })
		},
	}
}
