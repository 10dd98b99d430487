// Package telegram connects the shop conversation engine to Telegram.
package telegram

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/core/telegram/callbacks"
	"github.com/nstonic/Fish-bot/core/telegram/keyboard"
	"github.com/nstonic/Fish-bot/core/telegram/sender"
	"github.com/nstonic/Fish-bot/shop/bot"

	tele "gopkg.in/telebot.v4"
)

// botAPI is the part of *tele.Bot the messenger uses.
type botAPI interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
	Edit(msg tele.Editable, what any, opts ...any) (*tele.Message, error)
	Delete(msg tele.Editable) error
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Messenger implements bot.Messenger and bot.Alerter. Views are sent
// synchronously; callback answers and alerts go through the outbound
// dispatcher.
type Messenger struct {
	api     botAPI
	out     *sender.Dispatcher
	adminID int64
}

// NewMessenger builds a Messenger. adminID 0 disables alerts.
func NewMessenger(api botAPI, out *sender.Dispatcher, adminID int64) *Messenger {
	return &Messenger{api: api, out: out, adminID: adminID}
}

// SendMessage sends text with an optional inline keyboard and returns the message id.
func (m *Messenger) SendMessage(_ context.Context, chatID int64, text string, kb bot.Keyboard) (int, error) {
	msg, err := m.api.Send(tele.ChatID(chatID), text, sendOptions(kb)...)
	if err != nil {
		return 0, &bot.RemoteAPIError{Op: "send_message", Err: err}
	}
	return msg.ID, nil
}

// SendPhoto uploads photo with a caption and returns the message id.
func (m *Messenger) SendPhoto(_ context.Context, chatID int64, photo []byte, caption string, kb bot.Keyboard) (int, error) {
	p := &tele.Photo{File: tele.FromReader(bytes.NewReader(photo)), Caption: caption}
	msg, err := m.api.Send(tele.ChatID(chatID), p, sendOptions(kb)...)
	if err != nil {
		return 0, &bot.RemoteAPIError{Op: "send_photo", Err: err}
	}
	return msg.ID, nil
}

// EditMessage replaces the text and keyboard of a sent message.
func (m *Messenger) EditMessage(_ context.Context, chatID int64, messageID int, text string, kb bot.Keyboard) error {
	if _, err := m.api.Edit(stored(chatID, messageID), text, sendOptions(kb)...); err != nil {
		return &bot.RemoteAPIError{Op: "edit_message", Err: err}
	}
	return nil
}

// DeleteMessage removes a message from the chat.
func (m *Messenger) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	if err := m.api.Delete(stored(chatID, messageID)); err != nil {
		return &bot.RemoteAPIError{Op: "delete_message", Err: err}
	}
	return nil
}

// AnswerCallback queues the answer and returns at once.
func (m *Messenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return m.out.Enqueue(ctx, "answer_callback", func(context.Context) error {
		return m.api.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text})
	})
}

// Alert forwards text to the operator chat.
func (m *Messenger) Alert(ctx context.Context, text string) {
	if m.adminID == 0 {
		return
	}
	text = logger.SanitizeLimit(text, 3500)
	err := m.out.Enqueue(ctx, "alert", func(context.Context) error {
		_, err := m.api.Send(tele.ChatID(m.adminID), "⚠️ "+text)
		return err
	})
	if err != nil {
		logger.Warn(ctx, logger.CompTelegram, "alert.enqueue", slog.Any("err", err))
	}
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
}

// Markup converts a bot keyboard into telebot inline markup. Button data
// "name|args" becomes unique "name" with payload "args".
func Markup(kb bot.Keyboard) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(kb))
	for _, row := range kb {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			unique, payload := callbacks.Split(b.Data)
			r = append(r, keyboard.InlineBtn{Text: b.Text, Unique: unique, Data: payload})
		}
		rows = append(rows, r)
	}
	return keyboard.InlineButtonsRows(rows...)
}

func sendOptions(kb bot.Keyboard) []any {
	if markup := Markup(kb); markup != nil {
		return []any{markup}
	}
	return nil
}

var (
	_ bot.Messenger = (*Messenger)(nil)
	_ bot.Alerter   = (*Messenger)(nil)
)
