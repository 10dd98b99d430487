// Package bot is the conversation engine of the shop: the transition table,
// the state machine that executes it and the per-chat dispatcher.
package bot

import "strings"

// EventKind tells how an event reached the bot.
type EventKind int

const (
	EventCommand EventKind = iota + 1
	EventText
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventCallback:
		return "callback"
	}
	return "unknown"
}

// Event is one inbound chat event.
type Event struct {
	Kind   EventKind
	ChatID int64
	UserID int64
	// MessageID is the user's message for commands and text, and the message
	// carrying the pressed button for callbacks.
	MessageID  int
	CallbackID string
	// Payload is the command name without slash, the message text or the
	// callback action.
	Payload string
}

// Button is an inline keyboard button; Data is a callback action.
type Button struct {
	Text string
	Data string
}

// Keyboard is rows of inline buttons.
type Keyboard [][]Button

// Callback actions carried by inline buttons, as "name|arg|arg".
const (
	CallbackProduct  = "product"
	CallbackCart     = "cart"
	CallbackBuy      = "buy"
	CallbackMenu     = "menu"
	CallbackRemove   = "remove"
	CallbackCheckout = "checkout"

	CommandStart = "start"
)

// callbackData joins an action name with its arguments.
func callbackData(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), "|")
}
