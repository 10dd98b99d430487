// Package storage defines the session store used by the conversation engine
// and its in-memory backend. Redis and PostgreSQL backends live in
// subpackages.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// State is the persisted conversation state of a chat.
type State string

const (
	StateStart          State = "START"
	StateBrowsingMenu   State = "BROWSING_MENU"
	StateViewingProduct State = "VIEWING_PRODUCT"
	StateViewingCart    State = "VIEWING_CART"
	StateAwaitingEmail  State = "AWAITING_EMAIL"
)

// States lists every valid state.
var States = []State{StateStart, StateBrowsingMenu, StateViewingProduct, StateViewingCart, StateAwaitingEmail}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateStart, StateBrowsingMenu, StateViewingProduct, StateViewingCart, StateAwaitingEmail:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// ErrInvalidState is returned when writing a state that is not Valid.
var ErrInvalidState = errors.New("storage: invalid state")

// Session is the per-chat progress.
type Session struct {
	State State
	// ResumeProductID is the product whose view asked for an e-mail.
	ResumeProductID string
	// ViewMessageID is the last view message sent to the chat; 0 when unknown.
	ViewMessageID int
}

// Store persists sessions by chat id and customer identities by user id.
// A missing record is reported with found == false and a nil error.
type Store interface {
	GetState(ctx context.Context, chatID int64) (State, bool, error)
	SetState(ctx context.Context, chatID int64, state State) error
	GetSession(ctx context.Context, chatID int64) (Session, bool, error)
	SetSession(ctx context.Context, chatID int64, s Session) error
	GetCustomerID(ctx context.Context, userID int64) (string, bool, error)
	// SetCustomerID keeps the first value written for a user.
	SetCustomerID(ctx context.Context, userID int64, customerID string) error
	Close() error
}

// ValidateSession rejects sessions that must never be persisted.
func ValidateSession(s Session) error {
	if !s.State.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, s.State)
	}
	return nil
}

// ParseState converts a stored label. Unknown labels are not ok.
func ParseState(label string) (State, bool) {
	s := State(label)
	return s, s.Valid()
}
