package bot

import (
	"errors"
	"fmt"

	"github.com/nstonic/Fish-bot/shop/moltin"
)

// RemoteAPIError is a failed messaging call.
type RemoteAPIError struct {
	Op  string
	Err error
}

func (e *RemoteAPIError) Error() string { return fmt.Sprintf("messenger %s: %v", e.Op, e.Err) }

func (e *RemoteAPIError) Unwrap() error { return e.Err }

// Code implements the error code contract used in handler logs.
func (e *RemoteAPIError) Code() string { return "remote_api" }

// UnknownSessionEvent is an event that matches no transition for the state.
// It is logged and handled like /start.
type UnknownSessionEvent struct {
	State   string
	Kind    EventKind
	Payload string
}

func (e *UnknownSessionEvent) Error() string {
	return fmt.Sprintf("unknown %s event %q in state %s", e.Kind, e.Payload, e.State)
}

// Code implements the error code contract used in handler logs.
func (e *UnknownSessionEvent) Code() string { return "unknown_event" }

// ErrorCode returns the short code of a transition failure for logs.
func ErrorCode(err error) string {
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		return coder.Code()
	}
	return "internal"
}

// IsRemoteFailure reports whether err came from the commerce API or the
// messenger rather than from local code.
func IsRemoteFailure(err error) bool {
	var (
		remote    *moltin.RemoteAPIError
		transient *moltin.TransientIOError
		integrity *moltin.DataIntegrityError
		messenger *RemoteAPIError
	)
	return errors.As(err, &remote) || errors.As(err, &transient) ||
		errors.As(err, &integrity) || errors.As(err, &messenger)
}
