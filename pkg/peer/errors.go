package peer

import (
	"errors"
	"fmt"

	"github.com/typewire-dev/typewire/pkg/protocol"
)

// RemoteError is returned by Send when the remote handler failed. It is the
// local translation of a protocol.ErrorResponse, so callers can distinguish
// remote failures from local bugs and transport faults.
type RemoteError struct {
	Message    string
	Unexpected bool
}

func (e *RemoteError) Error() string {
	if e.Unexpected {
		return fmt.Sprintf("peer: remote handler failed unexpectedly: %s", e.Message)
	}
	return fmt.Sprintf("peer: remote error: %s", e.Message)
}

// MismatchError is returned by Send when the decoded response type is not in
// the declared response set for the message sent. It indicates registry
// drift between the two peers.
type MismatchError struct {
	MessageID  protocol.MessageID
	ResponseID protocol.MessageID
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("peer: response %s is not declared for message %s (protocol mismatch)",
		e.ResponseID, e.MessageID)
}

// PublicError marks an error as safe to communicate to the remote caller:
// its text crosses the wire verbatim with Unexpected=false. Handlers create
// one with Public or Publicf.
type PublicError struct {
	msg string
	err error
}

// Public wraps err as safe to communicate. Returns nil if err is nil.
func Public(err error) error {
	if err == nil {
		return nil
	}
	return &PublicError{msg: err.Error(), err: err}
}

// Publicf formats a new safe-to-communicate error.
func Publicf(format string, args ...any) error {
	return &PublicError{msg: fmt.Sprintf(format, args...)}
}

func (e *PublicError) Error() string { return e.msg }

// Unwrap returns the wrapped error, if any.
func (e *PublicError) Unwrap() error { return e.err }

// Classifier decides how a handler error is surfaced to the remote caller:
// the message text to send, and whether the error is deliberate (text kept,
// Unexpected=false) or opaque (text replaced by the caller with a generic
// message, Unexpected=true, detail only in local logs).
type Classifier func(err error) (msg string, public bool)

// defaultClassifier treats PublicError as deliberate and everything else as
// opaque.
func defaultClassifier(err error) (string, bool) {
	var pe *PublicError
	if errors.As(err, &pe) {
		return pe.Error(), true
	}
	return "internal error", false
}
