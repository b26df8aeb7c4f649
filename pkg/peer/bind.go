package peer

import (
	"context"
	"fmt"

	"github.com/typewire-dev/typewire/pkg/protocol"
)

// Caller is the statically-typed facade over a Sender for one message
// variant: Call takes the concrete message type and returns the concrete
// response type, so call sites never touch the generic Response. It is pure
// type narrowing; every Call is exactly one Sender.Send.
//
// M and R are pointer types whose WireID is callable on the zero value.
type Caller[M protocol.Message, R protocol.Response] struct {
	sender *Sender
	id     protocol.MessageID
}

// NewCaller binds M and R against the sender's registry. It fails if M is
// unregistered or retired, or if R is not in M's declared response set,
// surfacing registry drift at wiring time instead of per call.
func NewCaller[M protocol.Message, R protocol.Response](s *Sender) (*Caller[M, R], error) {
	var m M
	var r R
	lk, err := s.proto.LookupID(m.WireID())
	if err != nil {
		return nil, err
	}
	if lk.Retired {
		return nil, &protocol.RetiredError{ID: lk.ID, Type: fmt.Sprintf("%T", m)}
	}
	if !lk.Allows(r.WireID()) {
		return nil, &MismatchError{MessageID: lk.ID, ResponseID: r.WireID()}
	}
	return &Caller[M, R]{sender: s, id: lk.ID}, nil
}

// MustCaller is NewCaller that panics on error, for generated bindings whose
// schema is the registry's own source.
func MustCaller[M protocol.Message, R protocol.Response](s *Sender) *Caller[M, R] {
	c, err := NewCaller[M, R](s)
	if err != nil {
		panic(err)
	}
	return c
}

// Call sends msg and returns the typed response. A response of a different
// declared type (possible when a message declares several) is reported as a
// MismatchError rather than returned untyped.
func (c *Caller[M, R]) Call(ctx context.Context, msg M) (R, error) {
	var zero R
	resp, err := c.sender.Send(ctx, msg)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(R)
	if !ok {
		return zero, &MismatchError{MessageID: c.id, ResponseID: resp.WireID()}
	}
	return typed, nil
}

// Handle registers a statically-typed handler on the receiver: fn's
// signature is checked against the registry (M registered, R declared for
// M) at wiring time. Dispatch behavior is identical to Receiver.Handle.
func Handle[M protocol.Message, R protocol.Response](r *Receiver, fn func(ctx context.Context, msg M) (R, error)) error {
	var m M
	var resp R
	lk, err := r.proto.LookupID(m.WireID())
	if err != nil {
		return err
	}
	if !lk.Allows(resp.WireID()) {
		return &MismatchError{MessageID: lk.ID, ResponseID: resp.WireID()}
	}
	return r.Handle(lk.ID, func(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
		typed, ok := msg.(M)
		if !ok {
			// The registry decoded this message; a type mismatch here is a
			// wiring bug.
			return nil, fmt.Errorf("peer: handler for %s received %T", lk.ID, msg)
		}
		out, err := fn(ctx, typed)
		if err != nil {
			return nil, err
		}
		// A typed nil must not reach the encoder as a non-nil interface.
		var zero R
		if any(out) == any(zero) {
			return nil, nil
		}
		return out, nil
	})
}

// MustHandle is Handle that panics on error.
func MustHandle[M protocol.Message, R protocol.Response](r *Receiver, fn func(ctx context.Context, msg M) (R, error)) {
	if err := Handle(r, fn); err != nil {
		panic(err)
	}
}
