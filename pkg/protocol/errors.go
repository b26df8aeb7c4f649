package protocol

import (
	"errors"
	"fmt"
)

// Registry construction and lookup errors. Construction errors are fatal at
// startup and never occur at runtime; lookup errors indicate local
// misconfiguration.
var (
	// ErrFrozen is returned by Register after Freeze.
	ErrFrozen = errors.New("protocol: registry is frozen")

	// ErrReservedID is returned when a registration claims an ID in the
	// system response range.
	ErrReservedID = errors.New("protocol: wire ID is in the reserved system range")
)

// DuplicateIDError reports a registration whose wire ID is already taken by
// a different type.
type DuplicateIDError struct {
	ID       MessageID
	Existing string // type name of the current holder
	Proposed string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("protocol: wire ID %s already registered to %s (attempted %s)",
		e.ID, e.Existing, e.Proposed)
}

// DuplicateTypeError reports a type registered under two different wire IDs.
type DuplicateTypeError struct {
	Type     string
	Existing MessageID
	Proposed MessageID
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("protocol: type %s already registered under wire ID %s (attempted %s)",
		e.Type, e.Existing, e.Proposed)
}

// UnregisteredIDError reports a wire ID or message type unknown to this
// side's Protocol. On the send path it guards against emitting types the
// peer cannot know; on the receive path it triggers the unknown-ID policy
// instead of surfacing to callers.
type UnregisteredIDError struct {
	ID   MessageID
	Type string // empty when only the ID is known
}

func (e *UnregisteredIDError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("protocol: message type %s (wire ID %s) is not registered", e.Type, e.ID)
	}
	return fmt.Sprintf("protocol: wire ID %s is not registered", e.ID)
}

// RetiredError reports an attempted send of a message type kept only for
// ID stability. Retired messages still decode on the receive path.
type RetiredError struct {
	ID   MessageID
	Type string
}

func (e *RetiredError) Error() string {
	return fmt.Sprintf("protocol: message type %s (wire ID %s) is retired and cannot be sent", e.Type, e.ID)
}
