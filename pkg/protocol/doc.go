// Package protocol implements the typed message vocabulary and registry for
// typewire.
//
// A Protocol is a frozen mapping from stable numeric wire IDs to message and
// response types. Both endpoints of an exchange construct the same Protocol
// (same IDs, same allowed-response sets) and share it read-only between a
// Sender and a Receiver; schema identity, not transport identity, is the
// correctness invariant.
//
// # Wire Envelope
//
// Every encoded message and response is self-describing: it begins with its
// wire ID, followed by the codec-produced payload bytes.
//
//	┌──────────────────┬────────────────────────────────────┐
//	│ Wire ID          │ Payload                            │
//	│ (uvarint)        │ (codec-defined, variable length)   │
//	└──────────────────┴────────────────────────────────────┘
//
// The payload encoding is pluggable (see pkg/codec); only the leading ID is
// fixed by this package, because both sending and receiving dispatch purely
// on that ID.
//
// # Messages and Responses
//
// Payload types implement Message or Response by declaring their variant tag:
//
//	func (*Ping) WireID() protocol.MessageID { return 1 }
//
// WireID must be callable on the zero value (typically a nil pointer), so it
// should return a constant without touching the receiver.
//
// # System Responses
//
// Four response types are built in and decodable under every Protocol,
// regardless of user schema: EmptyResponse, ErrorResponse, StringResponse and
// BoolResponse. They occupy a reserved ID range that user registrations may
// not claim. ErrorResponse is the single channel through which handler-side
// failures cross the transport.
//
// # Registration
//
// A Protocol is built once at startup from declarative entries and then
// frozen:
//
//	p := protocol.New(protocol.WithVersion("demo/1"))
//	p.MustRegister(protocol.Entry{
//	    ID:        1,
//	    Message:   func() protocol.Message { return new(Ping) },
//	    Responses: []func() protocol.Response{func() protocol.Response { return new(Pong) }},
//	})
//	p.Freeze()
//
// Registration fails fast on duplicate IDs, duplicate types, reserved-range
// collisions and declared IDs that disagree with the type's WireID. After
// Freeze the Protocol is immutable and safe for unsynchronized concurrent
// reads.
package protocol
