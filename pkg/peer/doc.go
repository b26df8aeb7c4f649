// Package peer implements the sending and receiving halves of a typewire
// exchange.
//
// A Sender encodes a registered message, drives it through an injected
// transport function, and decodes and validates the typed response. A
// Receiver is its dual: it decodes incoming bytes by wire ID, dispatches to
// a registered handler, and encodes the handler's result (or a synthesized
// error response) back to bytes. Both sides share one frozen
// protocol.Protocol; see that package for the registry contract.
//
//	p := demoProtocol()                        // frozen *protocol.Protocol
//	s := peer.NewSender(p, codec.Binary{}, tr) // tr is the transport func
//	pong, err := s.Send(ctx, &Ping{Nonce: 42})
//
// The transport boundary is the only suspension point: this layer does no
// I/O of its own, holds no locks across the transport call, and delegates
// cancellation and timeouts entirely to the context and the transport.
// Transport errors propagate to the Send caller unretried; handler errors
// never escape the Receiver's dispatch loop.
//
// # Typed bindings
//
// Caller and Handle are the statically-typed facades over the generic
// surfaces: a Caller[M, R] fixes one message type and its response type so
// call sites need no type assertions, and Handle[M, R] registers a handler
// whose signature is checked against the registry at wiring time. Neither
// adds runtime behavior.
//
// # Error classification
//
// A handler error crosses the wire as a protocol.ErrorResponse. By default
// only errors created with Public or Publicf propagate their text; all other
// errors (and handler panics) are logged locally and surfaced to the remote
// caller as a generic failure. The policy is injectable via WithClassifier.
package peer
