// Package transport provides concrete byte exchanges for typewire senders.
//
// The core protocol layer in pkg/peer only knows the peer.Transport function
// type; everything in this package and its subpackages (in-process
// loopback, WebSocket, HTTP) lives outside the protocol contract and can be
// swapped per deployment.
package transport

import (
	"context"

	"github.com/typewire-dev/typewire/pkg/peer"
)

// Loopback wires a Sender directly to a Receiver in the same process: each
// send is one synchronous dispatch. It is the canonical test harness and a
// real transport for language-boundary or in-process peers.
func Loopback(r *peer.Receiver) peer.Transport {
	return func(ctx context.Context, req []byte) ([]byte, error) {
		return r.ServeBytes(ctx, req)
	}
}
