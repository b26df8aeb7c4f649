package peer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/typewire-dev/typewire/pkg/codec"
	"github.com/typewire-dev/typewire/pkg/protocol"
)

// Test vocabulary: an echo pair at ID 1, a failing message at ID 2, and a
// retired message at ID 3.

type echoReq struct{ Nonce int64 }

func (*echoReq) WireID() protocol.MessageID { return 1 }

func (m *echoReq) AppendBinary(e *protocol.Encoder) { e.WriteSvarint(m.Nonce) }

func (m *echoReq) ParseBinary(d *protocol.Decoder) error {
	v, err := d.ReadSvarint()
	if err != nil {
		return err
	}
	m.Nonce = v
	return nil
}

type echoResp struct{ Nonce int64 }

func (*echoResp) WireID() protocol.MessageID { return 100 }

func (m *echoResp) AppendBinary(e *protocol.Encoder) { e.WriteSvarint(m.Nonce) }

func (m *echoResp) ParseBinary(d *protocol.Decoder) error {
	v, err := d.ReadSvarint()
	if err != nil {
		return err
	}
	m.Nonce = v
	return nil
}

type failReq struct{ Mode string }

func (*failReq) WireID() protocol.MessageID { return 2 }

func (m *failReq) AppendBinary(e *protocol.Encoder) { e.WriteString(m.Mode) }

func (m *failReq) ParseBinary(d *protocol.Decoder) error {
	v, err := d.ReadString()
	if err != nil {
		return err
	}
	m.Mode = v
	return nil
}

type legacyReq struct{}

func (*legacyReq) WireID() protocol.MessageID { return 3 }

func (m *legacyReq) AppendBinary(e *protocol.Encoder) {}

func (m *legacyReq) ParseBinary(d *protocol.Decoder) error { return nil }

// testProtocol builds the shared registry both test endpoints agree on.
func testProtocol(opts ...protocol.Option) *protocol.Protocol {
	p := protocol.New(append([]protocol.Option{protocol.WithVersion("peer-test/1")}, opts...)...)
	p.MustRegister(protocol.Entry{
		ID:        1,
		Message:   func() protocol.Message { return new(echoReq) },
		Responses: []func() protocol.Response{func() protocol.Response { return new(echoResp) }},
	})
	p.MustRegister(protocol.Entry{
		ID:        2,
		Message:   func() protocol.Message { return new(failReq) },
		Responses: []func() protocol.Response{func() protocol.Response { return new(protocol.EmptyResponse) }},
	})
	p.MustRegister(protocol.Entry{
		ID:        3,
		Message:   func() protocol.Message { return new(legacyReq) },
		Responses: []func() protocol.Response{func() protocol.Response { return new(protocol.StringResponse) }},
		Retired:   true,
	})
	p.Freeze()
	return p
}

// registerTestHandlers wires the standard handlers: echo, mode-driven
// failure, and a legacy responder.
func registerTestHandlers(t *testing.T, r *Receiver) {
	t.Helper()

	r.MustHandle(1, func(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
		req := msg.(*echoReq)
		return &echoResp{Nonce: req.Nonce}, nil
	})
	r.MustHandle(2, func(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
		req := msg.(*failReq)
		switch req.Mode {
		case "public":
			return nil, Publicf("no such user")
		case "opaque":
			return nil, errors.New("db connection refused")
		case "panic":
			panic("handler exploded")
		default:
			return nil, nil
		}
	})
	r.MustHandle(3, func(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
		return &protocol.StringResponse{Value: "legacy"}, nil
	})
}

// loopback wires a sender straight to a receiver, one dispatch per send.
func loopback(r *Receiver) Transport {
	return func(ctx context.Context, req []byte) ([]byte, error) {
		return r.ServeBytes(ctx, req)
	}
}

// newTestPair builds a sender/receiver pair over one registry and the
// binary codec.
func newTestPair(t *testing.T, sopts []SenderOption, ropts []ReceiverOption) (*Sender, *Receiver) {
	t.Helper()
	p := testProtocol()
	r := NewReceiver(p, codec.Binary{}, ropts...)
	registerTestHandlers(t, r)
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	s := NewSender(p, codec.Binary{}, loopback(r), sopts...)
	return s, r
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
