package peer

import (
	"context"
	"errors"
	"testing"

	"github.com/typewire-dev/typewire/pkg/codec"
	"github.com/typewire-dev/typewire/pkg/protocol"
)

func TestCallerRoundTrip(t *testing.T) {
	s, _ := newTestPair(t, nil, nil)

	echo, err := NewCaller[*echoReq, *echoResp](s)
	if err != nil {
		t.Fatalf("NewCaller() error = %v", err)
	}

	pong, err := echo.Call(context.Background(), &echoReq{Nonce: 42})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if pong.Nonce != 42 {
		t.Errorf("Nonce = %d, want 42", pong.Nonce)
	}
}

func TestNewCallerRejectsDrift(t *testing.T) {
	s, _ := newTestPair(t, nil, nil)

	// Response type not declared for echoReq.
	if _, err := NewCaller[*echoReq, *protocol.StringResponse](s); err == nil {
		t.Error("NewCaller with undeclared response succeeded, want MismatchError")
	}

	// Unregistered message type.
	if _, err := NewCaller[*unknownMsg, *protocol.EmptyResponse](s); err == nil {
		t.Error("NewCaller with unregistered message succeeded, want error")
	}

	// Retired message type.
	_, err := NewCaller[*legacyReq, *protocol.StringResponse](s)
	var retired *protocol.RetiredError
	if !errors.As(err, &retired) {
		t.Errorf("NewCaller with retired message error = %v, want RetiredError", err)
	}
}

func TestCallerTypeNarrowing(t *testing.T) {
	// Under lenient skew the receiver may answer EmptyResponse; the typed
	// caller reports that as a mismatch instead of returning it untyped.
	oldProto := protocol.New()
	oldProto.Freeze()
	r := NewReceiver(oldProto, codec.Binary{})

	s := NewSender(testProtocol(), codec.Binary{}, loopback(r))
	echo, err := NewCaller[*echoReq, *echoResp](s)
	if err != nil {
		t.Fatalf("NewCaller() error = %v", err)
	}

	_, err = echo.Call(context.Background(), &echoReq{Nonce: 1})
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Call() error = %v, want MismatchError", err)
	}
}

func TestTypedHandle(t *testing.T) {
	p := testProtocol()
	r := NewReceiver(p, codec.Binary{})

	err := Handle(r, func(ctx context.Context, msg *echoReq) (*echoResp, error) {
		return &echoResp{Nonce: msg.Nonce * 2}, nil
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	s := NewSender(p, codec.Binary{}, loopback(r))
	resp, err := s.Send(context.Background(), &echoReq{Nonce: 21})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := resp.(*echoResp).Nonce; got != 42 {
		t.Errorf("Nonce = %d, want 42", got)
	}
}

func TestTypedHandleRejectsDrift(t *testing.T) {
	p := testProtocol()
	r := NewReceiver(p, codec.Binary{})

	// StringResponse is not declared for echoReq.
	err := Handle(r, func(ctx context.Context, msg *echoReq) (*protocol.StringResponse, error) {
		return &protocol.StringResponse{}, nil
	})
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Handle() error = %v, want MismatchError", err)
	}

	// Unregistered message type.
	if err := Handle(r, func(ctx context.Context, msg *unknownMsg) (*protocol.EmptyResponse, error) {
		return nil, nil
	}); err == nil {
		t.Error("Handle() with unregistered message succeeded, want error")
	}
}
