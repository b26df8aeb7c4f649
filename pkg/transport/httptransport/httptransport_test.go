package httptransport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/typewire-dev/typewire/pkg/codec"
	"github.com/typewire-dev/typewire/pkg/peer"
	"github.com/typewire-dev/typewire/pkg/protocol"
)

type echoReq struct {
	Text string
}

func (*echoReq) WireID() protocol.MessageID { return 1 }

func (m *echoReq) AppendBinary(e *protocol.Encoder) { e.WriteString(m.Text) }

func (m *echoReq) ParseBinary(d *protocol.Decoder) error {
	var err error
	m.Text, err = d.ReadString()
	return err
}

func testReceiver(t *testing.T) *peer.Receiver {
	t.Helper()
	p := protocol.New(protocol.WithVersion("test-1"))
	p.MustRegister(protocol.Entry{
		ID:      1,
		Message: func() protocol.Message { return &echoReq{} },
		Responses: []func() protocol.Response{
			func() protocol.Response { return &protocol.StringResponse{} },
		},
	})
	p.Freeze()

	r := peer.NewReceiver(p, codec.Binary{})
	peer.MustHandle(r, func(ctx context.Context, msg *echoReq) (*protocol.StringResponse, error) {
		return &protocol.StringResponse{Value: strings.ToUpper(msg.Text)}, nil
	})
	return r
}

func TestRoundTripOverHTTP(t *testing.T) {
	recv := testReceiver(t)
	srv := httptest.NewServer(Handler(recv))
	defer srv.Close()

	s := peer.NewSender(recv.Protocol(), codec.Binary{}, New(srv.URL, srv.Client()))

	resp, err := s.Send(context.Background(), &echoReq{Text: "ping"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	str, ok := resp.(*protocol.StringResponse)
	if !ok {
		t.Fatalf("Send() response type = %T, want *protocol.StringResponse", resp)
	}
	if str.Value != "PING" {
		t.Errorf("Send() value = %q, want %q", str.Value, "PING")
	}
}

func TestRouterMountsAtRoot(t *testing.T) {
	recv := testReceiver(t)
	srv := httptest.NewServer(Router(recv))
	defer srv.Close()

	s := peer.NewSender(recv.Protocol(), codec.Binary{}, New(srv.URL+"/", srv.Client()))
	if _, err := s.Send(context.Background(), &echoReq{Text: "hi"}); err != nil {
		t.Fatalf("Send() via router error = %v", err)
	}
}

func TestHandlerRejectsNonPOST(t *testing.T) {
	srv := httptest.NewServer(Handler(testReceiver(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestTransportReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := New(srv.URL, srv.Client())
	if _, err := tr(context.Background(), []byte{1}); err == nil {
		t.Error("transport against failing server succeeded, want error")
	}
}
