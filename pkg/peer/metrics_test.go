package peer

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsObserveExchanges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	s, _ := newTestPair(t,
		[]SenderOption{WithSenderMetrics(m)},
		[]ReceiverOption{WithReceiverMetrics(m)},
	)

	if _, err := s.Send(context.Background(), &echoReq{Nonce: 1}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, err := s.Send(context.Background(), &failReq{Mode: "public"}); err == nil {
		t.Fatal("Send() with failing handler succeeded, want error")
	}

	if got := counterValue(t, m.sendsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("sends_total{result=ok} = %v, want 1", got)
	}
	if got := counterValue(t, m.sendsTotal.WithLabelValues("remote_error")); got != 1 {
		t.Errorf("sends_total{result=remote_error} = %v, want 1", got)
	}
	if got := counterValue(t, m.dispatchesTotal.WithLabelValues(resultOK)); got != 1 {
		t.Errorf("dispatches_total{result=ok} = %v, want 1", got)
	}
	if got := counterValue(t, m.dispatchesTotal.WithLabelValues(resultError)); got != 1 {
		t.Errorf("dispatches_total{result=handler_error} = %v, want 1", got)
	}
}

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg), WithSubsystem("peer"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	// Histograms register immediately; counter vecs appear once labeled.
	want := map[string]bool{
		"typewire_peer_send_duration_seconds":     false,
		"typewire_peer_dispatch_duration_seconds": false,
	}
	for _, f := range families {
		if _, ok := want[f.GetName()]; ok {
			want[f.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}
