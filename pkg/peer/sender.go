package peer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/typewire-dev/typewire/pkg/codec"
	"github.com/typewire-dev/typewire/pkg/protocol"
)

// Transport is the injected byte exchange a Sender drives once per Send. It
// is the sole collaboration point with the real network or IPC layer;
// request/response pairing, framing and retries all belong to it. The
// context carries cancellation and deadlines.
type Transport func(ctx context.Context, req []byte) ([]byte, error)

// Sender encodes typed messages, exchanges bytes through a Transport, and
// decodes and validates typed responses. Safe for concurrent use; ordering
// across concurrent Sends is whatever the transport provides.
type Sender struct {
	proto     *protocol.Protocol
	codec     codec.Codec
	transport Transport

	log     zerolog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithSenderLogger sets the sender's logger. Default is a no-op logger.
func WithSenderLogger(log zerolog.Logger) SenderOption {
	return func(s *Sender) { s.log = log }
}

// WithSenderMetrics attaches Prometheus metrics to the sender.
func WithSenderMetrics(m *Metrics) SenderOption {
	return func(s *Sender) { s.metrics = m }
}

// WithSenderTracing enables OpenTelemetry spans around Send using the named
// tracer.
func WithSenderTracing(tracerName string) SenderOption {
	return func(s *Sender) { s.tracer = otel.Tracer(tracerName) }
}

// NewSender creates a Sender over a frozen Protocol, a codec, and a
// transport.
func NewSender(p *protocol.Protocol, c codec.Codec, t Transport, opts ...SenderOption) *Sender {
	s := &Sender{
		proto:     p,
		codec:     c,
		transport: t,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send encodes msg, performs one transport exchange, and returns the typed
// response.
//
// Failure modes: *protocol.UnregisteredIDError if msg's type is unknown to
// this side, *protocol.RetiredError if it is retired, a wrapped transport
// error if the exchange itself failed, *RemoteError if the remote handler
// failed, and *MismatchError if the response type is not declared for msg.
// The transport call is the only point that blocks; ctx cancellation is the
// transport's to observe.
func (s *Sender) Send(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
	start := time.Now()
	resp, err := s.send(ctx, msg)
	if s.metrics != nil {
		s.metrics.observeSend(err, time.Since(start))
	}
	return resp, err
}

func (s *Sender) send(ctx context.Context, msg protocol.Message) (_ protocol.Response, err error) {
	lk, err := s.proto.LookupMessage(msg)
	if err != nil {
		return nil, err
	}
	if lk.Retired {
		return nil, &protocol.RetiredError{ID: lk.ID, Type: fmt.Sprintf("%T", msg)}
	}

	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "typewire.send", trace.WithAttributes(
			attribute.Int64("typewire.message_id", int64(lk.ID)),
			attribute.String("typewire.codec", s.codec.Name()),
		))
		defer span.End()
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}()
	}

	payload, err := s.codec.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("peer: encode message %s: %w", lk.ID, err)
	}

	reply, err := s.transport(ctx, protocol.EncodeEnvelope(lk.ID, payload))
	if err != nil {
		return nil, fmt.Errorf("peer: transport: %w", err)
	}

	respID, body, err := protocol.DecodeEnvelope(reply)
	if err != nil {
		return nil, fmt.Errorf("peer: decode response envelope: %w", err)
	}

	if respID == protocol.SysErrorID {
		var er protocol.ErrorResponse
		if err = s.codec.Unmarshal(body, &er); err != nil {
			return nil, fmt.Errorf("peer: decode error response: %w", err)
		}
		err = &RemoteError{Message: er.Message, Unexpected: er.Unexpected}
		return nil, err
	}

	if !lk.Allows(respID) {
		s.log.Warn().
			Stringer("message_id", lk.ID).
			Stringer("response_id", respID).
			Msg("response type not declared for message")
		err = &MismatchError{MessageID: lk.ID, ResponseID: respID}
		return nil, err
	}

	resp, lookupErr := s.proto.NewResponse(respID)
	if lookupErr != nil {
		err = &MismatchError{MessageID: lk.ID, ResponseID: respID}
		return nil, err
	}
	if err = s.codec.Unmarshal(body, resp); err != nil {
		return nil, fmt.Errorf("peer: decode response %s: %w", respID, err)
	}
	return resp, nil
}

// Protocol returns the registry this sender was built over.
func (s *Sender) Protocol() *protocol.Protocol { return s.proto }
