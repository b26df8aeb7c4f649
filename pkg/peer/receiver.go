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

// Handler processes one decoded message. A nil response with a nil error is
// answered with EmptyResponse. Handlers run concurrently across in-flight
// messages and must provide their own synchronization over shared state.
type Handler func(ctx context.Context, msg protocol.Message) (protocol.Response, error)

// Receiver decodes inbound bytes by wire ID, dispatches to the handler
// registered for that message type, and encodes the result. Handler errors
// and panics never escape the dispatch loop; they cross the wire as
// ErrorResponse.
type Receiver struct {
	proto    *protocol.Protocol
	codec    codec.Codec
	handlers map[protocol.MessageID]Handler
	classify Classifier

	log     zerolog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// ReceiverOption configures a Receiver.
type ReceiverOption func(*Receiver)

// WithReceiverLogger sets the receiver's logger. Opaque handler failures are
// logged here before being masked on the wire. Default is a no-op logger.
func WithReceiverLogger(log zerolog.Logger) ReceiverOption {
	return func(r *Receiver) { r.log = log }
}

// WithReceiverMetrics attaches Prometheus metrics to the receiver.
func WithReceiverMetrics(m *Metrics) ReceiverOption {
	return func(r *Receiver) { r.metrics = m }
}

// WithReceiverTracing enables OpenTelemetry spans around dispatch using the
// named tracer.
func WithReceiverTracing(tracerName string) ReceiverOption {
	return func(r *Receiver) { r.tracer = otel.Tracer(tracerName) }
}

// WithClassifier replaces the default error classification policy (only
// PublicError text crosses the wire).
func WithClassifier(c Classifier) ReceiverOption {
	return func(r *Receiver) { r.classify = c }
}

// NewReceiver creates a Receiver over a frozen Protocol and a codec.
// Handlers are registered with Handle before the receiver is put into
// service; call Validate to check the wiring.
func NewReceiver(p *protocol.Protocol, c codec.Codec, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		proto:    p,
		codec:    c,
		handlers: make(map[protocol.MessageID]Handler),
		classify: defaultClassifier,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle registers h for the message registered under id. Registration
// fails for unknown IDs and for IDs that already have a handler. Retired
// messages may (and for continued compatibility should) keep a handler.
func (r *Receiver) Handle(id protocol.MessageID, h Handler) error {
	if h == nil {
		return fmt.Errorf("peer: nil handler for message %s", id)
	}
	if _, err := r.proto.LookupID(id); err != nil {
		return err
	}
	if _, dup := r.handlers[id]; dup {
		return fmt.Errorf("peer: handler already registered for message %s", id)
	}
	r.handlers[id] = h
	return nil
}

// MustHandle is Handle that panics on error.
func (r *Receiver) MustHandle(id protocol.MessageID, h Handler) {
	if err := r.Handle(id, h); err != nil {
		panic(err)
	}
}

// Validate checks that every registered message, retired or not, has a
// handler. A missing handler is a configuration error to be caught before
// the receiver is put into service, not at dispatch time.
func (r *Receiver) Validate() error {
	var missing []protocol.MessageID
	for _, id := range r.proto.MessageIDs() {
		if _, ok := r.handlers[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("peer: no handler registered for messages %v", missing)
	}
	return nil
}

// ServeBytes processes one inbound exchange: decode, dispatch, encode. It is
// the dual of Sender.Send and the function a transport exposes per inbound
// message. It may run concurrently with itself.
//
// Handler errors are always converted to an encoded ErrorResponse; the
// returned error is non-nil only when no response at all could be encoded,
// which means the codec itself is broken.
func (r *Receiver) ServeBytes(ctx context.Context, data []byte) ([]byte, error) {
	start := time.Now()

	var span trace.Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "typewire.dispatch", trace.WithAttributes(
			attribute.String("typewire.codec", r.codec.Name()),
		))
	}

	out, result, err := r.serve(ctx, data)

	if span != nil {
		span.SetAttributes(attribute.String("typewire.result", result))
		if result != resultOK {
			span.SetStatus(codes.Error, result)
		}
		span.End()
	}
	if r.metrics != nil {
		r.metrics.observeDispatch(result, time.Since(start))
	}
	return out, err
}

// Dispatch outcomes for metrics labels.
const (
	resultOK        = "ok"
	resultError     = "handler_error"
	resultUnknown   = "unknown_message"
	resultMalformed = "malformed"
)

func (r *Receiver) serve(ctx context.Context, data []byte) ([]byte, string, error) {
	id, body, err := protocol.DecodeEnvelope(data)
	if err != nil {
		r.log.Warn().Err(err).Msg("malformed request envelope")
		out, err := r.respondError("malformed request", true)
		return out, resultMalformed, err
	}

	lk, err := r.proto.LookupID(id)
	if err != nil {
		return r.serveUnknown(id)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int64("typewire.message_id", int64(id)))
	}

	msg := lk.NewMessage()
	if err := r.codec.Unmarshal(body, msg); err != nil {
		r.log.Warn().Err(err).Stringer("message_id", id).Msg("malformed message payload")
		out, err := r.respondError("malformed payload", true)
		return out, resultMalformed, err
	}

	h, ok := r.handlers[id]
	if !ok {
		// Validate should have caught this; answer rather than crash.
		r.log.Error().Stringer("message_id", id).Msg("no handler registered")
		out, err := r.respondError("internal error", true)
		return out, resultError, err
	}

	resp, herr := r.invoke(ctx, h, msg)
	if herr != nil {
		text, public := r.classify(herr)
		if !public {
			r.log.Error().Err(herr).Stringer("message_id", id).Msg("handler failed")
		}
		out, err := r.respondError(text, !public)
		return out, resultError, err
	}
	if resp == nil {
		resp = &protocol.EmptyResponse{}
	}

	respID := resp.WireID()
	if !lk.Allows(respID) {
		// Handler-side drift: the response is not declared for this message.
		r.log.Error().
			Stringer("message_id", id).
			Stringer("response_id", respID).
			Msg("handler returned undeclared response type")
		out, err := r.respondError("internal error", true)
		return out, resultError, err
	}

	payload, err := r.codec.Marshal(resp)
	if err != nil {
		r.log.Error().Err(err).Stringer("response_id", respID).Msg("encode response failed")
		out, err := r.respondError("internal error", true)
		return out, resultError, err
	}
	return protocol.EncodeEnvelope(respID, payload), resultOK, nil
}

// serveUnknown applies the protocol's unknown-ID policy. The dispatch loop
// never crashes on IDs a newer peer added.
func (r *Receiver) serveUnknown(id protocol.MessageID) ([]byte, string, error) {
	r.log.Debug().Stringer("message_id", id).Msg("unknown message ID")
	switch r.proto.Policy() {
	case protocol.UnknownError:
		out, err := r.respondError(fmt.Sprintf("unknown message ID %s", id), true)
		return out, resultUnknown, err
	default:
		out, err := r.respond(&protocol.EmptyResponse{})
		return out, resultUnknown, err
	}
}

func (r *Receiver) respond(resp protocol.Response) ([]byte, error) {
	payload, err := r.codec.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("peer: encode response %s: %w", resp.WireID(), err)
	}
	return protocol.EncodeEnvelope(resp.WireID(), payload), nil
}

func (r *Receiver) respondError(msg string, unexpected bool) ([]byte, error) {
	return r.respond(&protocol.ErrorResponse{Message: msg, Unexpected: unexpected})
}

// invoke runs the handler with panic isolation: a panicking handler yields
// an error instead of tearing down the dispatch loop.
func (r *Receiver) invoke(ctx context.Context, h Handler, msg protocol.Message) (resp protocol.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = nil
			err = fmt.Errorf("peer: handler panic: %v", rec)
		}
	}()
	return h(ctx, msg)
}

// Protocol returns the registry this receiver was built over.
func (r *Receiver) Protocol() *protocol.Protocol { return r.proto }
