package protocol

import (
	"fmt"
	"reflect"
	"sort"
)

// UnknownPolicy governs how a Receiver answers a wire ID absent from its
// Protocol.
type UnknownPolicy uint8

const (
	// UnknownEmpty answers unknown IDs with an EmptyResponse. This is the
	// forward-compatibility default: an old peer silently ignores messages a
	// newer schema added.
	UnknownEmpty UnknownPolicy = iota

	// UnknownError answers unknown IDs with an ErrorResponse marked
	// unexpected. Strict mode for deployments where schema skew is a bug.
	UnknownError
)

// String returns the policy name.
func (p UnknownPolicy) String() string {
	switch p {
	case UnknownEmpty:
		return "empty"
	case UnknownError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry declares one message variant for registration: its permanent wire
// ID, a factory producing a fresh instance for decoding, the closed set of
// responses it may produce, and whether it is retired (decodable but no
// longer sendable).
type Entry struct {
	ID        MessageID
	Message   func() Message
	Responses []func() Response
	Retired   bool
}

// registered is the frozen form of an Entry plus derived type information.
type registered struct {
	id      MessageID
	newMsg  func() Message
	msgType reflect.Type
	allowed map[MessageID]bool
	retired bool
}

type respEntry struct {
	newResp  func() Response
	respType reflect.Type
}

// Protocol is the registry shared by a Sender/Receiver pair: an immutable
// mapping from wire IDs to message types and their allowed responses.
// Register until Freeze, then share freely; a frozen Protocol is safe for
// concurrent use without synchronization.
type Protocol struct {
	version string
	policy  UnknownPolicy

	byID   map[MessageID]*registered
	byType map[reflect.Type]MessageID
	resps  map[MessageID]respEntry
	frozen bool
}

// Option configures a Protocol at construction.
type Option func(*Protocol)

// WithVersion sets the protocol's version marker. Peers comparing markers is
// a deployment concern; the registry only records it.
func WithVersion(v string) Option {
	return func(p *Protocol) { p.version = v }
}

// WithUnknownPolicy sets the unknown-ID policy applied by Receivers using
// this Protocol.
func WithUnknownPolicy(policy UnknownPolicy) Option {
	return func(p *Protocol) { p.policy = policy }
}

// New creates an empty Protocol with the system responses pre-registered.
func New(opts ...Option) *Protocol {
	p := &Protocol{
		byID:   make(map[MessageID]*registered),
		byType: make(map[reflect.Type]MessageID),
		resps:  make(map[MessageID]respEntry),
	}
	for _, f := range sysResponses() {
		r := f()
		p.resps[r.WireID()] = respEntry{newResp: f, respType: reflect.TypeOf(r)}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Version returns the protocol's version marker.
func (p *Protocol) Version() string { return p.version }

// Policy returns the unknown-ID policy.
func (p *Protocol) Policy() UnknownPolicy { return p.policy }

// Frozen reports whether Freeze has been called.
func (p *Protocol) Frozen() bool { return p.frozen }

// Freeze makes the Protocol immutable. Call it once all entries are
// registered, before handing the Protocol to a Sender or Receiver.
func (p *Protocol) Freeze() { p.frozen = true }

// Register adds an entry. It fails fast on frozen registries, reserved or
// duplicate IDs, duplicate types, nil factories, and declared IDs that
// disagree with the factory type's WireID. Response factories are validated
// the same way; distinct messages may share response types.
func (p *Protocol) Register(e Entry) error {
	if p.frozen {
		return ErrFrozen
	}
	if e.Message == nil {
		return fmt.Errorf("protocol: entry %s has a nil message factory", e.ID)
	}
	if e.ID.Reserved() {
		return fmt.Errorf("%w: %s", ErrReservedID, e.ID)
	}

	msg := e.Message()
	msgType := reflect.TypeOf(msg)
	if got := msg.WireID(); got != e.ID {
		return fmt.Errorf("protocol: entry %s declares type %s whose WireID is %s",
			e.ID, typeName(msgType), got)
	}
	if prev, ok := p.byType[msgType]; ok {
		return &DuplicateTypeError{Type: typeName(msgType), Existing: prev, Proposed: e.ID}
	}
	if prev, ok := p.byID[e.ID]; ok {
		return &DuplicateIDError{ID: e.ID, Existing: typeName(prev.msgType), Proposed: typeName(msgType)}
	}
	if re, ok := p.resps[e.ID]; ok {
		return &DuplicateIDError{ID: e.ID, Existing: typeName(re.respType), Proposed: typeName(msgType)}
	}

	// Validate every response factory before touching the maps so a failed
	// registration leaves the registry exactly as it was.
	allowed := make(map[MessageID]bool, len(e.Responses))
	pending := make(map[MessageID]respEntry)
	for _, f := range e.Responses {
		if f == nil {
			return fmt.Errorf("protocol: entry %s has a nil response factory", e.ID)
		}
		r := f()
		rid := r.WireID()
		rType := reflect.TypeOf(r)
		prev, known := p.resps[rid]
		if !known {
			prev, known = pending[rid]
		}
		if known {
			if prev.respType != rType {
				return &DuplicateIDError{ID: rid, Existing: typeName(prev.respType), Proposed: typeName(rType)}
			}
		} else {
			if _, taken := p.byID[rid]; taken {
				return &DuplicateIDError{ID: rid, Existing: typeName(p.byID[rid].msgType), Proposed: typeName(rType)}
			}
			if rid.Reserved() {
				return fmt.Errorf("%w: %s", ErrReservedID, rid)
			}
			pending[rid] = respEntry{newResp: f, respType: rType}
		}
		allowed[rid] = true
	}
	for rid, re := range pending {
		p.resps[rid] = re
	}

	p.byID[e.ID] = &registered{
		id:      e.ID,
		newMsg:  e.Message,
		msgType: msgType,
		allowed: allowed,
		retired: e.Retired,
	}
	p.byType[msgType] = e.ID
	return nil
}

// MustRegister is Register that panics on error, for use in package-level
// protocol constructors where a failure is a programming mistake.
func (p *Protocol) MustRegister(e Entry) {
	if err := p.Register(e); err != nil {
		panic(err)
	}
}

// Lookup is the read view of one registered message variant.
type Lookup struct {
	ID      MessageID
	Retired bool

	entry *registered
}

// NewMessage returns a fresh zero instance of the variant, ready for
// decoding into.
func (l Lookup) NewMessage() Message {
	return l.entry.newMsg()
}

// Allows reports whether a response wire ID is in the variant's declared
// response set. System Empty and Error responses are always acceptable and
// need not be declared.
func (l Lookup) Allows(id MessageID) bool {
	if id == SysEmptyID || id == SysErrorID {
		return true
	}
	return l.entry.allowed[id]
}

// AllowedIDs returns the declared response IDs in ascending order.
func (l Lookup) AllowedIDs() []MessageID {
	ids := make([]MessageID, 0, len(l.entry.allowed))
	for id := range l.entry.allowed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LookupID resolves a wire ID to its registered variant.
func (p *Protocol) LookupID(id MessageID) (Lookup, error) {
	e, ok := p.byID[id]
	if !ok {
		return Lookup{}, &UnregisteredIDError{ID: id}
	}
	return Lookup{ID: e.id, Retired: e.retired, entry: e}, nil
}

// LookupMessage resolves a message value to its registered variant,
// verifying that the value's concrete type is the one registered under its
// declared wire ID. This is the send-path guard against emitting types the
// peer cannot know.
func (p *Protocol) LookupMessage(m Message) (Lookup, error) {
	id := m.WireID()
	e, ok := p.byID[id]
	if !ok {
		return Lookup{}, &UnregisteredIDError{ID: id, Type: typeName(reflect.TypeOf(m))}
	}
	if t := reflect.TypeOf(m); t != e.msgType {
		return Lookup{}, &UnregisteredIDError{ID: id, Type: typeName(t)}
	}
	return Lookup{ID: e.id, Retired: e.retired, entry: e}, nil
}

// NewResponse returns a fresh instance of the response type registered under
// id, including system responses.
func (p *Protocol) NewResponse(id MessageID) (Response, error) {
	re, ok := p.resps[id]
	if !ok {
		return nil, &UnregisteredIDError{ID: id}
	}
	return re.newResp(), nil
}

// MessageIDs returns all registered message wire IDs in ascending order.
func (p *Protocol) MessageIDs() []MessageID {
	ids := make([]MessageID, 0, len(p.byID))
	for id := range p.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
