package protocol

import "fmt"

// MessageID is the stable numeric wire tag of a message or response type.
// IDs are never reused across a protocol's lifetime, even when a variant is
// retired.
type MessageID uint32

// Reserved ID range for system responses. User registrations below SysBase
// only.
const (
	// SysBase is the first reserved wire ID. IDs at or above SysBase belong
	// to built-in system responses.
	SysBase MessageID = 0xFFFFFF00

	SysEmptyID  MessageID = SysBase + 0x00
	SysErrorID  MessageID = SysBase + 0x01
	SysStringID MessageID = SysBase + 0x02
	SysBoolID   MessageID = SysBase + 0x03
)

// Reserved reports whether id lies in the system response range.
func (id MessageID) Reserved() bool {
	return id >= SysBase
}

// String returns the ID in decimal, or a symbolic name for system IDs.
func (id MessageID) String() string {
	switch id {
	case SysEmptyID:
		return "sys.Empty"
	case SysErrorID:
		return "sys.Error"
	case SysStringID:
		return "sys.String"
	case SysBoolID:
		return "sys.Bool"
	default:
		return fmt.Sprintf("%d", uint32(id))
	}
}

// Message is a typed request payload. Implementations declare their variant
// tag with WireID, which must be callable on the zero value and return a
// constant.
type Message interface {
	WireID() MessageID
}

// Response is a typed result payload returned from a handler to a caller.
// The tag contract is the same as for Message.
type Response interface {
	WireID() MessageID
}

// EncodeEnvelope prefixes payload with the uvarint wire ID, producing the
// self-describing form every transport carries.
func EncodeEnvelope(id MessageID, payload []byte) []byte {
	e := NewEncoderWithCap(len(payload) + 5)
	e.WriteUvarint(uint64(id))
	e.WriteBytes(payload)
	return e.Bytes()
}

// DecodeEnvelope splits data into its leading wire ID and the remaining
// payload bytes. The returned payload aliases data.
func DecodeEnvelope(data []byte) (MessageID, []byte, error) {
	d := NewDecoder(data)
	raw, err := d.ReadUvarint()
	if err != nil {
		return 0, nil, fmt.Errorf("protocol: envelope: %w", err)
	}
	if raw > 0xFFFFFFFF {
		return 0, nil, fmt.Errorf("protocol: envelope: wire ID %d overflows uint32", raw)
	}
	return MessageID(raw), data[d.Position():], nil
}
