package protocol

// System responses are protocol-independent: every Protocol can decode them
// regardless of user schema, so a handler-side failure or an empty result
// always has a wire representation. They live in the reserved ID range and
// implement the binary codec interfaces directly.

// EmptyResponse carries no payload. Handlers that legitimately return
// nothing produce it, and it is the lenient receiver's answer to an unknown
// wire ID, so senders accept it for any message.
type EmptyResponse struct{}

// WireID returns the reserved empty-response ID.
func (*EmptyResponse) WireID() MessageID { return SysEmptyID }

// AppendBinary encodes nothing.
func (*EmptyResponse) AppendBinary(e *Encoder) {}

// ParseBinary decodes nothing.
func (*EmptyResponse) ParseBinary(d *Decoder) error { return nil }

// ErrorResponse surfaces a handler-side failure to the remote caller. It is
// the single channel through which errors cross the transport. Unexpected
// distinguishes opaque internal failures (generic message, detail only in
// local logs) from errors deliberately communicated to the peer.
type ErrorResponse struct {
	Message    string
	Unexpected bool
}

// WireID returns the reserved error-response ID.
func (*ErrorResponse) WireID() MessageID { return SysErrorID }

// AppendBinary encodes the message text and the unexpected flag.
func (r *ErrorResponse) AppendBinary(e *Encoder) {
	e.WriteString(r.Message)
	e.WriteBool(r.Unexpected)
}

// ParseBinary decodes an ErrorResponse payload.
func (r *ErrorResponse) ParseBinary(d *Decoder) error {
	msg, err := d.ReadString()
	if err != nil {
		return err
	}
	unexpected, err := d.ReadBool()
	if err != nil {
		return err
	}
	r.Message = msg
	r.Unexpected = unexpected
	return nil
}

// StringResponse is a convenience response carrying a single string.
type StringResponse struct {
	Value string
}

// WireID returns the reserved string-response ID.
func (*StringResponse) WireID() MessageID { return SysStringID }

// AppendBinary encodes the value.
func (r *StringResponse) AppendBinary(e *Encoder) {
	e.WriteString(r.Value)
}

// ParseBinary decodes a StringResponse payload.
func (r *StringResponse) ParseBinary(d *Decoder) error {
	v, err := d.ReadString()
	if err != nil {
		return err
	}
	r.Value = v
	return nil
}

// BoolResponse is a convenience response carrying a single boolean.
type BoolResponse struct {
	Value bool
}

// WireID returns the reserved bool-response ID.
func (*BoolResponse) WireID() MessageID { return SysBoolID }

// AppendBinary encodes the value.
func (r *BoolResponse) AppendBinary(e *Encoder) {
	e.WriteBool(r.Value)
}

// ParseBinary decodes a BoolResponse payload.
func (r *BoolResponse) ParseBinary(d *Decoder) error {
	v, err := d.ReadBool()
	if err != nil {
		return err
	}
	r.Value = v
	return nil
}

// sysResponses seeds every new Protocol's response table.
func sysResponses() []func() Response {
	return []func() Response{
		func() Response { return new(EmptyResponse) },
		func() Response { return new(ErrorResponse) },
		func() Response { return new(StringResponse) },
		func() Response { return new(BoolResponse) },
	}
}
