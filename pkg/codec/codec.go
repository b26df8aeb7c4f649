// Package codec provides pluggable payload encodings for typewire.
//
// A Codec turns a message or response payload into bytes and back. The wire
// envelope (the leading wire ID) is not the codec's concern; see
// pkg/protocol. Both endpoints of an exchange must deploy the same codec.
//
// Three codecs are provided: Binary (the native reflection-free encoding),
// Proto (google.golang.org/protobuf payloads) and JSON (stdlib, for
// debugging and interop).
package codec

import (
	"fmt"

	"github.com/typewire-dev/typewire/pkg/protocol"
)

// Codec marshals payloads for the wire. Implementations must be safe for
// concurrent use.
type Codec interface {
	// Marshal encodes a payload value.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v, which is always a pointer to the
	// concrete type produced by a registry factory.
	Unmarshal(data []byte, v any) error

	// Name identifies the codec, for logs and trace attributes.
	Name() string
}

// BinaryAppender is implemented by payloads encodable with the native binary
// codec.
type BinaryAppender interface {
	AppendBinary(e *protocol.Encoder)
}

// BinaryParser is implemented by payloads decodable with the native binary
// codec.
type BinaryParser interface {
	ParseBinary(d *protocol.Decoder) error
}

// Binary is the native codec: payloads implement BinaryAppender and
// BinaryParser and encode themselves field by field, without reflection.
// System responses always satisfy both interfaces.
type Binary struct{}

// Name returns "binary".
func (Binary) Name() string { return "binary" }

// Marshal encodes v via its AppendBinary method.
func (Binary) Marshal(v any) ([]byte, error) {
	a, ok := v.(BinaryAppender)
	if !ok {
		return nil, fmt.Errorf("codec: %T does not implement AppendBinary", v)
	}
	e := protocol.NewEncoder()
	a.AppendBinary(e)
	out := make([]byte, e.Len())
	copy(out, e.Bytes())
	return out, nil
}

// Unmarshal decodes data into v via its ParseBinary method.
func (Binary) Unmarshal(data []byte, v any) error {
	p, ok := v.(BinaryParser)
	if !ok {
		return fmt.Errorf("codec: %T does not implement ParseBinary", v)
	}
	return p.ParseBinary(protocol.NewDecoder(data))
}
