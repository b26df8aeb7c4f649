package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Proto encodes payloads that are protobuf messages. Payloads that are not
// proto.Message but implement the binary codec interfaces (notably the
// system responses) fall back to the native binary encoding, so error
// propagation works under a protobuf deployment without proto definitions
// for the built-ins.
type Proto struct{}

// Name returns "proto".
func (Proto) Name() string { return "proto" }

// Marshal encodes v with proto.Marshal, or via AppendBinary for non-proto
// payloads that support it.
func (Proto) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	if _, ok := v.(BinaryAppender); ok {
		return Binary{}.Marshal(v)
	}
	return nil, fmt.Errorf("codec: %T is neither proto.Message nor a binary payload", v)
}

// Unmarshal decodes data with proto.Unmarshal, or via ParseBinary for
// non-proto payloads that support it.
func (Proto) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	if _, ok := v.(BinaryParser); ok {
		return Binary{}.Unmarshal(data, v)
	}
	return fmt.Errorf("codec: %T is neither proto.Message nor a binary payload", v)
}
