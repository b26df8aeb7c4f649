package codec

import "encoding/json"

// JSON encodes payloads with encoding/json. Useful for debugging sessions
// and for peers in environments without the binary codec; payloads only need
// exported fields.
type JSON struct{}

// Name returns "json".
func (JSON) Name() string { return "json" }

// Marshal encodes v as JSON.
func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
