package codec

import (
	"encoding/json"
)

// JSONCodec uses Go's standard library encoding/json for serialization.
// Ledger nodes speak JSON text on both directions of the wire.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Complete is true once data parses as a single JSON value. Surrounding whitespace is
// allowed; trailing bytes after the value are not.
func (c *JSONCodec) Complete(data []byte) bool {
	return json.Valid(data)
}
