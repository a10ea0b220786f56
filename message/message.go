// Package message defines the request and response bodies exchanged with a ledger node.
//
// Requests are a tagged variant over four shapes, discriminated by the JSON "type" field:
//
//	type 0  Hello        {"type":0,"message":"hello"}
//	type 1  Transaction  {"type":1,"recipient_public_key":..,"amount":..,"fee":..}
//	type 2  Computation  caller-supplied JSON, sent as-is
//	type 3  OutputQuery  {"type":3,"block_height":..,"computation_index":..}
//
// Hello, Transaction and OutputQuery are tagged by the client. Computation is an opaque
// pass-through: its bytes come from an external file and the client never injects or
// rewrites a "type" field, so the file itself is expected to carry "type":2.
package message

import (
	"encoding/json"
	"fmt"

	"ledger-rpc/codec"
)

// RequestType is the value of the "type" discriminator.
type RequestType int

const (
	TypeHello       RequestType = 0
	TypeTransaction RequestType = 1
	TypeComputation RequestType = 2
	TypeOutput      RequestType = 3
)

func (t RequestType) String() string {
	switch t {
	case TypeHello:
		return "hello"
	case TypeTransaction:
		return "transaction"
	case TypeComputation:
		return "computation"
	case TypeOutput:
		return "output"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Request is one of Hello, Transaction, Computation or OutputQuery.
type Request interface {
	Type() RequestType
	// Validate reports whether the request may be put on the wire.
	Validate() error
}

var jsonCodec codec.Codec = &codec.JSONCodec{}

// EncodeRequest validates req and serializes it to its JSON wire form.
// Invalid requests are never encoded.
func EncodeRequest(req Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("encode request: nil request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	switch r := req.(type) {
	case Hello:
		return jsonCodec.Encode(struct {
			Type RequestType `json:"type"`
			Hello
		}{TypeHello, r})
	case Transaction:
		return jsonCodec.Encode(struct {
			Type RequestType `json:"type"`
			Transaction
		}{TypeTransaction, r})
	case OutputQuery:
		return jsonCodec.Encode(struct {
			Type RequestType `json:"type"`
			OutputQuery
		}{TypeOutput, r})
	case Computation:
		out := make([]byte, len(r.Raw))
		copy(out, r.Raw)
		return out, nil
	}
	return nil, fmt.Errorf("encode request: unsupported request %T", req)
}

// DecodeRequest parses a request body. Objects tagged 0, 1 or 3 decode into their
// variant; any other valid JSON is treated as an opaque Computation.
func DecodeRequest(data []byte) (Request, error) {
	if !jsonCodec.Complete(data) {
		return nil, &JSONFormatError{Err: syntaxError(data)}
	}

	var probe struct {
		Type *RequestType `json:"type"`
	}
	if err := jsonCodec.Decode(data, &probe); err != nil || probe.Type == nil {
		return Computation{Raw: json.RawMessage(data)}, nil
	}

	switch *probe.Type {
	case TypeHello:
		var h Hello
		if err := jsonCodec.Decode(data, &h); err != nil {
			return nil, fmt.Errorf("decode hello: %w", err)
		}
		return h, nil
	case TypeTransaction:
		var tx Transaction
		if err := jsonCodec.Decode(data, &tx); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		return tx, nil
	case TypeOutput:
		var q OutputQuery
		if err := jsonCodec.Decode(data, &q); err != nil {
			return nil, fmt.Errorf("decode output query: %w", err)
		}
		return q, nil
	}
	return Computation{Raw: json.RawMessage(data)}, nil
}

// Hello is the liveness greeting.
type Hello struct {
	Message string `json:"message"`
}

// NewHello returns the greeting the node expects.
func NewHello() Hello {
	return Hello{Message: "hello"}
}

func (Hello) Type() RequestType { return TypeHello }
func (Hello) Validate() error   { return nil }

// Transaction asks the node's wallet to pay Amount to RecipientPublicKey
// (base64 encoded), leaving Fee to the miner.
type Transaction struct {
	RecipientPublicKey string `json:"recipient_public_key"`
	Amount             uint64 `json:"amount"`
	Fee                uint64 `json:"fee"`
}

func (Transaction) Type() RequestType { return TypeTransaction }

func (t Transaction) Validate() error {
	if t.Amount == 0 {
		return &ValidationError{Field: FieldAmount, Input: "0", Reason: "must be a positive integer"}
	}
	return nil
}

// OutputQuery fetches the encrypted output of a computation included in a block.
type OutputQuery struct {
	BlockHeight      uint64 `json:"block_height"`
	ComputationIndex uint64 `json:"computation_index"`
}

func (OutputQuery) Type() RequestType { return TypeOutput }
func (OutputQuery) Validate() error   { return nil }

// Computation is an opaque computation job. Raw is forwarded byte for byte.
type Computation struct {
	Raw json.RawMessage
}

func (Computation) Type() RequestType { return TypeComputation }

func (c Computation) Validate() error {
	if !jsonCodec.Complete(c.Raw) {
		return &JSONFormatError{Err: syntaxError(c.Raw)}
	}
	return nil
}

// Tag returns the "type" field carried by the raw document, if any.
func (c Computation) Tag() (RequestType, bool) {
	var probe struct {
		Type *RequestType `json:"type"`
	}
	if err := jsonCodec.Decode(c.Raw, &probe); err != nil || probe.Type == nil {
		return 0, false
	}
	return *probe.Type, true
}

func syntaxError(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return fmt.Errorf("not a single JSON document")
}
