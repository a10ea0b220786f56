package message

import (
	"errors"
	"fmt"
)

// Field names used in validation errors.
const (
	FieldAmount           = "amount"
	FieldFee              = "fee"
	FieldBlockHeight      = "block height"
	FieldComputationIndex = "computation index"
)

// ValidationError is returned when operator input does not satisfy a field constraint.
type ValidationError struct {
	Field  string
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Input, e.Reason)
}

// MalformedResponseError is returned when a response body is not a JSON object with an
// integer status.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ErrComputationNotFound is returned when a computation file does not exist.
var ErrComputationNotFound = errors.New("computation file not found")

// JSONFormatError is returned when a computation source is not valid JSON.
type JSONFormatError struct {
	Path string
	Err  error
}

func (e *JSONFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid JSON: %v", e.Err)
	}
	return fmt.Sprintf("invalid JSON in %s: %v", e.Path, e.Err)
}

func (e *JSONFormatError) Unwrap() error { return e.Err }
