package message

import (
	"strconv"
	"strings"
)

// Operator input parsers. Each accepts decimal digits only (surrounding whitespace is
// trimmed); signs, spaces inside the number and non-numeric text are rejected.

// ParseAmount parses a transaction amount, which must be positive.
func ParseAmount(s string) (uint64, error) {
	v, err := parseDigits(FieldAmount, s, "must be a positive integer")
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, &ValidationError{Field: FieldAmount, Input: s, Reason: "must be a positive integer"}
	}
	return v, nil
}

// ParseFee parses a transaction fee; zero is allowed.
func ParseFee(s string) (uint64, error) {
	return parseDigits(FieldFee, s, "must be a non-negative integer")
}

// ParseBlockHeight parses a block height; zero is the genesis block.
func ParseBlockHeight(s string) (uint64, error) {
	return parseDigits(FieldBlockHeight, s, "must be a non-negative integer")
}

// ParseComputationIndex parses the index of a computation within a block.
func ParseComputationIndex(s string) (uint64, error) {
	return parseDigits(FieldComputationIndex, s, "must be a non-negative integer")
}

func parseDigits(field, input, reason string) (uint64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, &ValidationError{Field: field, Input: input, Reason: reason}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &ValidationError{Field: field, Input: input, Reason: reason}
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Input: input, Reason: "out of range"}
	}
	return v, nil
}
