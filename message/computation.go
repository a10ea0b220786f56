package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LoadComputation reads a computation job from path. The only check applied is that the
// file parses as JSON; its bytes are kept verbatim.
func LoadComputation(path string) (Computation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Computation{}, fmt.Errorf("%w: %s", ErrComputationNotFound, path)
		}
		return Computation{}, fmt.Errorf("read computation file %s: %w", path, err)
	}
	if !jsonCodec.Complete(data) {
		return Computation{}, &JSONFormatError{Path: path, Err: syntaxError(data)}
	}
	return Computation{Raw: json.RawMessage(data)}, nil
}
