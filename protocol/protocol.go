// Package protocol implements the request framing used by ledger nodes.
//
// Every request is a single frame: a 4-byte big-endian length followed by exactly that
// many payload bytes. The payload is JSON text by convention; this package never looks
// inside it.
//
// Frame format:
//
//	0         4
//	┌─────────┬───────────────────┐
//	│ length  │   payload ...     │
//	│ uint32  │   length bytes    │
//	└─────────┴───────────────────┘
//
// Responses are NOT framed this way (see package transport).
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the length prefix size in bytes.
const HeaderSize = 4

// FramingError reports a malformed or unacceptable length prefix.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string {
	return "framing error: " + e.Reason
}

// EncodeFrame returns the length prefix of payload followed by payload.
// No upper bound is checked here; oversized payloads are the transport's concern.
func EncodeFrame(payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:HeaderSize], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

// DecodeLength parses a big-endian length prefix. Bytes past the first four are ignored.
func DecodeLength(prefix []byte) (uint32, error) {
	if len(prefix) < HeaderSize {
		return 0, &FramingError{Reason: fmt.Sprintf("length prefix needs %d bytes, got %d", HeaderSize, len(prefix))}
	}
	return binary.BigEndian.Uint32(prefix[0:HeaderSize]), nil
}

// WriteFrame writes a complete frame to w.
// A single Write is not guaranteed to flush everything on every transport, so it loops
// until the whole frame is out or w fails.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := EncodeFrame(payload)
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		buf = buf[n:]
	}
	return nil
}

// ReadFrame reads one frame from r and returns its payload.
// It reads exactly the announced number of bytes before returning, so callers never see
// a partial payload. A max of 0 disables the size check.
func ReadFrame(r io.Reader, max uint32) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	length, err := DecodeLength(header)
	if err != nil {
		return nil, err
	}
	if max > 0 && length > max {
		return nil, &FramingError{Reason: fmt.Sprintf("frame payload too large: %d bytes (limit %d)", length, max)}
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
