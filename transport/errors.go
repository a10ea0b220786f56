package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionClosed means the peer closed the stream before a complete response
	// arrived. A truncated document is never handed to the decoder.
	ErrConnectionClosed = errors.New("connection closed before a complete response was received")

	ErrReadTimeout      = errors.New("timed out waiting for response")
	ErrResponseTooLarge = errors.New("response exceeds size limit")
	ErrSessionClosed    = errors.New("session is closed")
)

// ConnectionError wraps a failure to establish the TCP connection
// (refused, timed out, or unresolvable host).
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
