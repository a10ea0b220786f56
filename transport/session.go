// Package transport owns the TCP side of a ledger RPC round trip.
//
// A Session is one connection used for exactly one request/response exchange:
//
//	Connect ──► SendFrame(request) ──► ReceiveMessage() ──► Close
//
// Framing is asymmetric. Requests carry a 4-byte length prefix (package protocol), but
// nodes write their JSON response raw and then close the socket. ReceiveMessage therefore
// accumulates reads until the buffer parses as one complete document. This mirrors what
// deployed nodes do; unifying both directions on length prefixes needs a protocol change
// on the node side.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ledger-rpc/protocol"
)

// Session is a single-use connection to a node. It is not safe for concurrent use.
type Session struct {
	id     uuid.UUID
	conn   net.Conn
	addr   string
	opts   Options
	logger *zap.Logger

	closeOnce sync.Once
	closed    bool
}

// Connect dials host:port with SO_REUSEADDR set on the socket. Any failure (refused,
// timeout, DNS) is reported as a *ConnectionError.
func Connect(ctx context.Context, host string, port uint16, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	dialer := &net.Dialer{
		Timeout: opts.DialTimeout,
		Control: reuseAddrControl,
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	s := &Session{
		id:   uuid.New(),
		conn: conn,
		addr: addr,
		opts: opts,
	}
	s.logger = opts.Logger.With(zap.String("session", s.id.String()), zap.String("addr", addr))
	s.logger.Debug("session opened", zap.String("local", conn.LocalAddr().String()))
	return s, nil
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// Addr is the host:port the session is connected to.
func (s *Session) Addr() string { return s.addr }

// SendFrame writes payload as one length-prefixed frame, looping over partial writes.
func (s *Session) SendFrame(ctx context.Context, payload []byte) error {
	if s.closed {
		return ErrSessionClosed
	}

	stop := s.interruptOn(ctx)
	defer stop()

	if err := s.conn.SetWriteDeadline(s.deadline(ctx, s.opts.WriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline failed: %w", err)
	}
	if err := protocol.WriteFrame(s.conn, payload); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("send frame to %s: %w", s.addr, err)
	}

	s.logger.Debug("frame sent", zap.Int("bytes", len(payload)))
	return nil
}

// ReceiveMessage reads until the accumulated bytes form one complete document and
// returns them. If the peer closes first, the partial buffer is discarded and
// ErrConnectionClosed is returned.
func (s *Session) ReceiveMessage(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	stop := s.interruptOn(ctx)
	defer stop()

	buf := make([]byte, 0, s.opts.ReadBufferSize)
	chunk := make([]byte, s.opts.ReadBufferSize)
	for {
		if err := s.conn.SetReadDeadline(s.deadline(ctx, s.opts.ReadTimeout)); err != nil {
			return nil, fmt.Errorf("set read deadline failed: %w", err)
		}

		n, err := s.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if s.opts.Codec.Complete(buf) {
				s.logger.Debug("response received", zap.Int("bytes", len(buf)))
				return buf, nil
			}
			if len(buf) > s.opts.MaxResponseSize {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, s.opts.MaxResponseSize)
			}
		}

		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.logger.Debug("peer closed early", zap.Int("partial_bytes", len(buf)))
				return nil, fmt.Errorf("%w (%d bytes buffered)", ErrConnectionClosed, len(buf))
			case ctx.Err() != nil:
				return nil, ctx.Err()
			case errors.Is(err, os.ErrDeadlineExceeded):
				return nil, fmt.Errorf("%w from %s", ErrReadTimeout, s.addr)
			}
			return nil, fmt.Errorf("read response from %s: %w", s.addr, err)
		}
	}
}

// Close releases the socket. Calling it more than once is safe; later calls return nil.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed = true
		err = s.conn.Close()
		s.logger.Debug("session closed")
	})
	return err
}

// deadline returns the earlier of ctx's deadline and now+timeout. A zero result
// means no deadline.
func (s *Session) deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d
}

// interruptOn unblocks pending I/O once ctx is done.
func (s *Session) interruptOn(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		_ = s.conn.SetDeadline(time.Now())
	})
}
