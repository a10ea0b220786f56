// Package server implements a minimal ledger node RPC endpoint speaking the same wire
// protocol as real nodes. It backs the stub-node command and the client's tests.
//
// Connection handling mirrors a node: every connection is one-off.
//
//	Accept conn → read one length-prefixed frame → message.DecodeRequest
//	  → handler for the request type → write the JSON response raw → close
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ledger-rpc/codec"
	"ledger-rpc/message"
	"ledger-rpc/protocol"
	"ledger-rpc/registry"
)

// HandlerFunc answers one decoded request.
type HandlerFunc func(ctx context.Context, req message.Request) *message.Response

// Server is the RPC listener of a stub node.
type Server struct {
	handlers map[message.RequestType]HandlerFunc
	codec    codec.Codec
	logger   *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup // tracks in-flight connections for graceful shutdown
	shutdown atomic.Bool    // set during shutdown to suppress Accept errors

	registry      registry.Registry // nil if not advertising
	serviceName   string
	advertiseAddr string

	// MaxFrameSize bounds request payloads; ReadTimeout bounds reading one request.
	MaxFrameSize uint32
	ReadTimeout  time.Duration
}

func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		handlers:     make(map[message.RequestType]HandlerFunc),
		codec:        &codec.JSONCodec{},
		logger:       logger,
		MaxFrameSize: 16 << 20,
		ReadTimeout:  30 * time.Second,
	}
}

// Handle registers the handler for one request type, replacing any previous one.
func (svr *Server) Handle(t message.RequestType, h HandlerFunc) {
	svr.handlers[t] = h
}

// ListenAndServe listens on address and serves until Shutdown.
func (svr *Server) ListenAndServe(network, address string) error {
	ln, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	return svr.Serve(ln)
}

// Serve accepts connections on ln until Shutdown; one goroutine per connection.
func (svr *Server) Serve(ln net.Listener) error {
	svr.mu.Lock()
	if svr.shutdown.Load() {
		svr.mu.Unlock()
		ln.Close()
		return nil
	}
	svr.listener = ln
	svr.mu.Unlock()

	svr.logger.Info("stub node listening", zap.String("addr", ln.Addr().String()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Shutdown closes the listener, which surfaces here as an Accept error.
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		// The flag is checked and wg bumped under mu so no Add races Shutdown's Wait.
		svr.mu.Lock()
		if svr.shutdown.Load() {
			svr.mu.Unlock()
			conn.Close()
			return nil
		}
		svr.wg.Add(1)
		svr.mu.Unlock()
		go svr.handleConn(conn)
	}
}

// Addr returns the listening address, or nil before Serve.
func (svr *Server) Addr() net.Addr {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

// Advertise registers advertiseAddr under serviceName so discovering clients find this
// node. It is removed again on Shutdown.
func (svr *Server) Advertise(ctx context.Context, reg registry.Registry, serviceName, advertiseAddr string, ttl int64) error {
	if err := reg.Register(ctx, serviceName, registry.ServiceInstance{Addr: advertiseAddr, Weight: 1}, ttl); err != nil {
		return fmt.Errorf("advertise %s as %s: %w", advertiseAddr, serviceName, err)
	}
	svr.registry = reg
	svr.serviceName = serviceName
	svr.advertiseAddr = advertiseAddr
	return nil
}

func (svr *Server) handleConn(conn net.Conn) {
	defer svr.wg.Done()
	defer conn.Close()

	logger := svr.logger.With(zap.String("remote", conn.RemoteAddr().String()))

	if svr.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(svr.ReadTimeout))
	}
	payload, err := protocol.ReadFrame(conn, svr.MaxFrameSize)
	if err != nil {
		logger.Debug("read request failed", zap.Error(err))
		return
	}

	resp := svr.dispatch(context.Background(), payload, logger)

	body, err := svr.codec.Encode(resp)
	if err != nil {
		logger.Error("encode response failed", zap.Error(err))
		return
	}
	// Responses are written without a length prefix; the client parses until complete.
	if err := writeAll(conn, body); err != nil {
		logger.Debug("write response failed", zap.Error(err))
	}
}

func (svr *Server) dispatch(ctx context.Context, payload []byte, logger *zap.Logger) *message.Response {
	req, err := message.DecodeRequest(payload)
	if err != nil {
		logger.Info("bad request", zap.Error(err))
		return &message.Response{Status: message.StatusBadRequest, Message: err.Error()}
	}

	h, ok := svr.handlers[req.Type()]
	if !ok {
		logger.Info("no handler", zap.Stringer("request", req.Type()))
		return &message.Response{Status: message.StatusBadRequest, Message: "unknown RPC type"}
	}

	resp := h(ctx, req)
	if resp == nil {
		resp = &message.Response{Status: message.StatusInternalServerError}
	}
	logger.Info("handled", zap.Stringer("request", req.Type()), zap.Int("status", resp.Status))
	return resp
}

// Shutdown performs graceful shutdown:
//  1. Deregister from the registry (clients stop discovering this node)
//  2. Set the shutdown flag so the Accept error is recognized as intentional
//  3. Close the listener
//  4. Wait for in-flight connections, up to timeout
func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := svr.registry.Deregister(ctx, svr.serviceName, svr.advertiseAddr); err != nil {
			svr.logger.Warn("deregister failed", zap.Error(err))
		}
		cancel()
	}

	svr.mu.Lock()
	svr.shutdown.Store(true)
	if svr.listener != nil {
		svr.listener.Close()
	}
	svr.mu.Unlock()

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("timeout waiting for ongoing requests to finish")
	}
}

func writeAll(conn net.Conn, b []byte) error {
	for len(b) > 0 {
		n, err := conn.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
