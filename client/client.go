// Package client sends one request to a ledger node per call.
//
// Every Call opens a fresh transport session, sends the framed request, reads the raw
// response and closes the session. Sessions are never reused.
//
//	Call → middleware chain → resolve target → Connect → SendFrame → ReceiveMessage
//	     → message.DecodeResponse → Close
package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ledger-rpc/message"
	"ledger-rpc/middleware"
	"ledger-rpc/transport"
)

type Client struct {
	target  Target
	opts    *clientOptions
	handler middleware.HandlerFunc
}

// NewClient returns a client for target. The client's logger is shared with its sessions.
func NewClient(target Target, opts ...Option) *Client {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}
	options.transport.Logger = options.logger

	c := &Client{target: target, opts: options}
	c.handler = middleware.Chain(options.middlewares...)(c.roundTrip)
	return c
}

// Target is where calls are sent.
func (c *Client) Target() Target { return c.target }

// Call performs one round trip. A response with a non-200 status is not an error;
// callers inspect resp.Status.
func (c *Client) Call(ctx context.Context, req message.Request) (*message.Response, error) {
	return c.handler(ctx, req)
}

func (c *Client) roundTrip(ctx context.Context, req message.Request) (*message.Response, error) {
	// Encoding first keeps invalid requests off the network entirely.
	body, err := message.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	host, port, err := c.target.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := transport.Connect(ctx, host, port, c.opts.transport)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	c.opts.logger.Debug("sending request",
		zap.Stringer("request", req.Type()),
		zap.String("session", sess.ID().String()),
		zap.Int("bytes", len(body)))

	if err := sess.SendFrame(ctx, body); err != nil {
		return nil, err
	}
	raw, err := sess.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := message.DecodeResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("response from %s: %w", sess.Addr(), err)
	}
	return resp, nil
}
