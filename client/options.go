package client

import (
	"go.uber.org/zap"

	"ledger-rpc/middleware"
	"ledger-rpc/transport"
)

type clientOptions struct {
	transport   transport.Options
	middlewares []middleware.Middleware
	logger      *zap.Logger
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		transport: transport.DefaultOptions(),
		logger:    zap.NewNop(),
	}
}

type Option func(*clientOptions)

// WithTransportOptions replaces the per-session dial and read settings.
func WithTransportOptions(opts transport.Options) Option {
	return func(o *clientOptions) {
		o.transport = opts
	}
}

// WithMiddleware appends middlewares around every round trip. The first one added
// runs outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *clientOptions) {
		o.middlewares = append(o.middlewares, mws...)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
