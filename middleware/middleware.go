// Package middleware wraps a client round trip in an onion of cross-cutting concerns.
//
//	Chain(A, B, C)(roundTrip) → A(B(C(roundTrip)))
//	Execution order: A.before → B.before → C.before → roundTrip → C.after → B.after → A.after
package middleware

import (
	"context"

	"ledger-rpc/message"
)

// HandlerFunc performs (or forwards) one request/response exchange.
type HandlerFunc func(ctx context.Context, req message.Request) (*message.Response, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines several middlewares into one. The first one listed runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
