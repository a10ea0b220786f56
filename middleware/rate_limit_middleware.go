package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"ledger-rpc/message"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit caps how fast requests leave the client using a token bucket. Requests over
// the limit fail immediately with ErrRateLimited and never reach the node.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req message.Request) (*message.Response, error) {
			if !limiter.Allow() {
				return nil, ErrRateLimited
			}
			return next(ctx, req)
		}
	}
}
