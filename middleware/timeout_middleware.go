package middleware

import (
	"context"
	"time"

	"ledger-rpc/message"
)

// Timeout bounds the whole round trip (dial, send, receive). The transport honours the
// context deadline, so no extra goroutine is needed. A non-positive timeout disables it.
func Timeout(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx context.Context, req message.Request) (*message.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, req)
		}
	}
}
