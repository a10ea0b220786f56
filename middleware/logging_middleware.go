package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ledger-rpc/message"
)

// Logging records one entry per round trip: request type, duration, and the node's
// status or the transport error.
func Logging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req message.Request) (*message.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			fields := []zap.Field{
				zap.Stringer("request", req.Type()),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("round trip failed", append(fields, zap.Error(err))...)
				return resp, err
			}
			logger.Info("round trip", append(fields, zap.Int("status", resp.Status))...)
			return resp, nil
		}
	}
}
