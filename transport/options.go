package transport

import (
	"time"

	"go.uber.org/zap"

	"ledger-rpc/codec"
)

// Options tunes a Session. Zero fields fall back to DefaultOptions; a negative
// ReadTimeout disables the per-read deadline.
type Options struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration // per read; a stalled peer fails the call instead of hanging it
	WriteTimeout time.Duration

	ReadBufferSize  int
	MaxResponseSize int

	Codec  codec.Codec // decides when a response is complete
	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		DialTimeout:  5 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,

		ReadBufferSize:  2048,
		MaxResponseSize: 64 << 20,

		Codec:  &codec.JSONCodec{},
		Logger: zap.NewNop(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DialTimeout <= 0 {
		o.DialTimeout = def.DialTimeout
	}
	switch {
	case o.ReadTimeout == 0:
		o.ReadTimeout = def.ReadTimeout
	case o.ReadTimeout < 0:
		o.ReadTimeout = 0
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = def.WriteTimeout
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = def.ReadBufferSize
	}
	if o.MaxResponseSize <= 0 {
		o.MaxResponseSize = def.MaxResponseSize
	}
	if o.Codec == nil {
		o.Codec = def.Codec
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	return o
}
