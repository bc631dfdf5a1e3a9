package redis

import (
	"log/slog"

	"github.com/rbaliyan/signalprop"
	"github.com/rbaliyan/signalprop/payload"
)

type options struct {
	codec   payload.Codec
	logger  *slog.Logger
	onError func(error)
}

// Option configures a Redis signal or emitter
type Option func(*options)

// WithCodec sets the codec for argument lists. Publishers and subscribers
// of a channel must agree on it. Default is JSON.
func WithCodec(c payload.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithErrorHandler sets the error handler callback
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
		}
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		codec:   payload.Default(),
		logger:  signalprop.Logger("source>redis"),
		onError: func(error) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
