package nats

import (
	"log/slog"

	"github.com/rbaliyan/signalprop"
	"github.com/rbaliyan/signalprop/payload"
)

// options holds configuration for NATS signals (unexported)
type options struct {
	codec   payload.Codec
	queue   string
	logger  *slog.Logger
	onError func(error)
}

// Option configures a NATS signal or emitter
type Option func(*options)

// WithCodec sets the codec used to encode published argument lists.
// Received messages are decoded with the codec named in their Content-Type
// header, falling back to this codec.
func WithCodec(c payload.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithQueue subscribes connectors in a queue group, so each message reaches
// only one process in the group.
func WithQueue(group string) Option {
	return func(o *options) {
		o.queue = group
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

// WithErrorHandler sets the error handler callback.
// Called with decode failures and connector errors on subscription goroutines.
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
		logger:  signalprop.Logger("source>nats"),
		onError: func(error) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
