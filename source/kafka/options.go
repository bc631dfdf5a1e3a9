package kafka

import (
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/rbaliyan/signalprop"
	"github.com/rbaliyan/signalprop/payload"
)

type options struct {
	codec   payload.Codec
	offset  int64
	logger  *slog.Logger
	onError func(error)
}

// Option configures a Kafka signal or emitter
type Option func(*options)

// WithCodec sets the codec used to encode published argument lists.
// Received records are decoded with the codec named in their Content-Type
// header, falling back to this codec.
func WithCodec(c payload.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithOffset sets where a new connection starts reading each partition:
// sarama.OffsetNewest (default) delivers only records produced after
// Connect, sarama.OffsetOldest replays the topic.
func WithOffset(offset int64) Option {
	return func(o *options) {
		if offset == sarama.OffsetNewest || offset == sarama.OffsetOldest {
			o.offset = offset
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

// WithErrorHandler sets the error handler callback.
// Called with consumer errors, decode failures and connector errors.
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
		offset:  sarama.OffsetNewest,
		logger:  signalprop.Logger("source>kafka"),
		onError: func(error) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
