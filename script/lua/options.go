package lua

import (
	"log/slog"

	"github.com/rbaliyan/signalprop"
)

type options struct {
	logger *slog.Logger
	strict bool
}

// Option configures a Host.
type Option func(*options)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStrict makes reads of undefined fields raise ErrUnknownProperty
// instead of returning nil. Assignments to undefined fields always raise.
func WithStrict(enabled bool) Option {
	return func(o *options) {
		o.strict = enabled
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		logger: signalprop.Logger("script>lua"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
