package channel

import (
	"log/slog"

	"github.com/rbaliyan/signalprop"
	"golang.org/x/time/rate"
)

// options holds configuration for signals (unexported)
type options struct {
	recovery bool
	onError  func(error)
	logger   *slog.Logger
	limit    rate.Limit
	burst    int
}

// Option configures a channel signal or emitter
type Option func(*options)

// WithRecovery enables/disables panic recovery in connectors.
// Recovered panics are reported as errors from Emit. Default is true.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recovery = enabled
	}
}

// WithErrorHandler sets the error handler callback.
// Called with every connector error returned during Emit.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
		}
	}
}

// WithRateLimit caps emissions per signal at perSecond with the given burst
// (token bucket). Emissions over the limit are dropped and Emit returns
// ErrRateLimited. Each signal of an emitter gets its own bucket.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond > 0 && burst > 0 {
			o.limit = rate.Limit(perSecond)
			o.burst = burst
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

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		recovery: true,
		onError:  func(error) {}, // no-op default
		logger:   signalprop.Logger("source>channel"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
