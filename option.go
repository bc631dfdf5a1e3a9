package signalprop

import (
	"log/slog"

	"github.com/rbaliyan/signalprop/payload"
)

// DefaultInstrumentationName is the otel meter/tracer name used by binders.
var DefaultInstrumentationName = "signalprop"

// options holds configuration for binders (unexported)
type options struct {
	logger         *slog.Logger
	metricsEnabled bool
	tracingEnabled bool
	stackCodec     payload.Codec
}

// Option configures a binding.
type Option func(*options)

// WithLogger sets the logger for the binding
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables/disables OpenTelemetry metrics for the binding
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// WithTracing enables/disables OpenTelemetry tracing of connector invocations
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithStackCodec sets the codec used to decode serialized stack payloads
// delivered to error signals. Default is JSON.
func WithStackCodec(c payload.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.stackCodec = c
		}
	}
}

// newOptions creates options with defaults and applies provided options
func newOptions(opts ...Option) *options {
	o := &options{
		logger:         Logger("signalprop"),
		metricsEnabled: true,
		tracingEnabled: true,
		stackCodec:     payload.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Logger returns a logger with the given component name
func Logger(component string) *slog.Logger {
	return slog.Default().With("component", component)
}
