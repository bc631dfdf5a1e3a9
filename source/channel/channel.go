// Package channel provides in-process event sources: signals, callback
// objects and an emitter resolving both by name.
//
// Connectors run synchronously on the goroutine calling Emit, in connection
// order. A connector error does not stop delivery to the remaining
// connectors; all errors are joined and returned from Emit.
package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rbaliyan/signalprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// Signal errors
var (
	ErrSignalClosed = errors.New("signal closed")
	ErrNilConnector = errors.New("connector is nil")
	ErrRateLimited  = errors.New("emission rate limited")
)

// Signal implements signalprop.Signal in memory.
type Signal struct {
	name       string
	status     int32
	mu         sync.RWMutex
	connectors []*signalprop.Connector
	recovery   bool
	logger     *slog.Logger
	onError    func(error)
	limiter    *rate.Limiter

	droppedCounter metric.Int64Counter
}

// New creates a signal.
func New(name string, opts ...Option) *Signal {
	return newSignal(name, newOptions(opts...))
}

func newSignal(name string, o *options) *Signal {
	meter := otel.Meter("signalprop.source.channel")
	droppedCounter, _ := meter.Int64Counter("signalprop.source.channel.dropped",
		metric.WithDescription("Number of emissions dropped before reaching connectors"),
		metric.WithUnit("{emission}"),
	)
	s := &Signal{
		name:           name,
		status:         1,
		recovery:       o.recovery,
		logger:         o.logger.With("signal", name),
		onError:        o.onError,
		droppedCounter: droppedCounter,
	}
	if o.limit > 0 {
		s.limiter = rate.NewLimiter(o.limit, o.burst)
	}
	return s
}

// Name returns the signal name.
func (s *Signal) Name() string {
	return s.name
}

func (s *Signal) isOpen() bool {
	return atomic.LoadInt32(&s.status) == 1
}

// Connect registers c. The same connector may be connected more than once,
// in which case it fires once per connection.
func (s *Signal) Connect(_ context.Context, c *signalprop.Connector) error {
	if c == nil {
		return ErrNilConnector
	}
	if !s.isOpen() {
		return ErrSignalClosed
	}
	s.mu.Lock()
	s.connectors = append(s.connectors, c)
	s.mu.Unlock()
	s.logger.Debug("connected", "connector", c.ID())
	return nil
}

// Disconnect removes one connection of c.
// Returns signalprop.ErrNotConnected if c is not connected.
func (s *Signal) Disconnect(_ context.Context, c *signalprop.Connector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, conn := range s.connectors {
		if conn == c {
			s.connectors = append(s.connectors[:i:i], s.connectors[i+1:]...)
			s.logger.Debug("disconnected", "connector", c.ID())
			return nil
		}
	}
	return signalprop.ErrNotConnected
}

// Len returns the number of active connections.
func (s *Signal) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connectors)
}

// Emit invokes every connected connector with args.
func (s *Signal) Emit(ctx context.Context, args ...any) error {
	if !s.isOpen() {
		return ErrSignalClosed
	}

	s.mu.RLock()
	connectors := make([]*signalprop.Connector, len(s.connectors))
	copy(connectors, s.connectors)
	s.mu.RUnlock()

	if len(connectors) == 0 {
		s.logger.Debug("dropping emission, no connectors")
		s.recordDrop(ctx, "no_connectors")
		return nil
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.logger.Debug("dropping emission, rate limited")
		s.recordDrop(ctx, "rate_limited")
		return ErrRateLimited
	}

	var errs []error
	for _, c := range connectors {
		if err := s.invoke(ctx, c, args); err != nil {
			s.logger.Debug("connector failed", "connector", c.ID(), "error", err)
			s.onError(err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Signal) recordDrop(ctx context.Context, reason string) {
	if s.droppedCounter == nil {
		return
	}
	s.droppedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("signal", s.name),
			attribute.String("reason", reason),
		))
}

func (s *Signal) invoke(ctx context.Context, c *signalprop.Connector, args []any) (err error) {
	if s.recovery {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("connector panic recovered",
					"connector", c.ID(),
					"error", r,
					"stack", string(debug.Stack()),
				)
				err = fmt.Errorf("connector %s panicked: %v", c.ID(), r)
			}
		}()
	}
	return c.Invoke(ctx, args...)
}

// Close drops all connections. Emit and Connect fail afterwards.
func (s *Signal) Close() error {
	if atomic.CompareAndSwapInt32(&s.status, 1, 0) {
		s.mu.Lock()
		s.connectors = nil
		s.mu.Unlock()
	}
	return nil
}

var _ signalprop.Signal = (*Signal)(nil)
