package redis

import (
	"context"
	"errors"
	"sync"

	"github.com/rbaliyan/signalprop"
	"github.com/redis/go-redis/v9"
)

// Emitter resolves signal names to Pub/Sub channels under a prefix
// ("page" + "loadFinished" -> "page:loadFinished"). Signals are created on
// first lookup.
type Emitter struct {
	client  redis.UniversalClient
	prefix  string
	opts    *options
	mu      sync.Mutex
	signals map[string]*Signal
}

// NewEmitter creates an emitter. An empty prefix uses names as channels.
func NewEmitter(client redis.UniversalClient, prefix string, opts ...Option) (*Emitter, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	return &Emitter{
		client:  client,
		prefix:  prefix,
		opts:    newOptions(opts...),
		signals: make(map[string]*Signal),
	}, nil
}

// ChannelName returns the channel for the named signal.
func (e *Emitter) ChannelName(name string) string {
	if e.prefix == "" {
		return name
	}
	return e.prefix + ":" + name
}

// Get returns the named signal, creating it if needed.
func (e *Emitter) Get(name string) (*Signal, error) {
	if name == "" {
		return nil, ErrChannelRequired
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.signals[name]; ok {
		return s, nil
	}
	s, err := newSignal(e.client, e.ChannelName(name), e.opts)
	if err != nil {
		return nil, err
	}
	e.signals[name] = s
	return s, nil
}

// Signal implements signalprop.Emitter.
func (e *Emitter) Signal(name string) (signalprop.Signal, bool) {
	s, err := e.Get(name)
	if err != nil {
		return nil, false
	}
	return s, true
}

// Emit publishes args on the named signal.
func (e *Emitter) Emit(ctx context.Context, name string, args ...any) error {
	s, err := e.Get(name)
	if err != nil {
		return err
	}
	return s.Emit(ctx, args...)
}

// Close closes every signal the emitter created.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for _, s := range e.signals {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ signalprop.Emitter = (*Emitter)(nil)
