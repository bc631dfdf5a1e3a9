package nats

import (
	"context"
	"errors"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rbaliyan/signalprop"
)

// Emitter resolves signal names to subjects under a common prefix.
// Signals are created on first lookup; "loadFinished" under prefix "page"
// maps to subject "page.loadFinished".
type Emitter struct {
	conn    *nats.Conn
	prefix  string
	opts    *options
	mu      sync.Mutex
	signals map[string]*Signal
}

// NewEmitter creates an emitter. An empty prefix uses names as subjects.
func NewEmitter(conn *nats.Conn, prefix string, opts ...Option) (*Emitter, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}
	return &Emitter{
		conn:    conn,
		prefix:  prefix,
		opts:    newOptions(opts...),
		signals: make(map[string]*Signal),
	}, nil
}

// Subject returns the subject for the named signal.
func (e *Emitter) Subject(name string) string {
	if e.prefix == "" {
		return name
	}
	return e.prefix + "." + name
}

// Get returns the named signal, creating it if needed.
func (e *Emitter) Get(name string) (*Signal, error) {
	if name == "" {
		return nil, ErrSubjectRequired
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.signals[name]; ok {
		return s, nil
	}
	s, err := newSignal(e.conn, e.Subject(name), e.opts)
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

// Close closes every signal the emitter created. The connection stays open.
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
