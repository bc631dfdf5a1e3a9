package channel

import (
	"context"
	"sync"

	"github.com/rbaliyan/signalprop"
)

// Callback implements signalprop.CallbackObject. Call fires Called with the
// invocation's arguments as a single list and reports the return value that
// connectors stored.
type Callback struct {
	called *Signal
	mu     sync.Mutex
	value  any
}

// NewCallback creates a callback object whose Called signal is named name.
func NewCallback(name string, opts ...Option) *Callback {
	return &Callback{called: New(name, opts...)}
}

// Called returns the invocation signal.
func (c *Callback) Called() signalprop.Signal {
	return c.called
}

// SetReturnValue stores the value reported to the invocation's caller.
func (c *Callback) SetReturnValue(v any) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// ReturnValue returns the last stored return value.
func (c *Callback) ReturnValue() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Call performs an invocation. The return value is reset before Called
// fires, so a call nobody handles returns nil.
func (c *Callback) Call(ctx context.Context, args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}
	c.SetReturnValue(nil)
	if err := c.called.Emit(ctx, args); err != nil {
		return nil, err
	}
	return c.ReturnValue(), nil
}

// Emitter resolves signals and callback objects by name.
// It implements signalprop.Emitter and signalprop.CallbackEmitter.
type Emitter struct {
	mu        sync.RWMutex
	opts      *options
	signals   map[string]*Signal
	callbacks map[string]*Callback
}

// NewEmitter creates an emitter. Options apply to every signal it creates.
func NewEmitter(opts ...Option) *Emitter {
	return &Emitter{
		opts:      newOptions(opts...),
		signals:   make(map[string]*Signal),
		callbacks: make(map[string]*Callback),
	}
}

// AddSignal creates the named signal, or returns the existing one.
func (e *Emitter) AddSignal(name string) *Signal {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.signals[name]; ok {
		return s
	}
	s := newSignal(name, e.opts)
	e.signals[name] = s
	return s
}

// AddCallback registers the named callback factory, or returns the existing object.
func (e *Emitter) AddCallback(name string) *Callback {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.callbacks[name]; ok {
		return c
	}
	c := &Callback{called: newSignal(name, e.opts)}
	e.callbacks[name] = c
	return c
}

// Signal returns the named signal.
func (e *Emitter) Signal(name string) (signalprop.Signal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.signals[name]
	if !ok {
		return nil, false
	}
	return s, true
}

// NewCallback is the factory call for the named callback object.
// Every call returns the same object for a name.
func (e *Emitter) NewCallback(name string) (signalprop.CallbackObject, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.callbacks[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// Emit fires the named signal. Unknown names return signalprop.ErrSignalNotFound.
func (e *Emitter) Emit(ctx context.Context, name string, args ...any) error {
	e.mu.RLock()
	s, ok := e.signals[name]
	e.mu.RUnlock()
	if !ok {
		return signalprop.ErrSignalNotFound
	}
	return s.Emit(ctx, args...)
}

// Call performs an invocation on the named callback object.
func (e *Emitter) Call(ctx context.Context, name string, args ...any) (any, error) {
	e.mu.RLock()
	c, ok := e.callbacks[name]
	e.mu.RUnlock()
	if !ok {
		return nil, signalprop.ErrCallbackNotFound
	}
	return c.Call(ctx, args...)
}

// Close closes every signal owned by the emitter.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.signals {
		s.Close()
	}
	for _, c := range e.callbacks {
		c.called.Close()
	}
	return nil
}

var (
	_ signalprop.Emitter         = (*Emitter)(nil)
	_ signalprop.CallbackEmitter = (*Emitter)(nil)
	_ signalprop.CallbackObject  = (*Callback)(nil)
)
