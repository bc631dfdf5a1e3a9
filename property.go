package signalprop

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
)

// Accessor is the untyped view of a bound property, used by hosts that look
// properties up by name (script bindings, generic tooling).
type Accessor interface {
	// Name returns the property name.
	Name() string
	// Kind returns how callbacks are adapted to the event source.
	Kind() WrapKind
	// Value returns the assigned callback, or nil when unbound.
	Value() any
	// SetValue assigns v. Values that are not a callback of the property's
	// type detach the current handler.
	SetValue(ctx context.Context, v any) error
	// Bound reports whether a handler is currently connected.
	Bound() bool
}

// Host receives the accessors installed by binders.
type Host interface {
	DefineProperty(name string, a Accessor) error
}

// Property is a get/set accessor backed by one Store key and one Signal.
type Property[F any] struct {
	name    string
	signal  Signal
	store   *Store
	wrapper Wrapper[F]
	logger  *slog.Logger
	metrics *bindingMetrics
	inst    *instrument
}

// Bind creates the accessor name on receiver, backed by store[name] and sig.
// w decides how assigned callbacks are wrapped into handlers.
//
// If receiver implements Host the accessor is installed on it; a receiver
// that already defines name yields ErrPropertyExists. Any other receiver
// only gets the returned *Property.
func Bind[F any](receiver any, sig Signal, name string, store *Store, w Wrapper[F], opts ...Option) (*Property[F], error) {
	switch {
	case receiver == nil:
		return nil, argError("receiver")
	case sig == nil:
		return nil, argError("signal")
	case name == "":
		return nil, argError("name")
	case store == nil:
		return nil, argError("store")
	case w == nil:
		return nil, argError("wrapper")
	}

	o := newOptions(opts...)
	p := &Property[F]{
		name:    name,
		signal:  sig,
		store:   store,
		wrapper: w,
		logger:  o.logger.With("property", name, "kind", w.Kind().String()),
		inst:    newInstrument(name, o),
	}
	if o.metricsEnabled {
		p.metrics = newBindingMetrics(name)
	}

	if host, ok := receiver.(Host); ok {
		if err := host.DefineProperty(name, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Name returns the property name.
func (p *Property[F]) Name() string {
	return p.name
}

// Kind returns the wrap kind of the property.
func (p *Property[F]) Kind() WrapKind {
	return p.wrapper.Kind()
}

// Set replaces the property's handler with fn.
//
// The previous connector, if any, is disconnected first. Disconnect failures
// are logged and ignored since the old subscription may already be gone.
// A nil fn leaves the property unbound. If connecting fn fails the property
// is left unbound and the error is returned.
func (p *Property[F]) Set(ctx context.Context, fn F) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	if old := p.store.get(p.name); IsValid(old) {
		err := p.disconnect(ctx, old.Connector())
		if err != nil {
			p.logger.Debug("ignoring disconnect failure", "connector", old.Connector().ID(), "error", err)
		} else {
			p.logger.Debug("disconnected handler", "connector", old.Connector().ID())
		}
		p.metrics.recordDisconnect(ctx, err)
	}
	p.store.remove(p.name)

	if _, ok := funcValue(fn); !ok {
		return nil
	}

	h, err := p.wrapper.wrap(fn)
	if err != nil {
		return err
	}
	h.connector.inst = p.inst
	p.store.put(p.name, h)

	if err := p.signal.Connect(ctx, h.connector); err != nil {
		p.store.remove(p.name)
		return fmt.Errorf("connect %q: %w", p.name, err)
	}
	p.metrics.recordConnect(ctx)
	p.logger.Debug("connected handler", "connector", h.connector.ID())
	return nil
}

// SetValue assigns v if it is a non-nil F, or a function convertible to F.
// Any other value detaches the handler.
func (p *Property[F]) SetValue(ctx context.Context, v any) error {
	fn, ok := v.(F)
	if !ok {
		if rv, isFunc := funcValue(v); isFunc {
			if t := reflect.TypeFor[F](); rv.Type().ConvertibleTo(t) {
				fn, ok = rv.Convert(t).Interface().(F)
			}
		}
	}
	if !ok {
		var zero F
		return p.Set(ctx, zero)
	}
	return p.Set(ctx, fn)
}

// Clear detaches the current handler, if any.
func (p *Property[F]) Clear(ctx context.Context) error {
	var zero F
	return p.Set(ctx, zero)
}

// Lookup returns the callback last assigned, never its connector.
func (p *Property[F]) Lookup() (F, bool) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	h, ok := p.store.get(p.name).(*Handler[F])
	if !ok || !IsValid(h) {
		var zero F
		return zero, false
	}
	return h.callback, true
}

// Get returns the callback last assigned, or the zero F when unbound.
func (p *Property[F]) Get() F {
	fn, _ := p.Lookup()
	return fn
}

// Value returns the callback last assigned as any, or nil when unbound.
func (p *Property[F]) Value() any {
	fn, ok := p.Lookup()
	if !ok {
		return nil
	}
	return fn
}

// Bound reports whether a handler is currently stored for the property.
func (p *Property[F]) Bound() bool {
	_, ok := p.Lookup()
	return ok
}

// disconnect asks the signal to drop c. A panicking signal is reported as an error.
func (p *Property[F]) disconnect(ctx context.Context, c *Connector) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("disconnect panic: %v", r)
		}
	}()
	return p.signal.Disconnect(ctx, c)
}

var _ Accessor = (*Property[Slot])(nil)
