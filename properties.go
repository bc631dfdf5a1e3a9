package signalprop

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Properties is a Host holding a fixed set of bound properties, in definition order.
// Embed it in a host type to let binders install accessors on it.
type Properties struct {
	mu    sync.RWMutex
	order []string
	props map[string]Accessor
}

// DefineProperty installs a under name. Properties cannot be redefined.
func (ps *Properties) DefineProperty(name string, a Accessor) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.props == nil {
		ps.props = make(map[string]Accessor)
	}
	if _, exists := ps.props[name]; exists {
		return fmt.Errorf("%w: %q", ErrPropertyExists, name)
	}
	ps.props[name] = a
	ps.order = append(ps.order, name)
	return nil
}

// Property returns the accessor defined under name.
func (ps *Properties) Property(name string) (Accessor, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	a, ok := ps.props[name]
	return a, ok
}

// PropertyNames returns the defined property names in definition order.
func (ps *Properties) PropertyNames() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	names := make([]string, len(ps.order))
	copy(names, ps.order)
	return names
}

// Get returns the callback assigned to name, or nil.
func (ps *Properties) Get(name string) any {
	a, ok := ps.Property(name)
	if !ok {
		return nil
	}
	return a.Value()
}

// Set assigns v to the property name. See Accessor.SetValue.
func (ps *Properties) Set(ctx context.Context, name string, v any) error {
	a, ok := ps.Property(name)
	if !ok {
		return &ArgumentError{Param: "name", Reason: fmt.Sprintf("no property %q", name)}
	}
	return a.SetValue(ctx, v)
}

// ClearAll detaches every bound property. Errors are joined.
func (ps *Properties) ClearAll(ctx context.Context) error {
	var errs []error
	for _, name := range ps.PropertyNames() {
		a, _ := ps.Property(name)
		if a == nil || !a.Bound() {
			continue
		}
		if err := a.SetValue(ctx, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Host = (*Properties)(nil)
