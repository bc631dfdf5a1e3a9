package signalprop

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Slot is the native callable a Signal invokes when it fires.
type Slot func(ctx context.Context, args ...any) error

// Signal is an event source supporting independent Connect/Disconnect registrations.
// Connectors are identified by pointer identity.
//
// Disconnect of a connector the signal does not hold should return an error
// (ErrNotConnected is conventional); binders treat any Disconnect failure as
// best-effort cleanup and ignore it.
type Signal interface {
	Connect(ctx context.Context, c *Connector) error
	Disconnect(ctx context.Context, c *Connector) error
}

// Emitter resolves named signals.
type Emitter interface {
	Signal(name string) (Signal, bool)
}

// CallbackObject is an invocation-style event source: Called fires when an
// invocation occurs and SetReturnValue communicates the result back to the
// invocation's caller.
type CallbackObject interface {
	Called() Signal
	SetReturnValue(v any)
	ReturnValue() any
}

// CallbackEmitter materializes callback objects by factory name.
// NewCallback is the zero-argument factory call.
type CallbackEmitter interface {
	NewCallback(name string) (CallbackObject, bool)
}

// Connector is what a binder actually registers with a Signal.
type Connector struct {
	id   string
	slot Slot
	inst *instrument
}

// NewConnector wraps slot in a Connector with a fresh ID.
// Returns nil if slot is nil.
func NewConnector(slot Slot) *Connector {
	if slot == nil {
		return nil
	}
	return &Connector{id: NewID(), slot: slot}
}

// ID returns the connector's unique identifier.
func (c *Connector) ID() string {
	return c.id
}

// Invoke runs the connector's slot.
func (c *Connector) Invoke(ctx context.Context, args ...any) error {
	if c == nil || c.slot == nil {
		return ErrNotConnected
	}
	if c.inst != nil {
		return c.inst.invoke(ctx, c.slot, args)
	}
	return c.slot(ctx, args...)
}

func (c *Connector) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.id
}

var counter uint64

// NewID generates a new unique ID
func NewID() string {
	u, err := uuid.NewRandom()
	if err == nil {
		return u.String()
	}
	return strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
}
