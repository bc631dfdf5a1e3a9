package signalprop

import (
	"context"
	"sync"
)

// RecordingSignal is an in-memory Signal that records Connect/Disconnect
// calls. Useful for testing code that binds properties.
//
// Failures can be injected with FailConnect, FailDisconnect and
// PanicOnDisconnect.
type RecordingSignal struct {
	mu            sync.Mutex
	connected     []*Connector
	connects      int
	disconnects   int
	connectErr    error
	disconnectErr error
	panicValue    any
}

// NewRecordingSignal creates an empty recording signal.
func NewRecordingSignal() *RecordingSignal {
	return &RecordingSignal{}
}

// Connect records the call and registers c.
func (s *RecordingSignal) Connect(_ context.Context, c *Connector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = append(s.connected, c)
	return nil
}

// Disconnect records the call and removes c.
// Returns ErrNotConnected if c is not connected.
func (s *RecordingSignal) Disconnect(_ context.Context, c *Connector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	if s.panicValue != nil {
		panic(s.panicValue)
	}
	if s.disconnectErr != nil {
		return s.disconnectErr
	}
	for i, conn := range s.connected {
		if conn == c {
			s.connected = append(s.connected[:i], s.connected[i+1:]...)
			return nil
		}
	}
	return ErrNotConnected
}

// Fire invokes every connected connector in connection order and returns
// the first error.
func (s *RecordingSignal) Fire(ctx context.Context, args ...any) error {
	for _, c := range s.Connected() {
		if err := c.Invoke(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// Connected returns a copy of the connected connectors.
func (s *RecordingSignal) Connected() []*Connector {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*Connector, len(s.connected))
	copy(result, s.connected)
	return result
}

// Connects returns the number of Connect calls.
func (s *RecordingSignal) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// Disconnects returns the number of Disconnect calls.
func (s *RecordingSignal) Disconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnects
}

// FailConnect makes subsequent Connect calls return err. nil restores normal behavior.
func (s *RecordingSignal) FailConnect(err error) {
	s.mu.Lock()
	s.connectErr = err
	s.mu.Unlock()
}

// FailDisconnect makes subsequent Disconnect calls return err without
// removing the connector. nil restores normal behavior.
func (s *RecordingSignal) FailDisconnect(err error) {
	s.mu.Lock()
	s.disconnectErr = err
	s.mu.Unlock()
}

// PanicOnDisconnect makes subsequent Disconnect calls panic with v. nil restores normal behavior.
func (s *RecordingSignal) PanicOnDisconnect(v any) {
	s.mu.Lock()
	s.panicValue = v
	s.mu.Unlock()
}

// Reset clears recorded calls and connections.
func (s *RecordingSignal) Reset() {
	s.mu.Lock()
	s.connected = nil
	s.connects = 0
	s.disconnects = 0
	s.mu.Unlock()
}

// RecordingCallback is an in-memory CallbackObject whose Called signal is a RecordingSignal.
type RecordingCallback struct {
	called *RecordingSignal
	mu     sync.Mutex
	value  any
}

// NewRecordingCallback creates a callback object with a fresh recording signal.
func NewRecordingCallback() *RecordingCallback {
	return &RecordingCallback{called: NewRecordingSignal()}
}

// Called returns the invocation signal.
func (c *RecordingCallback) Called() Signal {
	return c.called
}

// Signal returns the invocation signal with its recording methods.
func (c *RecordingCallback) Signal() *RecordingSignal {
	return c.called
}

// SetReturnValue stores the value reported to the invocation's caller.
func (c *RecordingCallback) SetReturnValue(v any) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// ReturnValue returns the last stored return value.
func (c *RecordingCallback) ReturnValue() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Call fires Called with args as a single argument list and returns the
// resulting return value.
func (c *RecordingCallback) Call(ctx context.Context, args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}
	if err := c.called.Fire(ctx, args); err != nil {
		return nil, err
	}
	return c.ReturnValue(), nil
}
