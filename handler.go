package signalprop

import "reflect"

var slotType = reflect.TypeOf(Slot(nil))

// Record is a stored handler. Only *Handler values implement it.
type Record interface {
	// Connector returns the connector registered with the signal.
	Connector() *Connector
	valid() bool
}

// Handler pairs a user callback with the connector actually registered on a Signal.
type Handler[F any] struct {
	callback  F
	connector *Connector
}

// NewHandler creates a handler for callback.
//
// When connector is nil the callback itself is used as the connector, which
// requires F to be a Slot (or share its signature). Returns an error wrapping
// ErrNotFunction if callback is not a non-nil function or no connector can be
// derived.
func NewHandler[F any](callback F, connector Slot) (*Handler[F], error) {
	rv, ok := funcValue(callback)
	if !ok {
		return nil, &notFunctionError{field: "callback", detail: "must be a function"}
	}
	if connector == nil {
		if !rv.Type().ConvertibleTo(slotType) {
			return nil, &notFunctionError{
				field:  "connector",
				detail: "is optional only when callback has the Slot signature, got " + rv.Type().String(),
			}
		}
		connector = rv.Convert(slotType).Interface().(Slot)
	}
	return &Handler[F]{
		callback:  callback,
		connector: NewConnector(connector),
	}, nil
}

// Callback returns the function the caller supplied.
func (h *Handler[F]) Callback() F {
	return h.callback
}

// Connector returns the connector registered with the signal.
func (h *Handler[F]) Connector() *Connector {
	return h.connector
}

func (h *Handler[F]) valid() bool {
	if h == nil || h.connector == nil || h.connector.slot == nil {
		return false
	}
	_, ok := funcValue(h.callback)
	return ok
}

// IsValid reports whether v is a handler with both a callable callback and connector.
// It accepts any value, including nil and typed nil pointers.
func IsValid(v any) bool {
	r, ok := v.(Record)
	if !ok || r == nil {
		return false
	}
	return r.valid()
}

// funcValue returns the reflected value of v if it is a non-nil function.
func funcValue(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Func || rv.IsNil() {
		return rv, false
	}
	return rv, true
}
