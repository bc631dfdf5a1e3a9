package signalprop

import "fmt"

// BindSignal exposes the signal signalName of emitter as the property
// propertyName on listener. Assigned callbacks are connected as-is.
//
// emitter defaults to listener when nil; listener must then implement Emitter.
func BindSignal(listener any, propertyName, signalName string, store *Store, emitter Emitter, opts ...Option) (*Property[Slot], error) {
	if err := validate(listener, propertyName, "signalName", signalName, store); err != nil {
		return nil, err
	}
	sig, err := resolveSignal(listener, emitter, signalName)
	if err != nil {
		return nil, err
	}
	return Bind(listener, sig, propertyName, store, Plain(), opts...)
}

// BindInvocation exposes an invocation-style source as the property propertyName.
//
// The callback object is materialized once by calling the factory
// callbackFactoryName on emitter. Assigned callbacks receive the invocation's
// arguments spread out, and their result becomes the callback object's
// return value.
//
// emitter defaults to listener when nil; listener must then implement CallbackEmitter.
func BindInvocation(listener any, propertyName, callbackFactoryName string, store *Store, emitter CallbackEmitter, opts ...Option) (*Property[InvokeFunc], error) {
	if err := validate(listener, propertyName, "callbackFactoryName", callbackFactoryName, store); err != nil {
		return nil, err
	}
	if emitter == nil {
		e, ok := listener.(CallbackEmitter)
		if !ok {
			return nil, &ArgumentError{Param: "emitter", Reason: fmt.Sprintf("listener %T is not a CallbackEmitter", listener)}
		}
		emitter = e
	}
	cb, ok := emitter.NewCallback(callbackFactoryName)
	if !ok || cb == nil {
		return nil, fmt.Errorf("%w: %q", ErrCallbackNotFound, callbackFactoryName)
	}
	sig := cb.Called()
	if sig == nil {
		return nil, fmt.Errorf("%w: %q has no called signal", ErrSignalNotFound, callbackFactoryName)
	}
	return Bind(listener, sig, propertyName, store, Invocation(cb), opts...)
}

// BindErrorSignal exposes an error signal firing (message, stack) as the
// property propertyName. Assigned callbacks receive the message and the
// decoded, normalized stack frames. The stack codec is set with WithStackCodec.
//
// emitter defaults to listener when nil; listener must then implement Emitter.
func BindErrorSignal(listener any, propertyName, signalName string, store *Store, emitter Emitter, opts ...Option) (*Property[ErrorFunc], error) {
	if err := validate(listener, propertyName, "signalName", signalName, store); err != nil {
		return nil, err
	}
	sig, err := resolveSignal(listener, emitter, signalName)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts...)
	return Bind(listener, sig, propertyName, store, ErrorStack(o.stackCodec), opts...)
}

func validate(listener any, propertyName, sourceParam, sourceName string, store *Store) error {
	switch {
	case listener == nil:
		return argError("listener")
	case propertyName == "":
		return argError("propertyName")
	case sourceName == "":
		return argError(sourceParam)
	case store == nil:
		return argError("store")
	}
	return nil
}

func resolveSignal(listener any, emitter Emitter, name string) (Signal, error) {
	if emitter == nil {
		e, ok := listener.(Emitter)
		if !ok {
			return nil, &ArgumentError{Param: "emitter", Reason: fmt.Sprintf("listener %T is not an Emitter", listener)}
		}
		emitter = e
	}
	sig, ok := emitter.Signal(name)
	if !ok || sig == nil {
		return nil, fmt.Errorf("%w: %q", ErrSignalNotFound, name)
	}
	return sig, nil
}
