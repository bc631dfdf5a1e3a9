package signalprop

import (
	"context"
	"fmt"

	"github.com/rbaliyan/signalprop/payload"
)

// WrapKind identifies how a user callback is adapted to the shape of its event source.
type WrapKind uint8

const (
	// KindSignal registers the callback itself on a plain signal.
	KindSignal WrapKind = iota + 1
	// KindInvocation spreads an argument list into the callback and returns its
	// result through a callback object.
	KindInvocation
	// KindErrorSignal decodes a serialized stack before calling the callback.
	KindErrorSignal
)

// String returns a string representation of the wrap kind.
func (k WrapKind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindInvocation:
		return "invocation"
	case KindErrorSignal:
		return "error-signal"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// InvokeFunc handles an invocation and returns the value reported to its caller.
type InvokeFunc func(ctx context.Context, args ...any) (any, error)

// ErrorFunc handles an error report with its normalized stack trace.
type ErrorFunc func(ctx context.Context, message string, trace []Frame) error

// Wrapper turns a user callback of type F into a Handler.
// The set of wrappers is closed: use Plain, Invocation or ErrorStack.
type Wrapper[F any] interface {
	Kind() WrapKind
	wrap(fn F) (*Handler[F], error)
}

type plainWrapper struct{}

// Plain returns the identity wrapper: the callback is the connector.
func Plain() Wrapper[Slot] {
	return plainWrapper{}
}

func (plainWrapper) Kind() WrapKind { return KindSignal }

func (plainWrapper) wrap(fn Slot) (*Handler[Slot], error) {
	return NewHandler(fn, nil)
}

type invocationWrapper struct {
	cb CallbackObject
}

// Invocation returns a wrapper for callbacks fired through cb.Called().
//
// The connector expects a single argument holding the invocation's argument
// list ([]any). It spreads the list into the callback and stores the result
// with cb.SetReturnValue. A callback error is returned to the signal and the
// return value is left untouched.
func Invocation(cb CallbackObject) Wrapper[InvokeFunc] {
	return invocationWrapper{cb: cb}
}

func (invocationWrapper) Kind() WrapKind { return KindInvocation }

func (w invocationWrapper) wrap(fn InvokeFunc) (*Handler[InvokeFunc], error) {
	connector := func(ctx context.Context, args ...any) error {
		var call []any
		if len(args) > 0 && args[0] != nil {
			list, ok := args[0].([]any)
			if !ok {
				return fmt.Errorf("%w: expected argument list, got %T", ErrBadArguments, args[0])
			}
			call = list
		}
		result, err := fn(ctx, call...)
		if err != nil {
			return err
		}
		w.cb.SetReturnValue(result)
		return nil
	}
	return NewHandler(fn, connector)
}

type errorStackWrapper struct {
	codec payload.Codec
}

// ErrorStack returns a wrapper for error signals firing (message, stack),
// where stack is a serialized sequence of WireFrame decoded with codec.
// A nil codec means JSON.
//
// Decode failures are returned from the connector, never swallowed.
func ErrorStack(codec payload.Codec) Wrapper[ErrorFunc] {
	if codec == nil {
		codec = payload.Default()
	}
	return errorStackWrapper{codec: codec}
}

func (errorStackWrapper) Kind() WrapKind { return KindErrorSignal }

func (w errorStackWrapper) wrap(fn ErrorFunc) (*Handler[ErrorFunc], error) {
	connector := func(ctx context.Context, args ...any) error {
		if len(args) < 2 {
			return fmt.Errorf("%w: expected (message, stack), got %d arguments", ErrBadArguments, len(args))
		}
		var message string
		switch m := args[0].(type) {
		case string:
			message = m
		case []byte:
			message = string(m)
		default:
			return fmt.Errorf("%w: message must be a string, got %T", ErrBadArguments, args[0])
		}
		frames, err := DecodeStack(w.codec, args[1])
		if err != nil {
			return err
		}
		return fn(ctx, message, frames)
	}
	return NewHandler(fn, connector)
}
