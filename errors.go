package signalprop

import (
	"errors"
	"fmt"
)

// Binding errors.
// Use errors.Is() to check for these errors as they may be wrapped with additional context.
var (
	// ErrInvalidArgument indicates a required parameter was missing or empty.
	// Returned wrapped in an *ArgumentError naming the parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFunction indicates a handler callback or connector is not a usable function.
	ErrNotFunction = errors.New("value is not a function")

	// ErrSignalNotFound indicates the emitter has no signal with the requested name.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrCallbackNotFound indicates the emitter has no callback factory with the requested name.
	ErrCallbackNotFound = errors.New("callback factory not found")

	// ErrPropertyExists indicates the host already defines a property with the same name.
	ErrPropertyExists = errors.New("property already defined")

	// ErrBadArguments indicates a connector was invoked with arguments it cannot reshape.
	ErrBadArguments = errors.New("connector received malformed arguments")

	// ErrStackDecode indicates a serialized stack payload could not be decoded.
	// It is never swallowed: the event source must supply well-formed payloads.
	ErrStackDecode = errors.New("failed to decode stack payload")

	// ErrNotConnected is returned by signals asked to disconnect a connector they do not hold.
	ErrNotConnected = errors.New("connector is not connected")
)

// ArgumentError reports a missing or empty required parameter.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("argument %q: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("argument %q is required", e.Param)
}

func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// IsArgumentError checks if an error reports an invalid argument.
// Returns the offending parameter name when it does.
func IsArgumentError(err error) (string, bool) {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return argErr.Param, true
	}
	return "", false
}

func argError(param string) error {
	return &ArgumentError{Param: param}
}

// notFunctionError reports which handler field failed validation.
type notFunctionError struct {
	field  string
	detail string
}

func (e *notFunctionError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.detail)
}

func (e *notFunctionError) Unwrap() []error {
	return []error{ErrNotFunction, ErrInvalidArgument}
}
