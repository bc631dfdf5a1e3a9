package lua

import "errors"

// Errors for script host operations.
var (
	// ErrUnknownProperty is raised when a script reads or assigns a field the host does not define.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrScriptFailed wraps errors raised by Lua callbacks.
	ErrScriptFailed = errors.New("lua callback failed")
)
