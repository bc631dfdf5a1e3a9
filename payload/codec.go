// Package payload provides serialization for data carried by signals:
// serialized stack traces delivered to error signals and argument lists
// exchanged with remote event sources.
//
// Usage:
//
//	// JSON (default)
//	prop, err := signalprop.BindErrorSignal(page, "onError", "javaScriptErrorSent", store, nil)
//
//	// MessagePack stacks
//	prop, err := signalprop.BindErrorSignal(page, "onError", "javaScriptErrorSent", store, nil,
//	    signalprop.WithStackCodec(payload.MsgPack{}))
package payload

// Codec encodes/decodes signal payload data.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode serializes v to bytes.
	Encode(v any) ([]byte, error)

	// Decode deserializes bytes into the target, which must be a pointer.
	Decode(data []byte, v any) error

	// ContentType returns the MIME type (e.g., "application/json").
	ContentType() string
}

// Default returns the default codec (JSON).
func Default() Codec {
	return JSON{}
}
