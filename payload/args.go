package payload

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ErrNotList is returned when an argument payload does not decode to a list.
var ErrNotList = errors.New("payload is not a list")

// EncodeArgs serializes a signal argument list. The Proto codec carries the
// list as a google.protobuf.ListValue, so args must be structpb-compatible.
func EncodeArgs(c Codec, args []any) ([]byte, error) {
	if c == nil {
		c = Default()
	}
	if args == nil {
		args = []any{}
	}
	if _, ok := c.(Proto); !ok {
		return c.Encode(args)
	}
	list, err := structpb.NewList(args)
	if err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	return c.Encode(list)
}

// DecodeArgs deserializes an argument list produced by EncodeArgs.
// Numbers come back in the codec's native representation
// (float64 for JSON and Proto).
func DecodeArgs(c Codec, data []byte) ([]any, error) {
	if c == nil {
		c = Default()
	}
	if _, ok := c.(Proto); ok {
		list := &structpb.ListValue{}
		if err := c.Decode(data, list); err != nil {
			return nil, err
		}
		return list.AsSlice(), nil
	}
	var args []any
	if err := c.Decode(data, &args); err != nil {
		return nil, err
	}
	if args == nil {
		return nil, ErrNotList
	}
	return args, nil
}
