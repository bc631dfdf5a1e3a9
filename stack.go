package signalprop

import (
	"errors"
	"fmt"

	"github.com/rbaliyan/signalprop/payload"
	"google.golang.org/protobuf/types/known/structpb"
)

// Frame is a normalized stack frame delivered to error handlers.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

// WireFrame is a stack frame as serialized by the event source.
type WireFrame struct {
	URL          string `json:"url" msgpack:"url"`
	LineNumber   int    `json:"lineNumber" msgpack:"lineNumber"`
	FunctionName string `json:"functionName" msgpack:"functionName"`
}

// Frame returns the normalized form of the wire frame.
func (w WireFrame) Frame() Frame {
	return Frame{File: w.URL, Line: w.LineNumber, Function: w.FunctionName}
}

// DecodeStack decodes a serialized stack payload (string or []byte) into
// normalized frames, preserving order. Errors wrap ErrStackDecode.
func DecodeStack(c payload.Codec, stack any) ([]Frame, error) {
	var data []byte
	switch s := stack.(type) {
	case string:
		data = []byte(s)
	case []byte:
		data = s
	default:
		return nil, fmt.Errorf("%w: stack must be string or []byte, got %T", ErrStackDecode, stack)
	}
	if c == nil {
		c = payload.Default()
	}

	var wire []WireFrame
	if _, ok := c.(payload.Proto); ok {
		var err error
		if wire, err = decodeProtoStack(c, data); err != nil {
			return nil, err
		}
	} else {
		if err := c.Decode(data, &wire); err != nil {
			return nil, errors.Join(ErrStackDecode, err)
		}
		if wire == nil {
			return nil, fmt.Errorf("%w: payload is not a sequence", ErrStackDecode)
		}
	}

	frames := make([]Frame, len(wire))
	for i, w := range wire {
		frames[i] = w.Frame()
	}
	return frames, nil
}

// EncodeStack serializes frames in the wire format expected by DecodeStack.
func EncodeStack(c payload.Codec, frames ...WireFrame) ([]byte, error) {
	if c == nil {
		c = payload.Default()
	}
	if frames == nil {
		frames = []WireFrame{}
	}
	if _, ok := c.(payload.Proto); !ok {
		return c.Encode(frames)
	}
	values := make([]any, len(frames))
	for i, f := range frames {
		values[i] = map[string]any{
			"url":          f.URL,
			"lineNumber":   f.LineNumber,
			"functionName": f.FunctionName,
		}
	}
	list, err := structpb.NewList(values)
	if err != nil {
		return nil, err
	}
	return c.Encode(list)
}

// decodeProtoStack reads a google.protobuf.ListValue of Structs.
func decodeProtoStack(c payload.Codec, data []byte) ([]WireFrame, error) {
	list := &structpb.ListValue{}
	if err := c.Decode(data, list); err != nil {
		return nil, errors.Join(ErrStackDecode, err)
	}
	wire := make([]WireFrame, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("%w: frame %d is not an object", ErrStackDecode, i)
		}
		fields := s.GetFields()
		wire = append(wire, WireFrame{
			URL:          fields["url"].GetStringValue(),
			LineNumber:   int(fields["lineNumber"].GetNumberValue()),
			FunctionName: fields["functionName"].GetStringValue(),
		})
	}
	return wire, nil
}
