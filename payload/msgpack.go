package payload

import "github.com/vmihailenco/msgpack/v5"

// MsgPack implements Codec using MessagePack, a compact binary format.
// Struct fields are matched by their `msgpack` tags.
type MsgPack struct{}

// Encode serializes v to MessagePack bytes.
func (MsgPack) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes MessagePack bytes into v.
func (MsgPack) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// ContentType returns the MIME type for MessagePack.
func (MsgPack) ContentType() string {
	return "application/msgpack"
}

var _ Codec = MsgPack{}

func init() {
	Register(MsgPack{})
}
