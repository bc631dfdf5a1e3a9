package payload

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry(t *testing.T) {
	tests := []struct {
		contentType string
		want        Codec
	}{
		{"application/json", JSON{}},
		{"application/msgpack", MsgPack{}},
		{"application/protobuf", Proto{}},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			c, ok := Get(tt.contentType)
			if !ok {
				t.Fatalf("expected codec registered for %s", tt.contentType)
			}
			if c != tt.want {
				t.Errorf("expected %T, got %T", tt.want, c)
			}
			if c.ContentType() != tt.contentType {
				t.Errorf("expected content type %s, got %s", tt.contentType, c.ContentType())
			}
		})
	}

	if _, ok := Get("text/plain"); ok {
		t.Error("expected unknown content type to be missing")
	}
	if c := MustGet("text/plain"); c != (JSON{}) {
		t.Errorf("expected JSON fallback, got %T", c)
	}
	if c := Default(); c != (JSON{}) {
		t.Errorf("expected JSON default, got %T", c)
	}
}

func TestArgs(t *testing.T) {
	args := []any{"http://example.com", true, "done"}
	for _, c := range []Codec{JSON{}, MsgPack{}, Proto{}} {
		t.Run(c.ContentType(), func(t *testing.T) {
			data, err := EncodeArgs(c, args)
			if err != nil {
				t.Fatalf("EncodeArgs failed: %v", err)
			}
			got, err := DecodeArgs(c, data)
			if err != nil {
				t.Fatalf("DecodeArgs failed: %v", err)
			}
			if diff := cmp.Diff(args, got); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("nil args encode as empty list", func(t *testing.T) {
		data, err := EncodeArgs(nil, nil)
		if err != nil {
			t.Fatalf("EncodeArgs failed: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("expected [], got %s", data)
		}
	})

	t.Run("null is not a list", func(t *testing.T) {
		if _, err := DecodeArgs(JSON{}, []byte("null")); !errors.Is(err, ErrNotList) {
			t.Errorf("expected ErrNotList, got %v", err)
		}
	})

	t.Run("numbers decode as float64 in JSON", func(t *testing.T) {
		got, err := DecodeArgs(JSON{}, []byte(`[1, 2.5]`))
		if err != nil {
			t.Fatalf("DecodeArgs failed: %v", err)
		}
		if diff := cmp.Diff([]any{float64(1), 2.5}, got); diff != "" {
			t.Errorf("args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("proto rejects unsupported values", func(t *testing.T) {
		if _, err := EncodeArgs(Proto{}, []any{struct{}{}}); err == nil {
			t.Error("expected error for unsupported value")
		}
	})
}
