package signalprop

import (
	"context"
	"errors"
	"testing"
)

func TestNewHandler(t *testing.T) {
	t.Run("connector defaults to callback", func(t *testing.T) {
		calls := 0
		cb := Slot(func(context.Context, ...any) error {
			calls++
			return nil
		})
		h, err := NewHandler(cb, nil)
		if err != nil {
			t.Fatalf("NewHandler failed: %v", err)
		}
		if err := h.Connector().Invoke(context.Background()); err != nil {
			t.Fatalf("Invoke failed: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected connector to run callback once, got %d", calls)
		}
		if h.Connector().ID() == "" {
			t.Error("expected connector ID")
		}
	})

	t.Run("unnamed slot signature defaults too", func(t *testing.T) {
		h, err := NewHandler(func(context.Context, ...any) error { return nil }, nil)
		if err != nil {
			t.Fatalf("NewHandler failed: %v", err)
		}
		if !IsValid(h) {
			t.Error("expected valid handler")
		}
	})

	t.Run("explicit connector", func(t *testing.T) {
		var got []any
		cb := func(s string) {}
		h, err := NewHandler(cb, func(_ context.Context, args ...any) error {
			got = args
			return nil
		})
		if err != nil {
			t.Fatalf("NewHandler failed: %v", err)
		}
		h.Connector().Invoke(context.Background(), "a", 1)
		if len(got) != 2 {
			t.Errorf("expected connector to receive 2 args, got %v", got)
		}
	})

	t.Run("nil callback", func(t *testing.T) {
		_, err := NewHandler[Slot](nil, nil)
		if !errors.Is(err, ErrNotFunction) {
			t.Errorf("expected ErrNotFunction, got %v", err)
		}
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("non-function callback", func(t *testing.T) {
		_, err := NewHandler("not a function", func(context.Context, ...any) error { return nil })
		if !errors.Is(err, ErrNotFunction) {
			t.Errorf("expected ErrNotFunction, got %v", err)
		}
	})

	t.Run("missing connector for non-slot callback", func(t *testing.T) {
		_, err := NewHandler(func(int) {}, nil)
		if !errors.Is(err, ErrNotFunction) {
			t.Errorf("expected ErrNotFunction, got %v", err)
		}
	})
}

func TestIsValid(t *testing.T) {
	valid, err := NewHandler(Slot(func(context.Context, ...any) error { return nil }), nil)
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}
	var typedNil *Handler[Slot]

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"valid handler", valid, true},
		{"nil", nil, false},
		{"typed nil", typedNil, false},
		{"zero handler", &Handler[Slot]{}, false},
		{"missing connector", &Handler[Slot]{callback: valid.callback}, false},
		{"missing callback", &Handler[Slot]{connector: valid.connector}, false},
		{"connector without slot", &Handler[Slot]{callback: valid.callback, connector: &Connector{}}, false},
		{"string", "handler", false},
		{"function", func() {}, false},
		{"map", map[string]any{"callback": valid.callback}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConnectorInvokeNil(t *testing.T) {
	var c *Connector
	if err := c.Invoke(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if NewConnector(nil) != nil {
		t.Error("expected nil connector for nil slot")
	}
}
