package signalprop

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
)

func newTestProperty(t *testing.T, sig Signal, store *Store) *Property[Slot] {
	t.Helper()
	p, err := Bind(&struct{}{}, sig, "onEvent", store, Plain(), WithMetrics(false), WithTracing(false))
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	return p
}

func sameFunc(a, b any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestPropertyGetReturnsAssignedCallback(t *testing.T) {
	ctx := context.Background()
	sig := NewRecordingSignal()
	p := newTestProperty(t, sig, NewStore())

	var calls int32
	f := Slot(func(context.Context, ...any) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	if err := p.Set(ctx, f); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := p.Lookup()
	if !ok {
		t.Fatal("expected property to be bound")
	}
	if !sameFunc(got, f) {
		t.Error("getter returned a different function")
	}
	got(ctx)
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected the assigned callback to run, calls=%d", calls)
	}
	if p.Kind() != KindSignal {
		t.Errorf("expected kind signal, got %s", p.Kind())
	}
}

func TestPropertyReplaceHandler(t *testing.T) {
	ctx := context.Background()
	sig := NewRecordingSignal()
	p := newTestProperty(t, sig, NewStore())

	var first, second int32
	f1 := Slot(func(context.Context, ...any) error { atomic.AddInt32(&first, 1); return nil })
	f2 := Slot(func(context.Context, ...any) error { atomic.AddInt32(&second, 1); return nil })

	if err := p.Set(ctx, f1); err != nil {
		t.Fatalf("Set f1 failed: %v", err)
	}
	if err := p.Set(ctx, f2); err != nil {
		t.Fatalf("Set f2 failed: %v", err)
	}

	if sig.Connects() != 2 {
		t.Errorf("expected 2 connects, got %d", sig.Connects())
	}
	if sig.Disconnects() != 1 {
		t.Errorf("expected 1 disconnect, got %d", sig.Disconnects())
	}
	if n := len(sig.Connected()); n != 1 {
		t.Fatalf("expected 1 active connection, got %d", n)
	}

	sig.Fire(ctx)
	if first != 0 || second != 1 {
		t.Errorf("expected only f2 to fire, got f1=%d f2=%d", first, second)
	}
}

func TestPropertyDetach(t *testing.T) {
	ctx := context.Background()

	t.Run("nil detaches", func(t *testing.T) {
		sig := NewRecordingSignal()
		p := newTestProperty(t, sig, NewStore())
		p.Set(ctx, func(context.Context, ...any) error { return nil })

		if err := p.Set(ctx, nil); err != nil {
			t.Fatalf("Set nil failed: %v", err)
		}
		if sig.Disconnects() != 1 {
			t.Errorf("expected 1 disconnect, got %d", sig.Disconnects())
		}
		if sig.Connects() != 1 {
			t.Errorf("expected no further connect, got %d", sig.Connects())
		}
		if p.Get() != nil || p.Value() != nil || p.Bound() {
			t.Error("expected property to be unbound")
		}
	})

	t.Run("non-function value detaches", func(t *testing.T) {
		sig := NewRecordingSignal()
		p := newTestProperty(t, sig, NewStore())
		p.Set(ctx, func(context.Context, ...any) error { return nil })

		for _, v := range []any{nil, "callback", 42, func(int) {}} {
			if err := p.SetValue(ctx, v); err != nil {
				t.Fatalf("SetValue(%T) failed: %v", v, err)
			}
			if p.Bound() {
				t.Errorf("expected SetValue(%T) to detach", v)
			}
		}
		if sig.Disconnects() != 1 {
			t.Errorf("expected exactly 1 disconnect, got %d", sig.Disconnects())
		}
		if len(sig.Connected()) != 0 {
			t.Error("expected no active connections")
		}
	})

	t.Run("clear on unbound property is a no-op", func(t *testing.T) {
		sig := NewRecordingSignal()
		p := newTestProperty(t, sig, NewStore())
		if err := p.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if sig.Disconnects() != 0 || sig.Connects() != 0 {
			t.Error("expected no signal calls")
		}
	})
}

func TestPropertySetValueConvertsFunctions(t *testing.T) {
	ctx := context.Background()
	sig := NewRecordingSignal()
	p := newTestProperty(t, sig, NewStore())

	if err := p.SetValue(ctx, func(context.Context, ...any) error { return nil }); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	if !p.Bound() {
		t.Error("expected convertible function to bind")
	}
}

func TestPropertyReassignIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sig := NewRecordingSignal()
	p := newTestProperty(t, sig, NewStore())

	var calls int32
	p.Set(ctx, func(context.Context, ...any) error { atomic.AddInt32(&calls, 1); return nil })
	before := sig.Connected()[0]

	if err := p.Set(ctx, p.Get()); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}
	after := sig.Connected()
	if len(after) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(after))
	}
	if after[0] == before {
		t.Error("expected a fresh connector after reassign")
	}
	sig.Fire(ctx)
	if calls != 1 {
		t.Errorf("expected one invocation, got %d", calls)
	}
}

func TestPropertyDisconnectFailureIsIgnored(t *testing.T) {
	ctx := context.Background()

	t.Run("error", func(t *testing.T) {
		sig := NewRecordingSignal()
		p := newTestProperty(t, sig, NewStore())
		p.Set(ctx, func(context.Context, ...any) error { return nil })

		sig.FailDisconnect(errors.New("already gone"))
		var fired int32
		if err := p.Set(ctx, func(context.Context, ...any) error { atomic.AddInt32(&fired, 1); return nil }); err != nil {
			t.Fatalf("expected disconnect error to be swallowed, got %v", err)
		}
		if sig.Connects() != 2 {
			t.Errorf("expected new handler to connect, connects=%d", sig.Connects())
		}
		if !p.Bound() {
			t.Error("expected property to be bound")
		}
	})

	t.Run("panic", func(t *testing.T) {
		sig := NewRecordingSignal()
		p := newTestProperty(t, sig, NewStore())
		p.Set(ctx, func(context.Context, ...any) error { return nil })

		sig.PanicOnDisconnect("boom")
		if err := p.Set(ctx, func(context.Context, ...any) error { return nil }); err != nil {
			t.Fatalf("expected disconnect panic to be swallowed, got %v", err)
		}
		if sig.Connects() != 2 {
			t.Errorf("expected new handler to connect, connects=%d", sig.Connects())
		}
	})
}

func TestPropertyConnectFailure(t *testing.T) {
	ctx := context.Background()
	sig := NewRecordingSignal()
	store := NewStore()
	p := newTestProperty(t, sig, store)

	connectErr := errors.New("signal closed")
	sig.FailConnect(connectErr)
	err := p.Set(ctx, func(context.Context, ...any) error { return nil })
	if !errors.Is(err, connectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if p.Bound() {
		t.Error("expected property to stay unbound")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %v", store.Names())
	}
}

func TestPropertyStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	sigA := NewRecordingSignal()
	sigB := NewRecordingSignal()

	a, err := Bind(&struct{}{}, sigA, "onA", store, Plain(), WithMetrics(false))
	if err != nil {
		t.Fatalf("Bind onA failed: %v", err)
	}
	b, err := Bind(&struct{}{}, sigB, "onB", store, Plain(), WithTracing(false))
	if err != nil {
		t.Fatalf("Bind onB failed: %v", err)
	}

	a.Set(ctx, func(context.Context, ...any) error { return nil })
	b.Set(ctx, func(context.Context, ...any) error { return nil })
	a.Set(ctx, nil)

	if !b.Bound() {
		t.Error("expected onB to stay bound")
	}
	if names := store.Names(); len(names) != 1 || names[0] != "onB" {
		t.Errorf("expected store to hold only onB, got %v", names)
	}
	if sigB.Disconnects() != 0 {
		t.Error("expected onB signal untouched")
	}
}

func TestPropertyGetToleratesForeignRecord(t *testing.T) {
	store := NewStore()
	other, _ := NewHandler(func(int) {}, func(context.Context, ...any) error { return nil })
	store.put("onEvent", other)

	p := newTestProperty(t, NewRecordingSignal(), store)
	if _, ok := p.Lookup(); ok {
		t.Error("expected record of another callback type to read as absent")
	}
}

func TestBindValidation(t *testing.T) {
	sig := NewRecordingSignal()
	tests := []struct {
		name     string
		receiver any
		sig      Signal
		prop     string
		store    *Store
		want     string
	}{
		{"nil receiver", nil, sig, "on", NewStore(), "receiver"},
		{"nil signal", &struct{}{}, nil, "on", NewStore(), "signal"},
		{"empty name", &struct{}{}, sig, "", NewStore(), "name"},
		{"nil store", &struct{}{}, sig, "on", nil, "store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bind(tt.receiver, tt.sig, tt.prop, tt.store, Plain())
			param, ok := IsArgumentError(err)
			if !ok || param != tt.want {
				t.Errorf("expected argument error for %q, got %v", tt.want, err)
			}
		})
	}
	if sig.Connects() != 0 || sig.Disconnects() != 0 {
		t.Error("expected signal untouched by failed binds")
	}
}

func TestPropertyInstrumentation(t *testing.T) {
	ctx := context.Background()
	sig := NewRecordingSignal()
	p, err := Bind(&struct{}{}, sig, "onTraced", NewStore(), Plain())
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	failure := errors.New("handler failed")
	p.Set(ctx, func(context.Context, ...any) error { return failure })

	if err := sig.Fire(ctx); !errors.Is(err, failure) {
		t.Errorf("expected handler error through instrumented connector, got %v", err)
	}
}
