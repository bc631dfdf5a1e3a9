package channel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rbaliyan/signalprop"
)

func recordingConnector(got *[][]any) *signalprop.Connector {
	return signalprop.NewConnector(func(_ context.Context, args ...any) error {
		*got = append(*got, args)
		return nil
	})
}

func TestNew(t *testing.T) {
	s := New("loadFinished")
	if s == nil {
		t.Fatal("expected signal, got nil")
	}
	defer s.Close()
	if s.Name() != "loadFinished" {
		t.Errorf("expected name loadFinished, got %s", s.Name())
	}
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("nil connector", func(t *testing.T) {
		s := New("sig")
		if err := s.Connect(ctx, nil); err != ErrNilConnector {
			t.Errorf("expected ErrNilConnector, got %v", err)
		}
	})

	t.Run("closed signal", func(t *testing.T) {
		s := New("sig")
		s.Close()
		var got [][]any
		if err := s.Connect(ctx, recordingConnector(&got)); err != ErrSignalClosed {
			t.Errorf("expected ErrSignalClosed, got %v", err)
		}
	})

	t.Run("same connector twice fires twice", func(t *testing.T) {
		s := New("sig")
		var got [][]any
		c := recordingConnector(&got)
		s.Connect(ctx, c)
		s.Connect(ctx, c)
		if s.Len() != 2 {
			t.Fatalf("expected 2 connections, got %d", s.Len())
		}
		s.Emit(ctx, "ok")
		if len(got) != 2 {
			t.Errorf("expected 2 calls, got %d", len(got))
		}
	})
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()
	s := New("sig")
	var got [][]any
	c := recordingConnector(&got)

	if err := s.Disconnect(ctx, c); !errors.Is(err, signalprop.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected for unknown connector, got %v", err)
	}

	s.Connect(ctx, c)
	if err := s.Disconnect(ctx, c); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	s.Emit(ctx, 1)
	if len(got) != 0 {
		t.Errorf("expected no delivery after disconnect, got %v", got)
	}
	if err := s.Disconnect(ctx, c); !errors.Is(err, signalprop.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected on second disconnect, got %v", err)
	}
}

func TestEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers arguments in connection order", func(t *testing.T) {
		s := New("sig")
		var order []string
		for _, name := range []string{"a", "b", "c"} {
			name := name
			s.Connect(ctx, signalprop.NewConnector(func(_ context.Context, args ...any) error {
				order = append(order, name)
				if diff := cmp.Diff([]any{"http://example.com", true}, args); diff != "" {
					t.Errorf("args mismatch (-want +got):\n%s", diff)
				}
				return nil
			}))
		}
		if err := s.Emit(ctx, "http://example.com", true); err != nil {
			t.Fatalf("Emit failed: %v", err)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("errors are joined and delivery continues", func(t *testing.T) {
		var handled int32
		s := New("sig", WithErrorHandler(func(error) { atomic.AddInt32(&handled, 1) }))
		errA := errors.New("a failed")
		errB := errors.New("b failed")
		var reached bool
		s.Connect(ctx, signalprop.NewConnector(func(context.Context, ...any) error { return errA }))
		s.Connect(ctx, signalprop.NewConnector(func(context.Context, ...any) error { return errB }))
		s.Connect(ctx, signalprop.NewConnector(func(context.Context, ...any) error { reached = true; return nil }))

		err := s.Emit(ctx)
		if !errors.Is(err, errA) || !errors.Is(err, errB) {
			t.Errorf("expected both errors, got %v", err)
		}
		if !reached {
			t.Error("expected last connector to run")
		}
		if handled != 2 {
			t.Errorf("expected error handler called twice, got %d", handled)
		}
	})

	t.Run("panic is recovered", func(t *testing.T) {
		s := New("sig")
		var reached bool
		s.Connect(ctx, signalprop.NewConnector(func(context.Context, ...any) error { panic("boom") }))
		s.Connect(ctx, signalprop.NewConnector(func(context.Context, ...any) error { reached = true; return nil }))
		if err := s.Emit(ctx); err == nil {
			t.Error("expected error from recovered panic")
		}
		if !reached {
			t.Error("expected delivery to continue after panic")
		}
	})

	t.Run("no connectors", func(t *testing.T) {
		s := New("sig")
		if err := s.Emit(ctx, 1); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		s := New("sig", WithRateLimit(1, 2))
		var got [][]any
		s.Connect(ctx, recordingConnector(&got))
		for i := 0; i < 2; i++ {
			if err := s.Emit(ctx, i); err != nil {
				t.Fatalf("Emit %d failed: %v", i, err)
			}
		}
		if err := s.Emit(ctx, 2); !errors.Is(err, ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 deliveries, got %d", len(got))
		}
	})

	t.Run("closed signal", func(t *testing.T) {
		s := New("sig")
		s.Close()
		if err := s.Emit(ctx); err != ErrSignalClosed {
			t.Errorf("expected ErrSignalClosed, got %v", err)
		}
	})
}

func TestCallback(t *testing.T) {
	ctx := context.Background()
	cb := NewCallback("called")

	t.Run("unhandled call returns nil", func(t *testing.T) {
		v, err := cb.Call(ctx, 1, 2)
		if err != nil || v != nil {
			t.Errorf("expected nil, nil; got %v, %v", v, err)
		}
	})

	t.Run("arguments arrive as one list", func(t *testing.T) {
		var got []any
		c := signalprop.NewConnector(func(_ context.Context, args ...any) error {
			got = args
			cb.SetReturnValue("done")
			return nil
		})
		cb.Called().Connect(ctx, c)
		defer cb.Called().Disconnect(ctx, c)

		v, err := cb.Call(ctx, "a", 2)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if v != "done" {
			t.Errorf("expected done, got %v", v)
		}
		if diff := cmp.Diff([]any{[]any{"a", 2}}, got); diff != "" {
			t.Errorf("args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no arguments sends an empty list", func(t *testing.T) {
		var got []any
		c := signalprop.NewConnector(func(_ context.Context, args ...any) error {
			got = args
			return nil
		})
		cb.Called().Connect(ctx, c)
		defer cb.Called().Disconnect(ctx, c)

		cb.Call(ctx)
		if diff := cmp.Diff([]any{[]any{}}, got); diff != "" {
			t.Errorf("args mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEmitter(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter()
	defer e.Close()

	sig := e.AddSignal("loadStarted")
	if again := e.AddSignal("loadStarted"); again != sig {
		t.Error("expected AddSignal to return the existing signal")
	}
	cb := e.AddCallback("jsConfirmCallback")

	if s, ok := e.Signal("loadStarted"); !ok || s != sig {
		t.Error("expected registered signal")
	}
	if _, ok := e.Signal("missing"); ok {
		t.Error("expected missing signal lookup to fail")
	}
	if c, ok := e.NewCallback("jsConfirmCallback"); !ok || c != cb {
		t.Error("expected registered callback")
	}
	if _, ok := e.NewCallback("missing"); ok {
		t.Error("expected missing callback lookup to fail")
	}

	if err := e.Emit(ctx, "missing"); !errors.Is(err, signalprop.ErrSignalNotFound) {
		t.Errorf("expected ErrSignalNotFound, got %v", err)
	}
	if _, err := e.Call(ctx, "missing"); !errors.Is(err, signalprop.ErrCallbackNotFound) {
		t.Errorf("expected ErrCallbackNotFound, got %v", err)
	}
}

func TestEmitterWithBinders(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter()
	defer e.Close()
	e.AddSignal("loadFinished")
	e.AddSignal("javaScriptErrorSent")
	e.AddCallback("jsConfirmCallback")

	host := &signalprop.Properties{}
	store := signalprop.NewStore()

	onLoad, err := signalprop.BindSignal(host, "onLoadFinished", "loadFinished", store, e)
	if err != nil {
		t.Fatalf("BindSignal failed: %v", err)
	}
	onConfirm, err := signalprop.BindInvocation(host, "onConfirm", "jsConfirmCallback", store, e)
	if err != nil {
		t.Fatalf("BindInvocation failed: %v", err)
	}
	onError, err := signalprop.BindErrorSignal(host, "onError", "javaScriptErrorSent", store, e)
	if err != nil {
		t.Fatalf("BindErrorSignal failed: %v", err)
	}

	var status string
	onLoad.Set(ctx, func(_ context.Context, args ...any) error {
		status, _ = args[0].(string)
		return nil
	})
	if err := e.Emit(ctx, "loadFinished", "success"); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if status != "success" {
		t.Errorf("expected success, got %q", status)
	}

	onConfirm.Set(ctx, func(_ context.Context, args ...any) (any, error) {
		return len(args) == 1 && args[0] == "Leave page?", nil
	})
	v, err := e.Call(ctx, "jsConfirmCallback", "Leave page?")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if v != true {
		t.Errorf("expected true, got %v", v)
	}

	var gotMsg string
	var gotTrace []signalprop.Frame
	onError.Set(ctx, func(_ context.Context, msg string, trace []signalprop.Frame) error {
		gotMsg, gotTrace = msg, trace
		return nil
	})
	stack, err := signalprop.EncodeStack(nil, signalprop.WireFrame{URL: "app.js", LineNumber: 7, FunctionName: "init"})
	if err != nil {
		t.Fatalf("EncodeStack failed: %v", err)
	}
	if err := e.Emit(ctx, "javaScriptErrorSent", "ReferenceError", stack); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if gotMsg != "ReferenceError" {
		t.Errorf("expected ReferenceError, got %q", gotMsg)
	}
	want := []signalprop.Frame{{File: "app.js", Line: 7, Function: "init"}}
	if diff := cmp.Diff(want, gotTrace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}

	if err := host.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	for _, name := range []string{"loadFinished", "javaScriptErrorSent"} {
		s, _ := e.Signal(name)
		if n := s.(*Signal).Len(); n != 0 {
			t.Errorf("expected %s to have no connections, got %d", name, n)
		}
	}
}
