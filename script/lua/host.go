// Package lua exposes bound properties to gopher-lua scripts.
//
// A Host turns a signalprop.Properties set into a Lua table whose fields are
// the properties:
//
//	host := lua.New(L, page.Properties, store)
//	host.SetGlobal("page")
//	err := host.DoString(ctx, `
//	    page.onLoadFinished = function(status) print(status) end
//	    page.onError = function(msg, trace) print(msg, trace[1].file) end
//	`)
//
// Assigning a Lua function subscribes it; assigning nil (or any non-function)
// unsubscribes. Reading a field returns the Lua function last assigned from
// the script, or a Lua wrapper around a callback assigned from Go.
//
// An LState is not safe for concurrent use. The Host serializes every entry
// into Lua, including connectors fired from other goroutines, so a connector
// must not fire synchronously from inside DoString.
package lua

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rbaliyan/signalprop"
	lua "github.com/yuin/gopher-lua"
)

// Host exposes properties to one Lua state.
type Host struct {
	L      *lua.LState
	props  *signalprop.Properties
	store  *signalprop.Store
	logger *slog.Logger
	strict bool

	mu      sync.Mutex
	table   *lua.LTable
	scripts map[string]scriptFunc
}

// scriptFunc remembers the Lua function behind a handler so reads return it.
type scriptFunc struct {
	fn        *lua.LFunction
	connector *signalprop.Connector
}

// New creates a Host for L. store must be the store the properties were
// bound with.
func New(L *lua.LState, props *signalprop.Properties, store *signalprop.Store, opts ...Option) *Host {
	o := newOptions(opts...)
	h := &Host{
		L:       L,
		props:   props,
		store:   store,
		logger:  o.logger,
		strict:  o.strict,
		scripts: make(map[string]scriptFunc),
	}
	h.table = h.newTable()
	return h
}

// Table returns the Lua table fronting the properties.
func (h *Host) Table() *lua.LTable {
	return h.table
}

// SetGlobal exposes the property table as the global name.
func (h *Host) SetGlobal(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.L.SetGlobal(name, h.table)
}

// DoString runs a script. ctx is visible to callbacks the script assigns
// while it runs and cancels the script when done.
func (h *Host) DoString(ctx context.Context, source string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()
	return h.L.DoString(source)
}

func (h *Host) newTable() *lua.LTable {
	t := h.L.NewTable()
	mt := h.L.NewTable()
	mt.RawSetString("__index", h.L.NewFunction(h.index))
	mt.RawSetString("__newindex", h.L.NewFunction(h.newIndex))
	h.L.SetMetatable(t, mt)
	return t
}

// index implements t[key]. Fields are never stored in the table itself, so
// every access goes through the metatable.
func (h *Host) index(L *lua.LState) int {
	name := L.CheckString(2)
	a, ok := h.props.Property(name)
	if !ok {
		if h.strict {
			L.RaiseError("%v: %q", ErrUnknownProperty, name)
			return 0
		}
		L.Push(lua.LNil)
		return 1
	}
	L.Push(h.read(L, name, a))
	return 1
}

// newIndex implements t[key] = value.
func (h *Host) newIndex(L *lua.LState) int {
	name := L.CheckString(2)
	value := L.Get(3)
	a, ok := h.props.Property(name)
	if !ok {
		L.RaiseError("%v: %q", ErrUnknownProperty, name)
		return 0
	}
	if err := h.assign(h.context(L), name, a, value); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (h *Host) context(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (h *Host) read(L *lua.LState, name string, a signalprop.Accessor) lua.LValue {
	v := a.Value()
	if v == nil {
		return lua.LNil
	}
	if sf, ok := h.scripts[name]; ok && h.current(name) == sf.connector {
		return sf.fn
	}
	return h.wrapGo(L, v)
}

// current returns the connector registered for name, or nil.
func (h *Host) current(name string) *signalprop.Connector {
	if rec := h.store.Load(name); rec != nil {
		return rec.Connector()
	}
	return nil
}

func (h *Host) assign(ctx context.Context, name string, a signalprop.Accessor, value lua.LValue) error {
	delete(h.scripts, name)

	fn, ok := value.(*lua.LFunction)
	if !ok {
		return a.SetValue(ctx, nil)
	}

	callback, err := h.callback(fn, a.Kind())
	if err != nil {
		return err
	}
	if err := a.SetValue(ctx, callback); err != nil {
		return err
	}
	h.scripts[name] = scriptFunc{fn: fn, connector: h.current(name)}
	h.logger.Debug("script assigned property", "property", name, "kind", a.Kind().String())
	return nil
}

// callback adapts fn to the callback type of kind.
func (h *Host) callback(fn *lua.LFunction, kind signalprop.WrapKind) (any, error) {
	switch kind {
	case signalprop.KindSignal:
		return signalprop.Slot(func(ctx context.Context, args ...any) error {
			_, err := h.call(ctx, fn, 0, args...)
			return err
		}), nil
	case signalprop.KindInvocation:
		return signalprop.InvokeFunc(func(ctx context.Context, args ...any) (any, error) {
			ret, err := h.call(ctx, fn, 1, args...)
			if err != nil {
				return nil, err
			}
			return toGoValue(ret[0]), nil
		}), nil
	case signalprop.KindErrorSignal:
		return signalprop.ErrorFunc(func(ctx context.Context, message string, trace []signalprop.Frame) error {
			_, err := h.call(ctx, fn, 0, message, trace)
			return err
		}), nil
	default:
		return nil, fmt.Errorf("unsupported property kind %s", kind)
	}
}

// call runs fn with args, holding the host lock, and returns nret results.
func (h *Host) call(ctx context.Context, fn *lua.LFunction, nret int, args ...any) ([]lua.LValue, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	L := h.L
	if ctx != nil {
		L.SetContext(ctx)
		defer L.RemoveContext()
	}

	largs := make([]lua.LValue, len(args))
	for i, arg := range args {
		largs[i] = toLuaValue(L, arg)
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, largs...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptFailed, err)
	}
	ret := make([]lua.LValue, nret)
	for i := nret; i > 0; i-- {
		ret[i-1] = L.Get(-1)
		L.Pop(1)
	}
	return ret, nil
}

// wrapGo exposes a callback assigned from Go as a Lua function.
func (h *Host) wrapGo(L *lua.LState, v any) lua.LValue {
	switch cb := v.(type) {
	case signalprop.Slot:
		return L.NewFunction(func(L *lua.LState) int {
			if err := cb(h.context(L), luaArgs(L, 1)...); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		})
	case signalprop.InvokeFunc:
		return L.NewFunction(func(L *lua.LState) int {
			ret, err := cb(h.context(L), luaArgs(L, 1)...)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(toLuaValue(L, ret))
			return 1
		})
	case signalprop.ErrorFunc:
		return L.NewFunction(func(L *lua.LState) int {
			msg := L.OptString(1, "")
			trace := tableToFrames(L.OptTable(2, nil))
			if err := cb(h.context(L), msg, trace); err != nil {
				L.RaiseError("%s", err.Error())
			}
			return 0
		})
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// luaArgs converts the stack values from index from to the top.
func luaArgs(L *lua.LState, from int) []any {
	top := L.GetTop()
	if top < from {
		return nil
	}
	args := make([]any, 0, top-from+1)
	for i := from; i <= top; i++ {
		args = append(args, toGoValue(L.Get(i)))
	}
	return args
}
