package lua

import (
	"fmt"
	"reflect"

	"github.com/rbaliyan/signalprop"
	lua "github.com/yuin/gopher-lua"
)

// toGoValue converts a Lua value to a Go value.
func toGoValue(lv lua.LValue) any {
	return toGoValueWithVisited(lv, make(map[*lua.LTable]bool))
}

func toGoValueWithVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case nil:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		// nil, functions and threads have no Go form
		return nil
	}
}

// tableToGo converts a sequence to []any and anything else to map[string]any.
func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoValueWithVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = toGoValueWithVisited(v, visited)
	})
	return m
}

// toLuaValue converts a Go value to a Lua value.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		t := L.NewTable()
		for i, e := range val {
			t.RawSetInt(i+1, toLuaValue(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, e := range val {
			t.RawSetString(k, toLuaValue(L, e))
		}
		return t
	case []signalprop.Frame:
		return framesToTable(L, val)
	}
	return reflectToLua(L, v)
}

func reflectToLua(L *lua.LState, v any) lua.LValue {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Float32:
		return lua.LNumber(rv.Float())
	case reflect.Slice, reflect.Array:
		t := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, toLuaValue(L, rv.Index(i).Interface()))
		}
		return t
	case reflect.Map:
		t := L.NewTable()
		for _, key := range rv.MapKeys() {
			t.RawSet(toLuaValue(L, key.Interface()), toLuaValue(L, rv.MapIndex(key).Interface()))
		}
		return t
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// framesToTable converts a stack trace to a sequence of
// {file=..., line=..., ["function"]=...} tables.
func framesToTable(L *lua.LState, frames []signalprop.Frame) *lua.LTable {
	t := L.NewTable()
	for i, f := range frames {
		ft := L.NewTable()
		ft.RawSetString("file", lua.LString(f.File))
		ft.RawSetString("line", lua.LNumber(f.Line))
		ft.RawSetString("function", lua.LString(f.Function))
		t.RawSetInt(i+1, ft)
	}
	return t
}

// tableToFrames is the inverse of framesToTable. Non-table entries are skipped.
func tableToFrames(t *lua.LTable) []signalprop.Frame {
	if t == nil {
		return nil
	}
	frames := make([]signalprop.Frame, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		ft, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			continue
		}
		f := signalprop.Frame{}
		if s, ok := ft.RawGetString("file").(lua.LString); ok {
			f.File = string(s)
		}
		if n, ok := ft.RawGetString("line").(lua.LNumber); ok {
			f.Line = int(n)
		}
		if s, ok := ft.RawGetString("function").(lua.LString); ok {
			f.Function = string(s)
		}
		frames = append(frames, f)
	}
	return frames
}
