// Package script embeds a Lua runtime so operators can hook server events
// the same way the original BeamMP server's TLuaEngine did, without
// requiring a Go rebuild. It is the one component whose backing library
// does not come from the retrieved example pack — see DESIGN.md for why.
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Bridge implements dispatch.ScriptBridge over a single embedded Lua
// state. gopher-lua states are not safe for concurrent use, so every call
// into the runtime — loading scripts or firing an event — is serialized
// behind mu.
type Bridge struct {
	mu      sync.Mutex
	state   *lua.LState
	logger  *zap.Logger
	handler map[string][]string // event name -> registered Lua function names
}

// New creates a Bridge with a fresh Lua state and exposes the
// RegisterEvent(name, functionName) host function scripts use to
// subscribe to dispatcher events.
func New(logger *zap.Logger) *Bridge {
	b := &Bridge{
		state:   lua.NewState(),
		logger:  logger.Named("script"),
		handler: make(map[string][]string),
	}
	b.state.SetGlobal("RegisterEvent", b.state.NewFunction(b.registerEvent))
	return b
}

// Close releases the underlying Lua state.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Close()
}

// registerEvent is the Lua-callable RegisterEvent(name, functionName).
func (b *Bridge) registerEvent(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckString(2)
	b.handler[name] = append(b.handler[name], fn)
	return 0
}

// LoadDir evaluates every ".lua" file directly inside dir (non-recursive,
// matching the original server's flat per-resource script layout). A
// script that fails to parse is logged and skipped rather than aborting
// the whole load.
func (b *Bridge) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("script: read scripts dir: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := b.state.DoFile(path); err != nil {
			b.logger.Error("failed to load script", zap.String("path", path), zap.Error(err))
			continue
		}
	}
	return nil
}

// TriggerEvent fires every handler registered for name. When wait is
// true, handlers run synchronously and the first non-zero return value
// vetoes the action (spec.md §6's ScriptBridge contract); when wait is
// false the return value is never consulted and errors are merely logged.
func (b *Bridge) TriggerEvent(name string, args []any, wait bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	fns := b.handler[name]
	result := 0
	for _, fnName := range fns {
		fn := b.state.GetGlobal(fnName)
		if fn == lua.LNil {
			b.logger.Warn("registered handler not found", zap.String("event", name), zap.String("function", fnName))
			continue
		}

		lArgs := make([]lua.LValue, 0, len(args))
		for _, a := range args {
			lArgs = append(lArgs, toLua(a))
		}

		if err := b.state.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, lArgs...); err != nil {
			b.logger.Error("event handler error", zap.String("event", name), zap.Error(err))
			continue
		}
		ret := b.state.Get(-1)
		b.state.Pop(1)

		if !wait {
			continue
		}
		if n, ok := ret.(lua.LNumber); ok && int(n) != 0 {
			result = int(n)
		}
	}
	return result
}

// toLua converts the limited set of argument types the dispatcher passes
// (uint32 client ids, ints, strings) into Lua values.
func toLua(v any) lua.LValue {
	switch t := v.(type) {
	case string:
		return lua.LString(t)
	case uint32:
		return lua.LNumber(t)
	case int:
		return lua.LNumber(t)
	default:
		return lua.LNil
	}
}
