// Package lua provides the Lua runtime that hosts console scripts.
//
// This package wraps the gopher-lua library to provide:
//   - Sandboxed Lua state management
//   - Go-Lua type conversion bridge
//   - Capability-gated module loading
//   - Per-call execution timeouts
//
// # State
//
// The State type manages a Lua runtime with sandboxing:
//
//	state, err := lua.NewState(
//	    lua.WithExecutionTimeout(time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
//	if err := state.DoFile(ctx, "frame.lua"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Sandbox
//
// The Sandbox restricts Lua code execution by:
//   - Removing dangerous functions (dofile, loadfile, load)
//   - Leaving io, os and debug closed
//   - Letting require load only built-in libraries and host-preloaded modules
//   - Enforcing capability requirements on host modules
//
// # Bridge
//
// The Bridge converts values in both directions. Structs become tables
// keyed by their json tags:
//
//	bridge := lua.NewBridge(state.LuaState())
//	tbl := bridge.ToLuaValue(console.Size{Width: 80, Height: 25})
//	// tbl.width == 80, tbl.height == 25
package lua
