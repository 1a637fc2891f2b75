// Package api provides the Lua API modules exposed to console scripts.
//
// Scripts reach host functionality through modules loaded with require:
//
//   - console: screen buffer operations (create, query, write, read back)
//   - text: cell-width string helpers for laying out rows
//
// # Architecture
//
// Each API module implements the Module interface:
//
//	type Module interface {
//	    Name() string
//	    RequiredCapability() plua.Capability
//	    Loader(L *lua.LState) int
//	}
//
// Modules are registered into a Registry, which preloads them into a Lua
// state. A module is only preloaded when the state's sandbox holds the
// capability it requires, so an ungranted require fails the same way as an
// unknown module.
//
// # Errors
//
// Console functions never raise for runtime failures. They return
// nil, message, kind where kind is one of console.UNINITIALIZED,
// console.CREATE, console.OS, console.ENCODING, console.RANGE or
// console.UNSUPPORTED:
//
//	local console = require("console")
//	local ok, msg, kind = console.create_screen_buffer()
//	if not ok then
//	    error(kind .. ": " .. msg)
//	end
//	console.write_output_character("hello")
//
// Argument errors (a non-string text, a negative count) raise as usual.
//
// # Context
//
// The Context struct carries host services into the modules:
//
//	ctx := &api.Context{
//	    Console: adapter, // *console.Adapter satisfies ConsoleProvider
//	}
//	registry, err := api.DefaultRegistry(ctx)
package api
