// Package plugin hosts Lua scripts that draw on a console screen buffer.
//
// A script is a single Lua file (or inline source) run in a sandboxed
// gopher-lua state. The host preloads the API modules from an api.Registry
// for which the script holds capabilities, so a script only reaches the
// console when the host grants plua.CapabilityConsole.
//
// # Lifecycle
//
// A Host moves through these states:
//
//	Unloaded -> Loaded -> Activating -> Active -> Deactivating -> Loaded
//
// Load runs the script's top-level code. Activate calls the optional
// global functions setup(config) and activate(). While active, the frame
// loop calls Tick, which invokes tick(elapsed) with the seconds since the
// previous frame. Returning false from tick ends the loop; a script without
// tick runs once. Deactivate calls deactivate() and Unload closes the state.
//
//	function setup(config)
//	    interval = config.frame_interval
//	end
//
//	function activate()
//	    console.create_screen_buffer()
//	end
//
//	function tick(dt)
//	    console.write_output_character(render(dt))
//	end
//
// # Finding scripts
//
// Loader resolves a script argument either as a file path or as a name
// looked up in its search paths, where name.lua and name/init.lua both
// match. The first search path that has a match wins.
package plugin
