package api

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/conscreen/internal/console"
	plua "github.com/dshills/conscreen/internal/plugin/lua"
)

// ConsoleModule implements the console API module.
//
// Every function returns its result on success and nil, message, kind on
// failure, where kind is one of the module's error constants.
type ConsoleModule struct {
	ctx *Context
}

// NewConsoleModule creates a new console module.
func NewConsoleModule(ctx *Context) *ConsoleModule {
	return &ConsoleModule{ctx: ctx}
}

// Name returns the module name.
func (m *ConsoleModule) Name() string {
	return "console"
}

// RequiredCapability returns the capability required for this module.
func (m *ConsoleModule) RequiredCapability() plua.Capability {
	return plua.CapabilityConsole
}

// Loader builds the module table.
func (m *ConsoleModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "create_screen_buffer", L.NewFunction(m.createScreenBuffer))
	L.SetField(mod, "get_screen_info", L.NewFunction(m.getScreenInfo))
	L.SetField(mod, "write_output_character", L.NewFunction(m.writeOutputCharacter))
	L.SetField(mod, "get_screen_geometry", L.NewFunction(m.getScreenGeometry))
	L.SetField(mod, "read_output_character", L.NewFunction(m.readOutputCharacter))

	// Error kind constants
	L.SetField(mod, "UNINITIALIZED", lua.LString(console.KindUninitialized))
	L.SetField(mod, "CREATE", lua.LString(console.KindCreate))
	L.SetField(mod, "OS", lua.LString(console.KindOS))
	L.SetField(mod, "ENCODING", lua.LString(console.KindEncoding))
	L.SetField(mod, "RANGE", lua.LString(console.KindRange))
	L.SetField(mod, "UNSUPPORTED", lua.LString(console.KindUnsupported))

	L.Push(mod)
	return 1
}

// fail pushes the nil, message, kind triple.
func fail(L *lua.LState, err error) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(err.Error()))
	L.Push(lua.LString(console.Kind(err)))
	return 3
}

// provider returns the console provider, raising a Lua error when the
// host did not configure one.
func (m *ConsoleModule) provider(L *lua.LState) ConsoleProvider {
	if m.ctx == nil || m.ctx.Console == nil {
		L.RaiseError("console: no console provider configured")
		return nil
	}
	return m.ctx.Console
}

// create_screen_buffer() -> true | nil, message, kind
func (m *ConsoleModule) createScreenBuffer(L *lua.LState) int {
	c := m.provider(L)
	if err := c.CreateScreenBuffer(); err != nil {
		return fail(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// get_screen_info() -> {width, height} | nil, message, kind
func (m *ConsoleModule) getScreenInfo(L *lua.LState) int {
	c := m.provider(L)
	size, err := c.ScreenInfo()
	if err != nil {
		return fail(L, err)
	}
	L.Push(plua.NewBridge(L).ToLuaValue(size))
	return 1
}

// write_output_character(text) -> text | nil, message, kind
func (m *ConsoleModule) writeOutputCharacter(L *lua.LState) int {
	text := L.CheckString(1)
	c := m.provider(L)
	echoed, err := c.WriteOutputCharacter(text)
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LString(echoed))
	return 1
}

// get_screen_geometry() -> {width, height, cursor_x, cursor_y, window} | nil, message, kind
func (m *ConsoleModule) getScreenGeometry(L *lua.LState) int {
	c := m.provider(L)
	g, err := c.Geometry()
	if err != nil {
		return fail(L, err)
	}
	L.Push(plua.NewBridge(L).ToLuaValue(g))
	return 1
}

// read_output_character(n) -> string | nil, message, kind
func (m *ConsoleModule) readOutputCharacter(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 0 {
		L.ArgError(1, "count cannot be negative")
		return 0
	}
	c := m.provider(L)
	text, err := c.ReadOutputCharacter(n)
	if err != nil {
		return fail(L, err)
	}
	L.Push(lua.LString(text))
	return 1
}
