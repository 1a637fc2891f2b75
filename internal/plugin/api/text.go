package api

import (
	"strings"

	"github.com/rivo/uniseg"
	lua "github.com/yuin/gopher-lua"

	plua "github.com/dshills/conscreen/internal/plugin/lua"
)

// TextModule implements the text API module: string helpers measured in
// terminal cells rather than bytes.
type TextModule struct{}

// NewTextModule creates a new text module.
func NewTextModule() *TextModule {
	return &TextModule{}
}

// Name returns the module name.
func (m *TextModule) Name() string {
	return "text"
}

// RequiredCapability returns the capability required for this module.
// Text helpers require no special capability.
func (m *TextModule) RequiredCapability() plua.Capability {
	return ""
}

// Loader builds the module table.
func (m *TextModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "width", L.NewFunction(m.width))
	L.SetField(mod, "pad", L.NewFunction(m.pad))
	L.SetField(mod, "truncate", L.NewFunction(m.truncate))
	L.SetField(mod, "fit", L.NewFunction(m.fit))
	L.SetField(mod, "repeat_to", L.NewFunction(m.repeatTo))

	L.Push(mod)
	return 1
}

// Width returns the display width of s in cells.
func Width(s string) int {
	return uniseg.StringWidth(s)
}

// Truncate cuts s to at most width cells without splitting a grapheme.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	return b.String()
}

// Pad right-pads s with spaces to width cells. Longer strings are returned unchanged.
func Pad(s string, width int) string {
	if w := Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// width(str) -> number
func (m *TextModule) width(L *lua.LState) int {
	L.Push(lua.LNumber(Width(L.CheckString(1))))
	return 1
}

// pad(str, width) -> string
func (m *TextModule) pad(L *lua.LState) int {
	L.Push(lua.LString(Pad(L.CheckString(1), L.CheckInt(2))))
	return 1
}

// truncate(str, width) -> string
func (m *TextModule) truncate(L *lua.LState) int {
	L.Push(lua.LString(Truncate(L.CheckString(1), L.CheckInt(2))))
	return 1
}

// fit(str, width) -> string
// Truncates or pads so the result is exactly width cells when possible.
func (m *TextModule) fit(L *lua.LState) int {
	width := L.CheckInt(2)
	L.Push(lua.LString(Pad(Truncate(L.CheckString(1), width), width)))
	return 1
}

// repeat_to(str, width) -> string
// Repeats str until the result is width cells, cutting the last copy.
func (m *TextModule) repeatTo(L *lua.LState) int {
	s := L.CheckString(1)
	width := L.CheckInt(2)
	w := Width(s)
	if w == 0 || width <= 0 {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(Truncate(strings.Repeat(s, width/w+1), width)))
	return 1
}
