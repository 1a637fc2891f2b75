package api

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/conscreen/internal/console"
	plua "github.com/dshills/conscreen/internal/plugin/lua"
)

// mockConsole is a ConsoleProvider for testing.
type mockConsole struct {
	created bool
	size    console.Size
	geom    console.Geometry
	screen  string
	writes  []string

	createErr error
	infoErr   error
	writeErr  error
}

func newMockConsole() *mockConsole {
	return &mockConsole{
		size: console.Size{Width: 80, Height: 25},
		geom: console.Geometry{
			Width:  120,
			Height: 9001,
			Window: console.Rect{Right: 119, Bottom: 29},
		},
	}
}

func (m *mockConsole) CreateScreenBuffer() error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = true
	return nil
}

func (m *mockConsole) ScreenInfo() (console.Size, error) {
	if m.infoErr != nil {
		return console.Size{}, m.infoErr
	}
	if !m.created {
		return console.Size{}, console.ErrUninitialized
	}
	return m.size, nil
}

func (m *mockConsole) WriteOutputCharacter(text string) (string, error) {
	if !m.created {
		return "", console.ErrUninitialized
	}
	if m.writeErr != nil {
		return "", m.writeErr
	}
	m.writes = append(m.writes, text)
	if len(text) >= len(m.screen) {
		m.screen = text
	} else {
		m.screen = text + m.screen[len(text):]
	}
	return text, nil
}

func (m *mockConsole) Geometry() (console.Geometry, error) {
	if !m.created {
		return console.Geometry{}, console.ErrUninitialized
	}
	return m.geom, nil
}

func (m *mockConsole) ReadOutputCharacter(n int) (string, error) {
	if !m.created {
		return "", console.ErrUninitialized
	}
	s := m.screen + strings.Repeat(" ", n)
	return s[:n], nil
}

// newTestState returns a sandboxed state with the default registry
// injected and the console capability granted.
func newTestState(t testing.TB, mock *mockConsole) *lua.LState {
	t.Helper()

	state, err := plua.NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	t.Cleanup(func() { _ = state.Close() })

	state.Sandbox().Grant(plua.CapabilityConsole)

	reg, err := DefaultRegistry(&Context{Console: mock})
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	if skipped := reg.InjectAll(state.LuaState(), state.Sandbox()); len(skipped) != 0 {
		t.Fatalf("InjectAll skipped %v", skipped)
	}
	return state.LuaState()
}
