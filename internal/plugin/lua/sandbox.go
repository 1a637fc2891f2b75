package lua

import (
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Capability represents a permission that can be granted to scripts.
type Capability string

// Available capabilities.
const (
	// CapabilityConsole grants the console module (screen buffer access).
	CapabilityConsole Capability = "console"

	// CapabilityUnsafe grants full Lua stdlib access (io, os, debug).
	CapabilityUnsafe Capability = "unsafe"
)

// CapabilityError is returned when a script lacks a capability.
type CapabilityError struct {
	Capability Capability
	Operation  string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %q required for %s", e.Capability, e.Operation)
}

// Sandbox restricts Lua execution to safe operations.
type Sandbox struct {
	L *lua.LState

	mu           sync.RWMutex
	capabilities map[Capability]bool
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{
		L:            L,
		capabilities: make(map[Capability]bool),
	}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	dangerousFuncs := []string{
		"dofile",
		"loadfile",
		"load",
		"loadstring",
		"module",
	}

	for _, name := range dangerousFuncs {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installSafeRequire()
}

// installSafeRequire replaces require with a version that only loads
// built-in libraries and modules the host preloaded.
//
// package.path and package.cpath are cleared so nothing is read from disk.
func (s *Sandbox) installSafeRequire() {
	pkg, ok := s.L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	s.L.SetField(pkg, "path", lua.LString(""))
	s.L.SetField(pkg, "cpath", lua.LString(""))

	safeModules := map[string]bool{
		"string": true,
		"table":  true,
		"math":   true,
	}

	originalRequire := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		allowed := safeModules[modName] || s.isPreloaded(L, modName)
		if !allowed && s.HasCapability(CapabilityUnsafe) {
			allowed = true
		}
		if !allowed {
			L.RaiseError("module %q is not available", modName)
			return 0
		}

		L.Push(originalRequire)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}

// isPreloaded reports whether the host registered modName via PreloadModule.
func (s *Sandbox) isPreloaded(L *lua.LState, modName string) bool {
	pkg, ok := L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return false
	}
	preload, ok := L.GetField(pkg, "preload").(*lua.LTable)
	if !ok {
		return false
	}
	return preload.RawGetString(modName) != lua.LNil
}

// Grant enables a capability.
func (s *Sandbox) Grant(cap Capability) {
	s.mu.Lock()
	s.capabilities[cap] = true
	s.mu.Unlock()

	if cap == CapabilityUnsafe {
		s.injectUnsafeLibraries()
	}
}

// Revoke disables a capability.
// Modules already injected stay reachable until the state is reset.
func (s *Sandbox) Revoke(cap Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.capabilities, cap)
}

// HasCapability returns true if the capability is granted.
func (s *Sandbox) HasCapability(cap Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capabilities[cap]
}

// Capabilities returns all granted capabilities, sorted.
func (s *Sandbox) Capabilities() []Capability {
	s.mu.RLock()
	defer s.mu.RUnlock()

	caps := make([]Capability, 0, len(s.capabilities))
	for cap, granted := range s.capabilities {
		if granted {
			caps = append(caps, cap)
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// CheckCapability returns a *CapabilityError when cap is not granted.
func (s *Sandbox) CheckCapability(cap Capability, operation string) error {
	if s.HasCapability(cap) {
		return nil
	}
	return &CapabilityError{Capability: cap, Operation: operation}
}

// injectUnsafeLibraries opens the libraries the sandbox keeps closed.
func (s *Sandbox) injectUnsafeLibraries() {
	for _, open := range []lua.LGFunction{lua.OpenIo, lua.OpenOs, lua.OpenDebug} {
		s.L.Push(s.L.NewFunction(open))
		s.L.Call(0, 0)
	}
}
