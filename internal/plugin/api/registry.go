package api

import (
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/conscreen/internal/console"
	plua "github.com/dshills/conscreen/internal/plugin/lua"
)

// Module represents a Lua API module that scripts load with require.
type Module interface {
	// Name returns the module name scripts pass to require.
	Name() string

	// RequiredCapability returns the capability required to use this module.
	// Returns empty string if no capability is required.
	RequiredCapability() plua.Capability

	// Loader builds the module table. It runs on the first require.
	Loader(L *lua.LState) int
}

// Registry manages API modules and their registration.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates a new API registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// Register adds a module to the registry.
func (r *Registry) Register(mod Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[mod.Name()]; exists {
		return fmt.Errorf("module %q already registered", mod.Name())
	}

	r.modules[mod.Name()] = mod
	return nil
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mod, ok := r.modules[name]
	return mod, ok
}

// List returns all registered module names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

// InjectAll preloads every module the sandbox has the capability for.
// Modules that need a missing capability are skipped and named in the
// returned slice. A nil sandbox only admits modules without requirements.
func (r *Registry) InjectAll(L *lua.LState, sandbox *plua.Sandbox) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var skipped []string
	for _, name := range r.sortedNames() {
		mod := r.modules[name]
		if reqCap := mod.RequiredCapability(); reqCap != "" {
			if sandbox == nil || !sandbox.HasCapability(reqCap) {
				skipped = append(skipped, name)
				continue
			}
		}
		L.PreloadModule(name, mod.Loader)
	}
	return skipped
}

// sortedNames must be called with mu held.
func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry creates a registry with the console and text modules.
func DefaultRegistry(ctx *Context) (*Registry, error) {
	r := NewRegistry()

	modules := []Module{
		NewConsoleModule(ctx),
		NewTextModule(),
	}

	for _, mod := range modules {
		if err := r.Register(mod); err != nil {
			return nil, fmt.Errorf("failed to register module %q: %w", mod.Name(), err)
		}
	}

	return r, nil
}

// Context provides API modules with access to host services.
type Context struct {
	// Console performs screen buffer operations.
	// Usually a *console.Adapter.
	Console ConsoleProvider
}

// ConsoleProvider defines the screen buffer operations scripts can call.
type ConsoleProvider interface {
	// CreateScreenBuffer creates and activates a new screen buffer.
	CreateScreenBuffer() error

	// ScreenInfo returns the buffer size narrowed to 8 bits.
	ScreenInfo() (console.Size, error)

	// WriteOutputCharacter writes text at the origin and echoes it.
	WriteOutputCharacter(text string) (string, error)

	// Geometry returns the full-width buffer layout.
	Geometry() (console.Geometry, error)

	// ReadOutputCharacter reads n cells from the origin.
	ReadOutputCharacter(n int) (string, error)
}
