package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/conscreen/internal/plugin/api"
	plua "github.com/dshills/conscreen/internal/plugin/lua"
)

// Script describes a Lua program to host.
type Script struct {
	// Name identifies the script in logs and errors.
	// Defaults to the file name of Path.
	Name string

	// Path is a Lua file to run. Takes precedence over Code.
	Path string

	// Code is inline Lua source, used when Path is empty.
	Code string
}

// DisplayName returns Name, or a name derived from Path.
func (s Script) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Path != "" {
		return strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
	}
	return "inline"
}

// Host manages a single script's Lua state and lifecycle.
type Host struct {
	mu sync.RWMutex

	// Identity
	name   string
	script Script

	// Lua runtime
	state    *plua.State
	bridge   *plua.Bridge
	registry *api.Registry
	skipped  []string

	// State
	scriptState State
	err         error
	frames      uint64

	// Configuration
	config       map[string]any
	capabilities []plua.Capability
	printFunc    func(string)

	// Options
	executionTimeout time.Duration
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostExecutionTimeout sets the execution timeout for each script call.
func WithHostExecutionTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		h.executionTimeout = d
	}
}

// WithHostConfig sets the table passed to setup(config).
func WithHostConfig(config map[string]any) HostOption {
	return func(h *Host) {
		for k, v := range config {
			h.config[k] = v
		}
	}
}

// WithCapabilities grants capabilities to the script's sandbox.
func WithCapabilities(caps ...plua.Capability) HostOption {
	return func(h *Host) {
		h.capabilities = append(h.capabilities, caps...)
	}
}

// WithRegistry sets the API modules the script can require.
func WithRegistry(r *api.Registry) HostOption {
	return func(h *Host) {
		h.registry = r
	}
}

// WithPrintFunc routes the script's print calls to fn.
// The console belongs to the screen buffer while a script runs, so hosts
// usually send print output to the log.
func WithPrintFunc(fn func(string)) HostOption {
	return func(h *Host) {
		h.printFunc = fn
	}
}

// NewHost creates a new script host.
func NewHost(script Script, opts ...HostOption) (*Host, error) {
	if script.Path == "" && script.Code == "" {
		return nil, ErrNoSource
	}

	h := &Host{
		name:             script.DisplayName(),
		script:           script,
		scriptState:      StateUnloaded,
		config:           make(map[string]any),
		executionTimeout: plua.DefaultExecutionTimeout,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Name returns the script name.
func (h *Host) Name() string {
	return h.name
}

// Script returns the hosted script.
func (h *Host) Script() Script {
	return h.script
}

// State returns the current script state.
func (h *Host) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.scriptState
}

// Error returns the last error that occurred.
func (h *Host) Error() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Frames returns the number of ticks delivered since activation.
func (h *Host) Frames() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frames
}

// SkippedModules returns the API modules withheld for missing capabilities.
func (h *Host) SkippedModules() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.skipped...)
}

// Config returns a copy of the script configuration.
func (h *Host) Config() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	config := make(map[string]any, len(h.config))
	for k, v := range h.config {
		config[k] = v
	}
	return config
}

// Load creates the Lua state and runs the script's top-level code.
func (h *Host) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scriptState != StateUnloaded && h.scriptState != StateError {
		return ErrAlreadyLoaded
	}
	if h.state != nil {
		_ = h.state.Close()
		h.state = nil
	}

	state, err := plua.NewState(plua.WithExecutionTimeout(h.executionTimeout))
	if err != nil {
		h.fail(err)
		return err
	}

	h.state = state
	h.bridge = plua.NewBridge(state.LuaState())

	for _, c := range h.capabilities {
		state.Sandbox().Grant(c)
	}

	h.skipped = nil
	if h.registry != nil {
		h.skipped = h.registry.InjectAll(state.LuaState(), state.Sandbox())
	}

	if h.printFunc != nil {
		state.RegisterFunc("print", h.luaPrint)
	}

	if h.script.Path != "" {
		err = state.DoFile(ctx, h.script.Path)
	} else {
		err = state.DoString(ctx, h.script.Code)
	}
	if err != nil {
		_ = state.Close()
		h.state = nil
		h.bridge = nil
		h.fail(fmt.Errorf("failed to load script %s: %w", h.name, err))
		return h.err
	}

	h.scriptState = StateLoaded
	h.err = nil
	return nil
}

// luaPrint joins its arguments with tabs like the builtin print.
func (h *Host) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	h.printFunc(strings.Join(parts, "\t"))
	return 0
}

// Activate calls the script's setup and activate functions.
func (h *Host) Activate(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scriptState != StateLoaded {
		return ErrNotLoaded
	}

	h.scriptState = StateActivating

	// setup(config)
	if err := h.callOptional(ctx, "setup", h.bridge.ToLuaValue(h.config)); err != nil {
		h.fail(fmt.Errorf("script %s setup: %w", h.name, err))
		return h.err
	}

	if err := h.callOptional(ctx, "activate"); err != nil {
		h.fail(fmt.Errorf("script %s activate: %w", h.name, err))
		return h.err
	}

	h.scriptState = StateActive
	h.frames = 0
	h.err = nil
	return nil
}

// HasTick reports whether the script defines a tick function.
func (h *Host) HasTick() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state == nil {
		return false
	}
	return h.state.HasFunction("tick")
}

// Tick calls tick(elapsed) with the seconds since the previous frame.
// It reports whether the script wants more frames: false when tick
// returned false or the script has no tick function.
func (h *Host) Tick(ctx context.Context, elapsed time.Duration) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scriptState != StateActive {
		return false, ErrNotActive
	}

	results, err := h.state.Call(ctx, "tick", lua.LNumber(elapsed.Seconds()))
	if errors.Is(err, plua.ErrFunctionNotFound) {
		return false, nil
	}
	if err != nil {
		h.err = fmt.Errorf("script %s tick %d: %w", h.name, h.frames+1, err)
		return false, h.err
	}

	h.frames++
	if len(results) > 0 && results[0] == lua.LFalse {
		return false, nil
	}
	return true, nil
}

// Deactivate calls the script's deactivate function.
func (h *Host) Deactivate(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scriptState != StateActive {
		return nil
	}

	h.scriptState = StateDeactivating
	err := h.callOptional(ctx, "deactivate")
	h.scriptState = StateLoaded
	if err != nil {
		h.err = fmt.Errorf("script %s deactivate: %w", h.name, err)
		return h.err
	}
	return nil
}

// Unload closes the Lua state, deactivating first if needed.
func (h *Host) Unload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.scriptState == StateUnloaded {
		return nil
	}

	if h.scriptState == StateActive {
		h.scriptState = StateDeactivating
		_ = h.callOptional(ctx, "deactivate")
	}

	if h.state != nil {
		_ = h.state.Close()
		h.state = nil
	}

	h.bridge = nil
	h.skipped = nil
	h.scriptState = StateUnloaded
	h.err = nil
	return nil
}

// Reload unloads and reloads the script, reactivating it if it was active.
func (h *Host) Reload(ctx context.Context) error {
	wasActive := h.State() == StateActive

	if err := h.Unload(ctx); err != nil {
		return err
	}

	if err := h.Load(ctx); err != nil {
		return err
	}

	if wasActive {
		return h.Activate(ctx)
	}

	return nil
}

// Call calls a global Lua function in the script with Go arguments.
func (h *Host) Call(ctx context.Context, fn string, args ...any) ([]any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == nil {
		return nil, ErrNotLoaded
	}

	luaArgs := make([]lua.LValue, len(args))
	for i, arg := range args {
		luaArgs[i] = h.bridge.ToLuaValue(arg)
	}

	results, err := h.state.Call(ctx, fn, luaArgs...)
	if err != nil {
		return nil, err
	}

	goResults := make([]any, len(results))
	for i, result := range results {
		goResults[i] = h.bridge.ToGoValue(result)
	}
	return goResults, nil
}

// GetGlobal returns a global variable converted to Go.
func (h *Host) GetGlobal(name string) any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state == nil {
		return nil
	}
	return h.bridge.ToGoValue(h.state.GetGlobal(name))
}

// Stats returns runtime statistics for the script.
func (h *Host) Stats() HostStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return HostStats{
		Name:     h.name,
		State:    h.scriptState,
		Frames:   h.frames,
		Skipped:  len(h.skipped),
		HasError: h.err != nil,
	}
}

// HostStats contains runtime statistics for a script host.
type HostStats struct {
	Name     string
	State    State
	Frames   uint64
	Skipped  int
	HasError bool
}

// callOptional calls fn if the script defines it. Must hold mu.
func (h *Host) callOptional(ctx context.Context, fn string, args ...lua.LValue) error {
	if !h.state.HasFunction(fn) {
		return nil
	}
	_, err := h.state.Call(ctx, fn, args...)
	return err
}

// fail records err and moves to StateError. Must hold mu.
func (h *Host) fail(err error) {
	h.scriptState = StateError
	h.err = err
}
