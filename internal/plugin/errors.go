package plugin

import "errors"

// Script host errors.
var (
	// ErrScriptNotFound is returned when a script cannot be located.
	ErrScriptNotFound = errors.New("script not found")

	// ErrNoSource is returned when a script has neither a path nor inline code.
	ErrNoSource = errors.New("script has no source (path or code)")

	// ErrAlreadyLoaded is returned when attempting to load an already loaded script.
	ErrAlreadyLoaded = errors.New("script is already loaded")

	// ErrNotLoaded is returned when attempting to use an unloaded script.
	ErrNotLoaded = errors.New("script is not loaded")

	// ErrNotActive is returned when ticking a script that was not activated.
	ErrNotActive = errors.New("script is not active")
)
