package plugin

// State represents the lifecycle state of a script.
type State int

// Script states.
const (
	// StateUnloaded - Script is not loaded.
	StateUnloaded State = iota

	// StateLoaded - Script code has run but setup/activate have not.
	StateLoaded

	// StateActivating - setup and activate are running.
	StateActivating

	// StateActive - Script is receiving ticks.
	StateActive

	// StateDeactivating - deactivate is running.
	StateDeactivating

	// StateError - Loading or activation failed.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateDeactivating:
		return "deactivating"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
