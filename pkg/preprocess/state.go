package preprocess

// State is a step of a preprocessing run
type State string

// Run states. Terminal states are SKIPPED, DISABLED, DONE and PROCESS_EXIT.
const (
	StateReady            State = "READY"
	StateSkipped          State = "SKIPPED"
	StatePluginLoadFailed State = "PLUGIN_LOAD_FAILED"
	StateDisabled         State = "DISABLED"
	StateValidating       State = "VALIDATING"
	StateValidationFailed State = "VALIDATION_FAILED"
	StateSelectingFiles   State = "SELECTING_FILES"
	StateCompiling        State = "COMPILING"
	StateDone             State = "DONE"
	StateProcessExit      State = "PROCESS_EXIT"
)

// Terminal reports whether a run ends in s
func (s State) Terminal() bool {
	switch s {
	case StateSkipped, StateDisabled, StateDone, StateProcessExit:
		return true
	}
	return false
}

// Fatal reports whether s means the host must not continue booting
func (s State) Fatal() bool {
	return s == StateProcessExit
}
