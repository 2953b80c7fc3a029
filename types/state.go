package types

// SelectorState represents the lifecycle state of a migration selector.
//
// A selector is constructed for a single balancing pass and moves through:
//
//	SelectorIdle → SelectorRunning → SelectorDone
//
// SelectorDone is terminal, both after the last round and after a fatal error.
type SelectorState int

const (
	// SelectorIdle is the state of a freshly constructed selector.
	SelectorIdle SelectorState = iota

	// SelectorRunning indicates selection rounds are in progress.
	SelectorRunning

	// SelectorDone indicates the run finished and the plan was handed out.
	SelectorDone
)

// String returns the string representation of the state.
func (s SelectorState) String() string {
	switch s {
	case SelectorIdle:
		return "Idle"
	case SelectorRunning:
		return "Running"
	case SelectorDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s SelectorState) CanTransitionTo(next SelectorState) bool {
	switch s {
	case SelectorIdle:
		return next == SelectorRunning || next == SelectorDone
	case SelectorRunning:
		return next == SelectorDone
	default:
		return false
	}
}
