package jobs

import "errors"

// State is the lifecycle stage of a Job.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// ErrInvalidTransition is returned when a state change would move a job
// backwards, skip running, or leave a terminal state.
var ErrInvalidTransition = errors.New("invalid job state transition")

var allStates = []State{StateIdle, StateRunning, StateSucceeded, StateFailed}

// AllStates returns the ordered list of job states.
func AllStates() []State {
	return append([]State(nil), allStates...)
}

// IsTerminal reports whether no further transition can occur.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

func (s State) canTransitionTo(next State) bool {
	switch s {
	case StateIdle:
		return next == StateRunning
	case StateRunning:
		return next == StateSucceeded || next == StateFailed
	default:
		return false
	}
}
