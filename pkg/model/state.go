package model

// RunState represents the lifecycle state of a Run.
type RunState string

const (
	RunStateQueued         RunState = "queued"
	RunStateRunning        RunState = "running"
	RunStateComputing      RunState = "computing"
	RunStatePostprocessing RunState = "postprocessing"
	RunStateSucceeded      RunState = "succeeded"
	RunStateFailed         RunState = "failed"
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	return string(s)
}

// IsTerminal returns true if the run is in a final state.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateSucceeded, RunStateFailed:
		return true
	}
	return false
}

// ValidRunTransitions defines the allowed state transitions for Runs.
// The lifecycle is strictly forward: no skipping, no backward transition.
var ValidRunTransitions = map[RunState][]RunState{
	RunStateQueued:         {RunStateRunning},
	RunStateRunning:        {RunStateComputing},
	RunStateComputing:      {RunStatePostprocessing},
	RunStatePostprocessing: {RunStateSucceeded, RunStateFailed},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s RunState) CanTransitionTo(next RunState) bool {
	for _, allowed := range ValidRunTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RunStages lists the stages of a successful run in the order they occur.
var RunStages = []RunState{
	RunStateQueued,
	RunStateRunning,
	RunStateComputing,
	RunStatePostprocessing,
	RunStateSucceeded,
}
