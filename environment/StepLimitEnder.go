package environment

import "github.com/landerlab/golander/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. An episode cut
// short by the step limit is marked Truncated rather than Terminal
// since the final state is not an absorbing state of the environment,
// and its successor remains a legitimate bootstrapping target.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number >= s.episodeSteps && !t.Terminated() {
		t.StepType = timestep.Truncated
		return true
	}
	return false
}
