// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be: the first
// environmental step, a middle step, or one of the two kinds of final
// steps. Terminal steps are final steps reached by the environment
// dynamics themselves. Truncated steps are final steps caused by an
// artificial episode cutoff such as a step limit; the environment could
// have continued past them.
type StepType int

const (
	First StepType = iota
	Mid
	Terminal
	Truncated
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Terminal:
		return "Terminal"
	case Truncated:
		return "Truncated"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Observation mat.Vector
	Number      int
}

func New(t StepType, r float64, o mat.Vector, n int) TimeStep {
	return TimeStep{t, r, o, n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Terminated returns whether a TimeStep ended its episode by reaching
// a terminal state of the environment dynamics.
func (t *TimeStep) Terminated() bool {
	return t.StepType == Terminal
}

// Truncated returns whether a TimeStep ended its episode through an
// artificial cutoff rather than a terminal state.
func (t *TimeStep) Truncated() bool {
	return t.StepType == Truncated
}

// Last returns whether a TimeStep is the last step in an episode,
// through either termination or truncation.
func (t *TimeStep) Last() bool {
	return t.Terminated() || t.Truncated()
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Number)
}

// NextState is the successor state of a Transition. It is a tagged
// variant: either the terminal marker, carrying no observation, or a
// concrete continuing observation. Bootstrapped value estimates are
// only valid for continuing successors.
type NextState struct {
	obs mat.Vector
}

// TerminalState returns the NextState of a transition into a terminal
// state.
func TerminalState() NextState {
	return NextState{}
}

// Continuing returns the NextState of a transition into a concrete,
// non-terminal successor observation.
func Continuing(obs mat.Vector) NextState {
	if obs == nil {
		panic("continuing: successor observation may not be nil")
	}
	return NextState{obs: obs}
}

// Terminal returns whether the NextState marks a terminal transition
func (n NextState) Terminal() bool {
	return n.obs == nil
}

// Observation returns the successor observation. It panics on a
// terminal NextState, which has no observation.
func (n NextState) Observation() mat.Vector {
	if n.Terminal() {
		panic("observation: terminal successor has no observation")
	}
	return n.obs
}

// Transition packages a single environmental step as a
// (state, action, reward, next state) tuple. Transitions are immutable
// once constructed.
type Transition struct {
	State     mat.Vector
	Action    int
	Reward    float64
	NextState NextState
}

// NewTransition constructs the Transition between two consecutive
// timesteps, given the action selected at the earlier of the two. The
// successor is tagged terminal exactly when the later step terminated;
// a truncated step keeps its concrete observation since the episode
// was cut off rather than finished by the dynamics.
func NewTransition(step TimeStep, action int, nextStep TimeStep) Transition {
	next := TerminalState()
	if !nextStep.Terminated() {
		next = Continuing(nextStep.Observation)
	}

	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		NextState: next,
	}
}
