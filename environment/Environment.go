// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/landerlab/golander/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when episodes end for reasons other than reaching a
// goal, such as running out of allotted timesteps. An Ender may modify
// the StepType of a timestep to cut an episode short.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	Starter
	GetReward(state mat.Vector, action int, nextState mat.Vector) float64
	AtGoal(state mat.Vector) bool
}

// Environment implements a simulated environment, which includes a Task
// to complete.
//
// Episodes are started with Reset and advanced with Step. Reset reseeds
// the environment's randomness so that runs started from equal seeds
// produce equal trajectories.
type Environment interface {
	Task

	// Reset starts a new episode, reseeding any stochasticity in the
	// environment from seed, and returns the first timestep.
	Reset(seed uint64) (timestep.TimeStep, error)

	// Step takes one environmental step given an action and returns
	// the next timestep.
	Step(action int) (timestep.TimeStep, error)

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
