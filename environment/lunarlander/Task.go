package lunarlander

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/landerlab/golander/environment"
	"github.com/landerlab/golander/timestep"
)

// landerTask is an environment.Task that needs access to the lander it
// rewards, for example to read engine throttles or contact sensors.
type landerTask interface {
	environment.Task
	registerEnv(*LunarLander)
	reset()
}

// Land is the task of landing gently on the landing pad. It rewards
// progress toward an upright, slow, centred lander through potential
// based shaping, charges for fuel, and replaces the step reward with
// -100 on a crash and +100 when the lander comes to rest.
type Land struct {
	environment.Starter
	stepLimit environment.Ender

	prevShaping *float64

	env *LunarLander
}

// NewLand returns a new Land task whose episodes are cut off after
// cutoff steps.
func NewLand(s environment.Starter, cutoff int) *Land {
	stepLimit := environment.NewStepLimit(cutoff)

	return &Land{Starter: s, stepLimit: stepLimit}
}

// NewDefaultLand returns a Land task with the lander's default
// starting position and initial force magnitude.
func NewDefaultLand(seed uint64, cutoff int) *Land {
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: InitialX, Max: InitialX},
		{Min: InitialY, Max: InitialY},
		{Min: InitialRandom, Max: InitialRandom},
	}, seed)

	return NewLand(starter, cutoff)
}

func (l *Land) registerEnv(env *LunarLander) {
	l.env = env
}

func (l *Land) reset() {
	l.prevShaping = nil
}

// Seed reseeds the task's start state distribution
func (l *Land) Seed(seed uint64) {
	if s, ok := l.Starter.(interface{ Seed(uint64) }); ok {
		s.Seed(seed)
	}
}

// End delegates to the task's step limit
func (l *Land) End(t *timestep.TimeStep) bool {
	return l.stepLimit.End(t)
}

// AtGoal returns whether both legs have touched down
func (l *Land) AtGoal(state mat.Vector) bool {
	leg1Contact, leg2Contact := l.env.GroundContact()
	return leg1Contact && leg2Contact
}

// GetReward returns the reward for transitioning into nextState
func (l *Land) GetReward(s mat.Vector, a int, nextState mat.Vector) float64 {
	state := nextState.(*mat.VecDense).RawVector().Data

	reward := 0.0
	shaping := (-100 * math.Sqrt(state[0]*state[0]+state[1]*state[1])) +
		(-100 * math.Sqrt(state[2]*state[2]+state[3]*state[3])) +
		(-100 * math.Abs(state[4])) +
		(10 * state[6]) +
		(10 * state[7])

	if l.prevShaping != nil {
		reward = shaping - *l.prevShaping
	}
	l.prevShaping = &shaping

	// Less fuel spent is better
	reward -= (l.env.MPower() * 0.30)
	reward -= (l.env.SPower() * 0.03)

	if l.env.IsGameOver() || math.Abs(nextState.AtVec(0)) >= 1.0 {
		reward = -100
	} else if !l.env.IsAwake() {
		reward = 100
	}
	return reward
}
