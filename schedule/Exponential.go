// Package schedule implements exploration schedules, which map a count
// of elapsed timesteps to an exploration probability.
package schedule

import "math"

// Exponential is an exploration schedule that decays exponentially
// from Start at timestep 0 toward End as the timestep count grows
// without bound. Decay is the timescale of the decay: after Decay
// timesteps the schedule has closed a 1-1/e fraction of the gap
// between Start and End.
//
// Exponential is pure and deterministic; it holds no mutable state.
type Exponential struct {
	Start float64
	End   float64
	Decay float64
}

// NewExponential returns a new Exponential schedule decaying from
// start toward end with timescale decay.
func NewExponential(start, end, decay float64) Exponential {
	return Exponential{Start: start, End: end, Decay: decay}
}

// Epsilon returns the exploration probability after stepsDone
// timesteps.
func (e Exponential) Epsilon(stepsDone int) float64 {
	return e.End + (e.Start-e.End)*
		math.Exp(-float64(stepsDone)/e.Decay)
}
