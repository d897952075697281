package schedule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpsilonStartsAtStart(t *testing.T) {
	sched := NewExponential(0.9, 0.05, 1000)
	require.Equal(t, 0.9, sched.Epsilon(0))
}

func TestEpsilonApproachesEnd(t *testing.T) {
	sched := NewExponential(0.9, 0.05, 1000)
	require.InDelta(t, 0.05, sched.Epsilon(1_000_000), 1e-9)
}

func TestEpsilonStrictlyDecreasing(t *testing.T) {
	sched := NewExponential(1.0, 0.1, 500)

	prev := sched.Epsilon(0)
	for steps := 1; steps < 5000; steps += 25 {
		eps := sched.Epsilon(steps)
		require.Less(t, eps, prev)
		prev = eps
	}
}

func TestEpsilonOneOverEAtDecayTimescale(t *testing.T) {
	sched := NewExponential(1.0, 0.0, 1000)
	require.InDelta(t, 1.0/math.E, sched.Epsilon(1000), 1e-12)
	require.InDelta(t, 0.368, sched.Epsilon(1000), 5e-4)
}
