package lunarlander

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/landerlab/golander/timestep"
)

func newTestLander(t *testing.T, cutoff int) *LunarLander {
	t.Helper()

	task := NewDefaultLand(12, cutoff)
	env, err := New(task, 0.99)
	require.NoError(t, err)

	return env
}

func observe(step timestep.TimeStep) []float64 {
	return step.Observation.(*mat.VecDense).RawVector().Data
}

func TestResetReturnsFirstStep(t *testing.T) {
	env := newTestLander(t, 500)

	step, err := env.Reset(42)
	require.NoError(t, err)

	require.True(t, step.First())
	require.Equal(t, 0, step.Number)
	require.Zero(t, step.Reward)
	require.Equal(t, StateObservations, step.Observation.Len())
}

func TestStepAdvancesStepNumber(t *testing.T) {
	env := newTestLander(t, 500)

	_, err := env.Reset(42)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		step, err := env.Step(NoOp)
		require.NoError(t, err)
		require.Equal(t, i, step.Number)
		require.False(t, step.Terminated())
	}
}

func TestStepRejectsIllegalAction(t *testing.T) {
	env := newTestLander(t, 500)

	_, err := env.Reset(42)
	require.NoError(t, err)

	_, err = env.Step(NumActions)
	require.Error(t, err)

	_, err = env.Step(-1)
	require.Error(t, err)
}

func TestStepLimitTruncatesEpisode(t *testing.T) {
	cutoff := 10
	env := newTestLander(t, cutoff)

	_, err := env.Reset(42)
	require.NoError(t, err)

	var last timestep.TimeStep
	for i := 0; i < cutoff; i++ {
		last, err = env.Step(NoOp)
		require.NoError(t, err)
		if last.Last() {
			break
		}
	}

	require.True(t, last.Last())
	require.True(t, last.Truncated())
	require.False(t, last.Terminated())
}

func TestEqualSeedsGiveEqualTrajectories(t *testing.T) {
	env1 := newTestLander(t, 500)
	env2 := newTestLander(t, 500)

	step1, err := env1.Reset(97)
	require.NoError(t, err)
	step2, err := env2.Reset(97)
	require.NoError(t, err)
	require.Equal(t, observe(step1), observe(step2))

	actions := []int{NoOp, FireMain, FireLeft, FireMain, FireRight, NoOp,
		FireMain, FireMain, FireLeft, NoOp}
	for _, a := range actions {
		step1, err = env1.Step(a)
		require.NoError(t, err)
		step2, err = env2.Step(a)
		require.NoError(t, err)

		require.Equal(t, observe(step1), observe(step2))
		require.Equal(t, step1.Reward, step2.Reward)
		require.Equal(t, step1.StepType, step2.StepType)
	}
}

func TestDifferentSeedsGiveDifferentTrajectories(t *testing.T) {
	env1 := newTestLander(t, 500)
	env2 := newTestLander(t, 500)

	step1, err := env1.Reset(1)
	require.NoError(t, err)
	step2, err := env2.Reset(2)
	require.NoError(t, err)

	require.NotEqual(t, observe(step1), observe(step2))
}

func TestActionSpecIsDiscrete(t *testing.T) {
	env := newTestLander(t, 500)

	spec := env.ActionSpec()
	require.Equal(t, float64(NoOp), spec.LowerBound.AtVec(0))
	require.Equal(t, float64(NumActions-1), spec.UpperBound.AtVec(0))
}
