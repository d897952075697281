package environment

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/landerlab/golander/timestep"
)

func TestStepLimitMarksTruncated(t *testing.T) {
	ender := NewStepLimit(3)

	mid := timestep.New(timestep.Mid, 0, mat.NewVecDense(1, nil), 2)
	require.False(t, ender.End(&mid))
	require.True(t, mid.Mid())

	last := timestep.New(timestep.Mid, 0, mat.NewVecDense(1, nil), 3)
	require.True(t, ender.End(&last))
	require.True(t, last.Truncated())
	require.False(t, last.Terminated())
}

func TestStepLimitDoesNotOverrideTermination(t *testing.T) {
	ender := NewStepLimit(3)

	terminal := timestep.New(timestep.Terminal, 0, mat.NewVecDense(1, nil), 3)
	require.False(t, ender.End(&terminal))
	require.True(t, terminal.Terminated())
}

func TestUniformStarterSamplesWithinBounds(t *testing.T) {
	bounds := []r1.Interval{{Min: -1, Max: 1}, {Min: 5, Max: 10}}
	starter := NewUniformStarter(bounds, 11)

	for i := 0; i < 100; i++ {
		start := starter.Start()
		require.Equal(t, 2, start.Len())
		for j, b := range bounds {
			require.GreaterOrEqual(t, start.AtVec(j), b.Min)
			require.LessOrEqual(t, start.AtVec(j), b.Max)
		}
	}
}

func TestUniformStarterSeedReproducesDraws(t *testing.T) {
	bounds := []r1.Interval{{Min: -1, Max: 1}}
	starter := NewUniformStarter(bounds, 11)

	first := starter.Start().AtVec(0)
	starter.Seed(11)
	require.Equal(t, first, starter.Start().AtVec(0))
}
