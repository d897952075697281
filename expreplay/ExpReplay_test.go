package expreplay

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/landerlab/golander/timestep"
)

// transitionWithReward returns a transition distinguishable by its
// reward field alone.
func transitionWithReward(r float64) timestep.Transition {
	obs := mat.NewVecDense(1, []float64{r})
	return timestep.Transition{
		State:     obs,
		Action:    0,
		Reward:    r,
		NextState: timestep.Continuing(obs),
	}
}

func rewards(transitions []timestep.Transition) []float64 {
	out := make([]float64, len(transitions))
	for i, tr := range transitions {
		out[i] = tr.Reward
	}
	return out
}

func TestFifoEviction(t *testing.T) {
	buffer, err := New(3, 1, 1, 14)
	require.NoError(t, err)

	// Push A, B, C, D into a capacity-3 buffer; A must be evicted
	for i, r := range []float64{1, 2, 3, 4} {
		buffer.Add(transitionWithReward(r))
		want := i + 1
		if want > 3 {
			want = 3
		}
		require.Equal(t, want, buffer.Capacity())
	}

	require.Equal(t, []float64{2, 3, 4}, rewards(buffer.contents()))
}

func TestFifoEvictionLongSequence(t *testing.T) {
	const capacity = 8
	buffer, err := New(capacity, 1, 1, 14)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		buffer.Add(transitionWithReward(float64(i)))
	}

	// Only the capacity most recent transitions survive, oldest first
	want := make([]float64, capacity)
	for i := range want {
		want[i] = float64(50 - capacity + i)
	}
	require.Equal(t, want, rewards(buffer.contents()))
}

func TestSampleDistinct(t *testing.T) {
	buffer, err := New(100, 1, 10, 14)
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		buffer.Add(transitionWithReward(float64(i)))
	}

	for trial := 0; trial < 20; trial++ {
		batch, err := buffer.Sample()
		require.NoError(t, err)
		require.Len(t, batch, 10)

		seen := make(map[float64]bool)
		for _, tr := range batch {
			require.False(t, seen[tr.Reward], "duplicate transition in batch")
			require.GreaterOrEqual(t, tr.Reward, 0.0)
			require.Less(t, tr.Reward, 25.0)
			seen[tr.Reward] = true
		}
	}
}

func TestSampleInsufficientData(t *testing.T) {
	buffer, err := New(100, 32, 32, 14)
	require.NoError(t, err)

	_, err = buffer.Sample()
	require.Error(t, err)
	require.True(t, IsEmptyBuffer(err))

	for i := 0; i < 31; i++ {
		buffer.Add(transitionWithReward(float64(i)))
	}
	_, err = buffer.Sample()
	require.Error(t, err)
	require.True(t, IsInsufficientSamples(err))

	buffer.Add(transitionWithReward(31))
	_, err = buffer.Sample()
	require.NoError(t, err)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(0, 1, 1, 14)
	require.Error(t, err)

	_, err = New(10, 0, 1, 14)
	require.Error(t, err)

	_, err = New(10, 1, 11, 14)
	require.Error(t, err)
}
