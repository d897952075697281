package tracker

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/landerlab/golander/timestep"
)

func step(stepType ts.StepType, reward float64, number int) ts.TimeStep {
	return ts.New(stepType, reward, mat.NewVecDense(1, nil), number)
}

func trackEpisode(r *Return, rewards []float64, last ts.StepType) {
	r.Track(step(ts.First, 0, 0))
	for i, reward := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = last
		}
		r.Track(step(stepType, reward, i+1))
	}
}

func TestReturnAccumulatesPerEpisode(t *testing.T) {
	r := NewReturn(t.TempDir() + "/returns.bin")

	trackEpisode(r, []float64{1, 2, 3}, ts.Terminal)
	trackEpisode(r, []float64{-1, -2}, ts.Truncated)

	require.Equal(t, []float64{6, -3}, r.Returns())
}

func TestReturnSnapshotExcludesUnfinishedEpisode(t *testing.T) {
	r := NewReturn(t.TempDir() + "/returns.bin")

	trackEpisode(r, []float64{1, 1}, ts.Terminal)

	// A second, still running episode
	r.Track(step(ts.First, 0, 0))
	r.Track(step(ts.Mid, 5, 1))

	require.Equal(t, []float64{2}, r.Returns())
}

func TestReturnSnapshotIsACopy(t *testing.T) {
	r := NewReturn(t.TempDir() + "/returns.bin")
	trackEpisode(r, []float64{4}, ts.Terminal)

	snapshot := r.Returns()
	snapshot[0] = -100

	require.Equal(t, []float64{4}, r.Returns())
}

func TestReturnPanicsOnNonSequentialTimesteps(t *testing.T) {
	r := NewReturn(t.TempDir() + "/returns.bin")
	r.Track(step(ts.First, 0, 0))

	require.Panics(t, func() { r.Track(step(ts.Mid, 1, 5)) })
}

func TestReturnSaveAndLoadRoundTrip(t *testing.T) {
	filename := t.TempDir() + "/returns.bin"
	r := NewReturn(filename)

	trackEpisode(r, []float64{1, 2}, ts.Terminal)
	trackEpisode(r, []float64{3}, ts.Terminal)
	require.NoError(t, r.Save())

	loaded, err := LoadData(filename)
	require.NoError(t, err)
	require.Equal(t, []float64{3, 3}, loaded)
}

func TestReturnSaveCSV(t *testing.T) {
	r := NewReturn(t.TempDir() + "/returns.bin")
	trackEpisode(r, []float64{1.5, 2}, ts.Terminal)
	trackEpisode(r, []float64{-4}, ts.Truncated)

	csvFile := t.TempDir() + "/returns.csv"
	require.NoError(t, r.SaveCSV(csvFile))

	data, err := os.ReadFile(csvFile)
	require.NoError(t, err)
	require.Equal(t, "episode,return\n1,3.5\n2,-4\n", string(data))
}

func TestEpisodeLengthTracksCompletedEpisodes(t *testing.T) {
	e := NewEpisodeLength(t.TempDir() + "/lengths.bin")

	e.Track(step(ts.First, 0, 0))
	e.Track(step(ts.Mid, 0, 1))
	e.Track(step(ts.Terminal, 0, 2))
	e.Track(step(ts.First, 0, 0))
	e.Track(step(ts.Truncated, 0, 1))

	require.Equal(t, []int{2, 1}, e.Lengths())
}
