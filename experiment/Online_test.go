package experiment

import (
	"fmt"
	mrand "math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	env "github.com/landerlab/golander/environment"
	"github.com/landerlab/golander/experiment/tracker"
	ts "github.com/landerlab/golander/timestep"
)

// chainEnv is a deterministic three-step chain whose rewards are drawn
// from a stream reseeded on every Reset. Equal seeds give equal reward
// sequences.
type chainEnv struct {
	rng      *rand.Rand
	number   int
	failStep int // Step call index at which to fail; 0 disables
	steps    int
}

func newChainEnv() *chainEnv {
	return &chainEnv{}
}

func (c *chainEnv) Start() mat.Vector { return mat.NewVecDense(1, nil) }

func (c *chainEnv) GetReward(s mat.Vector, a int, ns mat.Vector) float64 {
	return 0
}

func (c *chainEnv) AtGoal(s mat.Vector) bool { return c.number >= 3 }

func (c *chainEnv) Reset(seed uint64) (ts.TimeStep, error) {
	c.rng = rand.New(rand.NewSource(seed))
	c.number = 0
	return ts.New(ts.First, 0, mat.NewVecDense(1, []float64{0}), 0), nil
}

func (c *chainEnv) Step(action int) (ts.TimeStep, error) {
	c.steps++
	if c.failStep > 0 && c.steps >= c.failStep {
		return ts.TimeStep{}, fmt.Errorf("step: simulator failure")
	}

	c.number++
	stepType := ts.Mid
	if c.number >= 3 {
		stepType = ts.Terminal
	}

	reward := c.rng.Float64() + float64(action)
	obs := mat.NewVecDense(1, []float64{float64(c.number)})
	return ts.New(stepType, reward, obs, c.number), nil
}

func (c *chainEnv) DiscountSpec() env.Spec {
	bound := mat.NewVecDense(1, []float64{0.99})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Discount, bound, bound,
		env.Continuous)
}

func (c *chainEnv) ObservationSpec() env.Spec {
	bound := mat.NewVecDense(1, []float64{3})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Observation,
		mat.NewVecDense(1, nil), bound, env.Continuous)
}

func (c *chainEnv) ActionSpec() env.Spec {
	return env.NewSpec(mat.NewVecDense(1, nil), env.Action,
		mat.NewVecDense(1, nil), mat.NewVecDense(1, []float64{1}),
		env.Discrete)
}

// randomAgent selects actions uniformly at random from a seeded stream
// and never learns.
type randomAgent struct {
	rng  *mrand.Rand
	eval bool
}

func newRandomAgent(seed int64) *randomAgent {
	return &randomAgent{rng: mrand.New(mrand.NewSource(seed))}
}

func (r *randomAgent) SelectAction(t ts.TimeStep) int { return r.rng.Intn(2) }
func (r *randomAgent) ObserveFirst(t ts.TimeStep)     {}
func (r *randomAgent) Observe(a int, t ts.TimeStep)   {}
func (r *randomAgent) Step() error                    { return nil }
func (r *randomAgent) EndEpisode()                    {}
func (r *randomAgent) Eval()                          { r.eval = true }
func (r *randomAgent) Train()                         { r.eval = false }
func (r *randomAgent) IsEval() bool                   { return r.eval }

func runReturns(t *testing.T, envSeed uint64, agentSeed int64,
	episodes int) []float64 {
	t.Helper()

	returns := tracker.NewReturn(t.TempDir() + "/returns.bin")
	exp := NewOnline(newChainEnv(), newRandomAgent(agentSeed), envSeed,
		returns)

	require.NoError(t, exp.Run(episodes))
	return returns.Returns()
}

func TestEqualSeedsReproduceReturnSequences(t *testing.T) {
	first := runReturns(t, 42, 7, 5)
	second := runReturns(t, 42, 7, 5)

	require.Len(t, first, 5)
	require.Equal(t, first, second)
}

func TestDifferentAgentSeedsDiverge(t *testing.T) {
	first := runReturns(t, 42, 7, 5)
	second := runReturns(t, 42, 8, 5)

	require.NotEqual(t, first, second)
}

func TestEnvironmentErrorAbortsRun(t *testing.T) {
	environment := newChainEnv()
	environment.failStep = 7 // Fails during the third episode

	returns := tracker.NewReturn(t.TempDir() + "/returns.bin")
	exp := NewOnline(environment, newRandomAgent(7), 42, returns)

	err := exp.Run(5)
	require.Error(t, err)

	// Episodes completed before the failure stay tracked
	require.Len(t, returns.Returns(), 2)
}

func TestSaveWritesTrackedData(t *testing.T) {
	filename := t.TempDir() + "/returns.bin"
	returns := tracker.NewReturn(filename)
	exp := NewOnline(newChainEnv(), newRandomAgent(7), 42, returns)

	require.NoError(t, exp.Run(3))
	require.NoError(t, exp.Save())

	loaded, err := tracker.LoadData(filename)
	require.NoError(t, err)
	require.Equal(t, returns.Returns(), loaded)
}
