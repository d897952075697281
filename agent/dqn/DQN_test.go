package dqn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/landerlab/golander/expreplay"
	"github.com/landerlab/golander/initwfn"
	"github.com/landerlab/golander/schedule"
	"github.com/landerlab/golander/solver"
	"github.com/landerlab/golander/timestep"
)

// newTestAgent returns a linear DQN agent over 3 features and 2
// actions whose weights start at zero, so that every action value is
// exactly 0 before the first optimization step.
func newTestAgent(t *testing.T, stepSize float64, updateEvery int) *DQN {
	return newTestAgentWithBatch(t, stepSize, updateEvery, 2)
}

func newTestAgentWithBatch(t *testing.T, stepSize float64, updateEvery,
	batchSize int) *DQN {
	t.Helper()

	vanilla, err := solver.NewVanilla(stepSize, batchSize)
	require.NoError(t, err)

	init, err := initwfn.NewZeroes()
	require.NoError(t, err)

	config := Config{
		Solver:  vanilla,
		InitWFn: init,
		Epsilon: schedule.NewExponential(0.0, 0.0, 1.0),
		ExpReplay: expreplay.Config{
			MaxCapacity: 16,
			MinCapacity: batchSize,
			BatchSize:   batchSize,
		},
		Tau:         1.0,
		UpdateEvery: updateEvery,
		HuberDelta:  1.0,
	}
	require.NoError(t, config.Validate())

	agent, err := newDQN(config, 3, 2, 0.99, 14)
	require.NoError(t, err)
	t.Cleanup(func() { agent.Close() })

	return agent
}

func obs(data ...float64) mat.Vector {
	return mat.NewVecDense(len(data), data)
}

// feedTransition records a single one-step episode with the given
// reward into the agent's replay buffer.
func feedTransition(agent *DQN, reward float64) {
	first := timestep.New(timestep.First, 0.0, obs(0.1, 0.2, 0.3), 0)
	agent.ObserveFirst(first)

	next := timestep.New(timestep.Mid, reward, obs(0.4, 0.5, 0.6), 1)
	agent.Observe(1, next)
}

// feedTerminalTransition records a one-step episode ending in a
// terminal state with the given reward.
func feedTerminalTransition(agent *DQN, reward float64) {
	first := timestep.New(timestep.First, 0.0, obs(0.1, 0.2, 0.3), 0)
	agent.ObserveFirst(first)

	last := timestep.New(timestep.Terminal, reward, obs(0.4, 0.5, 0.6), 1)
	agent.Observe(1, last)
}

func TestZeroNetworkLossIsMeanHuberOfRewards(t *testing.T) {
	agent := newTestAgentWithBatch(t, 0.0, 1, 4)

	// With all-zero weights every action value is 0, so the TD error
	// of each transition is exactly its reward whether or not the
	// transition is terminal. The Huber losses with delta 1 of the
	// rewards 0.5, -2, 3, and 0 are 0.125, 1.5, 2.5, and 0, with mean
	// 1.03125.
	feedTransition(agent, 0.5)
	feedTransition(agent, -2.0)
	feedTerminalTransition(agent, 3.0)
	feedTransition(agent, 0.0)

	require.NoError(t, agent.Step())
	require.Equal(t, 1, agent.GradientSteps())
	require.InDelta(t, 1.03125, agent.Loss(), 1e-12)
}

func TestUpdateEveryGatesOptimization(t *testing.T) {
	agent := newTestAgent(t, 0.0, 2)

	for i := 0; i < 4; i++ {
		feedTransition(agent, 1.0)
	}

	for i := 0; i < 4; i++ {
		require.NoError(t, agent.Step())
	}
	require.Equal(t, 2, agent.GradientSteps())
}

func TestStepWithoutEnoughSamplesIsANoOp(t *testing.T) {
	agent := newTestAgent(t, 0.0, 1)

	require.NoError(t, agent.Step())
	require.Zero(t, agent.GradientSteps())

	feedTransition(agent, 1.0)
	require.NoError(t, agent.Step())
	require.Zero(t, agent.GradientSteps())

	feedTransition(agent, 1.0)
	require.NoError(t, agent.Step())
	require.Equal(t, 1, agent.GradientSteps())
}

func TestFullTauCopiesTrainedWeightsEverywhere(t *testing.T) {
	agent := newTestAgent(t, 0.1, 1)

	feedTransition(agent, 0.5)
	feedTransition(agent, -2.0)
	require.NoError(t, agent.Step())

	trained := make([][]float64, 0)
	for _, node := range agent.trainNet.Learnables() {
		trained = append(trained, node.Value().Data().([]float64))
	}

	for i, node := range agent.targetNet.Learnables() {
		require.InDeltaSlice(t, trained[i],
			node.Value().Data().([]float64), 1e-12)
	}
	for i, node := range agent.policyNet.Learnables() {
		require.InDeltaSlice(t, trained[i],
			node.Value().Data().([]float64), 1e-12)
	}
}

func TestGreedySelectionBreaksTiesTowardLowestIndex(t *testing.T) {
	agent := newTestAgent(t, 0.0, 1)
	agent.Eval()

	step := timestep.New(timestep.First, 0.0, obs(0.1, 0.2, 0.3), 0)
	require.Equal(t, 0, agent.SelectAction(step))
}

func TestEvalModeNeitherRecordsNorLearns(t *testing.T) {
	agent := newTestAgent(t, 0.1, 1)
	agent.Eval()
	require.True(t, agent.IsEval())

	feedTransition(agent, 1.0)
	feedTransition(agent, 1.0)
	require.Zero(t, agent.replay.Capacity())

	require.NoError(t, agent.Step())
	require.Zero(t, agent.GradientSteps())
}

func TestTdErrorMasksTerminalSuccessors(t *testing.T) {
	agent := newTestAgent(t, 0.0, 1)

	// Zero-weight network: every action value is 0, so the TD error
	// reduces to the reward with or without bootstrapping.
	terminal := timestep.Transition{
		State:     obs(0.1, 0.2, 0.3),
		Action:    1,
		Reward:    -100,
		NextState: timestep.TerminalState(),
	}
	require.InDelta(t, -100, agent.TdError(terminal), 1e-12)

	continuing := timestep.Transition{
		State:     obs(0.1, 0.2, 0.3),
		Action:    0,
		Reward:    1.5,
		NextState: timestep.Continuing(obs(0.4, 0.5, 0.6)),
	}
	require.InDelta(t, 1.5, agent.TdError(continuing), 1e-12)
}
