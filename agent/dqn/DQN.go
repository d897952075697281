// Package dqn implements the deep Q-learning algorithm with experience
// replay, a Polyak averaged target network, and the Huber TD loss.
package dqn

import (
	"fmt"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/landerlab/golander/expreplay"
	"github.com/landerlab/golander/network"
	"github.com/landerlab/golander/schedule"
	ts "github.com/landerlab/golander/timestep"
	"github.com/landerlab/golander/utils/floatutils"
)

// DQN implements the deep Q-learning algorithm. Three networks share
// one set of weight values: a policy network with batch size 1 that
// selects actions, a training network whose weights are adapted by the
// solver, and a target network that provides the bootstrapped update
// target and trails the training network through Polyak averaging.
type DQN struct {
	// Action selection
	policyNet   network.NeuralNet
	policyNetVM G.VM
	epsilon     schedule.Exponential
	rng         *rand.Rand
	stepsDone   int
	numActions  int

	// Network whose weights are adapted
	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     G.Solver

	// Network providing the update target
	targetNet   network.NeuralNet
	targetNetVM G.VM

	tau           float64 // Polyak averaging constant
	updateEvery   int     // Environment steps between optimization steps
	envSteps      int
	gradientSteps int

	// Input nodes of the training graph that are fed per-batch data.
	// nextStateActionValues receives the action values of the next
	// states, computed by targetNet. For the update
	//
	// Q(s, a) <- Q(s, a) + α * (r + γ * max[Q(s', a')] - Q(s, a)) ∇Q(s, a)
	//
	// nextStateActionValues provides Q(s', a') for all a' in s'.
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node
	selectedActions       *G.Node

	lossVal G.Value

	replay   *expreplay.Buffer
	discount float64

	// Keep track of previous states and actions to add to replay buffer
	lastStep ts.TimeStep

	batchSize int
	eval      bool
}

// newDQN creates and returns a new DQN agent from a validated Config.
func newDQN(config Config, numFeatures, numActions int, discount float64,
	seed int64) (*DQN, error) {
	batchSize := config.ExpReplay.BatchSize

	// Policy network for selecting actions
	g := G.NewGraph()
	policyNet, err := network.NewQNetwork(numFeatures, 1, numActions, g,
		config.PolicyLayers, config.Biases, config.InitWFn.InitWFn(),
		config.Activations)
	if err != nil {
		return nil, fmt.Errorf("newDQN: could not create policy "+
			"network: %v", err)
	}
	policyNetVM := G.NewTapeMachine(policyNet.Graph())

	// Training network which learns the weights. Cloning preserves the
	// freshly initialized weight values, so all three networks start
	// out equal.
	trainNet, err := policyNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newDQN: could not create training "+
			"network: %v", err)
	}
	gTrain := trainNet.Graph()

	// Target network which provides the update target
	targetNet, err := policyNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("newDQN: could not create target "+
			"network: %v", err)
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	// Nodes fed the update target components: r + γ * max[Q(s', a')].
	// Terminal transitions are fed a discount of 0 so that no value is
	// bootstrapped past the end of an episode.
	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	rewards := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("reward"))
	discounts := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("discount"))

	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// One-hot rows selecting, for each sampled transition, the value of
	// the action that was actually taken
	selectedActions := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("actionSelected"))
	selectedActionValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	selectedActionValue = G.Must(G.Sum(selectedActionValue, 1))

	// Mean Huber TD loss. The Huber loss is quadratic for TD errors of
	// magnitude below delta and linear above it:
	//
	//	clipped = min(|δ|, delta)
	//	loss = 0.5 * clipped² + delta * (|δ| - clipped)
	//
	// computed here with a Rectify in place of the min.
	tdErr := G.Must(G.Sub(updateTarget, selectedActionValue))
	absErr := G.Must(G.Abs(tdErr))
	delta := G.NewConstant(config.HuberDelta)
	half := G.NewConstant(0.5)
	excess := G.Must(G.Sub(absErr, delta))
	excess = G.Must(G.Rectify(excess))
	clipped := G.Must(G.Sub(absErr, excess))
	losses := G.Must(G.Square(clipped))
	losses = G.Must(G.Mul(losses, half))
	linear := G.Must(G.Mul(excess, delta))
	losses = G.Must(G.Add(losses, linear))
	cost := G.Must(G.Mean(losses))

	var lossVal G.Value
	G.Read(cost, &lossVal)

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("newDQN: could not compute gradient: %v", err)
	}

	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Learnables()...),
	)

	replay, err := config.ExpReplay.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("newDQN: could not create experience "+
			"replay buffer: %v", err)
	}

	return &DQN{
		policyNet:   policyNet,
		policyNetVM: policyNetVM,
		epsilon:     config.Epsilon,
		rng:         rand.New(rand.NewSource(seed)),
		stepsDone:   0,
		numActions:  numActions,

		trainNet:   trainNet,
		trainNetVM: trainNetVM,
		solver:     config.Solver,

		targetNet:   targetNet,
		targetNetVM: targetNetVM,

		tau:         config.Tau,
		updateEvery: config.UpdateEvery,

		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,
		discounts:             discounts,
		selectedActions:       selectedActions,
		lossVal:               lossVal,

		replay:   replay,
		discount: discount,

		batchSize: batchSize,
		eval:      false,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DQN) ObserveFirst(t ts.TimeStep) {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n", t.Number)
	}
	d.lastStep = t
}

// Observe observes and records any timestep other than the first
// timestep, adding the resulting transition to the replay buffer.
func (d *DQN) Observe(action int, nextStep ts.TimeStep) {
	if !d.eval {
		d.replay.Add(ts.NewTransition(d.lastStep, action, nextStep))
	}
	d.lastStep = nextStep
}

// Step updates the weights of the agent's networks. Optimization runs
// once every updateEvery observed environment steps; other calls
// return immediately. Each optimization step is followed by a Polyak
// update of the target network.
func (d *DQN) Step() error {
	if d.eval {
		return nil
	}

	d.envSteps++
	if d.envSteps%d.updateEvery != 0 {
		return nil
	}

	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("step: could not sample from replay buffer: %v",
			err)
	}

	numFeatures := d.trainNet.Features()
	states := make([]float64, 0, d.batchSize*numFeatures)
	nextStates := make([]float64, 0, d.batchSize*numFeatures)
	actions := make([]float64, d.batchSize*d.numActions)
	rewards := make([]float64, d.batchSize)
	discounts := make([]float64, d.batchSize)

	for i, transition := range batch {
		for j := 0; j < numFeatures; j++ {
			states = append(states, transition.State.AtVec(j))
		}

		// A terminal successor has no observation and contributes no
		// bootstrapped value. Its next state row is fed zeros and its
		// discount is zero, so the row's action values cannot reach
		// the update target.
		if transition.NextState.Terminal() {
			nextStates = append(nextStates, make([]float64, numFeatures)...)
			discounts[i] = 0.0
		} else {
			obs := transition.NextState.Observation()
			for j := 0; j < numFeatures; j++ {
				nextStates = append(nextStates, obs.AtVec(j))
			}
			discounts[i] = d.discount
		}

		actions[i*d.numActions+transition.Action] = 1.0
		rewards[i] = transition.Reward
	}

	// Predict the action values of the next states
	if err := d.targetNet.SetInput(nextStates); err != nil {
		return fmt.Errorf("step: could not set target net input: %v", err)
	}
	if err := d.targetNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run target network: %v", err)
	}
	if err := G.Let(d.nextStateActionValues, d.targetNet.Output()); err != nil {
		return fmt.Errorf("step: could not set next state-action "+
			"values: %v", err)
	}
	d.targetNetVM.Reset()

	if err := d.trainNet.SetInput(states); err != nil {
		return fmt.Errorf("step: could not set training net input: %v", err)
	}

	actionTensor := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(actions),
	)
	if err := G.Let(d.selectedActions, actionTensor); err != nil {
		return fmt.Errorf("step: could not set selected actions: %v", err)
	}

	rewardTensor := tensor.New(tensor.WithShape(d.batchSize),
		tensor.WithBacking(rewards))
	if err := G.Let(d.rewards, rewardTensor); err != nil {
		return fmt.Errorf("step: could not set rewards: %v", err)
	}

	discountTensor := tensor.New(tensor.WithShape(d.batchSize),
		tensor.WithBacking(discounts))
	if err := G.Let(d.discounts, discountTensor); err != nil {
		return fmt.Errorf("step: could not set discounts: %v", err)
	}

	// Run the learning step
	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run training network: %v", err)
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return fmt.Errorf("step: could not update weights: %v", err)
	}
	d.trainNetVM.Reset()
	d.gradientSteps++

	// The target network trails the training network
	if d.tau == 1.0 {
		err = d.targetNet.Set(d.trainNet)
	} else {
		err = d.targetNet.Polyak(d.trainNet, d.tau)
	}
	if err != nil {
		return fmt.Errorf("step: could not update target network: %v", err)
	}

	if err := d.policyNet.Set(d.trainNet); err != nil {
		return fmt.Errorf("step: could not update policy network: %v", err)
	}

	return nil
}

// SelectAction returns an action selected epsilon greedily with
// respect to the policy network's action values. The exploration rate
// decays with the number of training action selections; evaluation
// mode always selects greedily.
func (d *DQN) SelectAction(t ts.TimeStep) int {
	if !d.eval {
		epsilon := d.epsilon.Epsilon(d.stepsDone)
		d.stepsDone++

		if d.rng.Float64() < epsilon {
			return d.rng.Intn(d.numActions)
		}
	}

	return d.greedyAction(t)
}

func (d *DQN) greedyAction(t ts.TimeStep) int {
	obs := make([]float64, t.Observation.Len())
	for i := range obs {
		obs[i] = t.Observation.AtVec(i)
	}

	if err := d.policyNet.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: could not set policy input: %v",
			err))
	}
	if err := d.policyNetVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: could not run policy network: %v",
			err))
	}

	actionValues := d.policyNet.Output().Data().([]float64)
	d.policyNetVM.Reset()

	return floatutils.ArgMax(actionValues)
}

// TdError calculates the TD error generated by the learner on some
// transition.
func (d *DQN) TdError(t ts.Transition) float64 {
	stateValues := d.actionValues(t.State)
	actionValue := stateValues[t.Action]

	target := t.Reward
	if !t.NextState.Terminal() {
		nextValues := d.actionValues(t.NextState.Observation())
		target += d.discount * floatutils.Max(nextValues...)
	}

	return target - actionValue
}

func (d *DQN) actionValues(obs mat.Vector) []float64 {
	in := make([]float64, d.policyNet.Features())
	for i := range in {
		in[i] = obs.AtVec(i)
	}
	if err := d.policyNet.SetInput(in); err != nil {
		panic(fmt.Sprintf("actionvalues: %v", err))
	}
	if err := d.policyNetVM.RunAll(); err != nil {
		panic(fmt.Sprintf("actionvalues: %v", err))
	}

	data := d.policyNet.Output().Data().([]float64)
	out := make([]float64, len(data))
	copy(out, data)
	d.policyNetVM.Reset()

	return out
}

// Loss returns the Huber TD loss of the last optimization step
func (d *DQN) Loss() float64 {
	if d.lossVal == nil {
		return 0
	}
	return d.lossVal.Data().(float64)
}

// GradientSteps returns the number of optimization steps taken
func (d *DQN) GradientSteps() int {
	return d.gradientSteps
}

// Eval sets the agent into evaluation mode
func (d *DQN) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DQN) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DQN) IsEval() bool {
	return d.eval
}

// EndEpisode performs cleanup at the end of an episode
func (d *DQN) EndEpisode() {}

// Close closes the agent's virtual machines
func (d *DQN) Close() error {
	policyErr := d.policyNetVM.Close()
	trainErr := d.trainNetVM.Close()
	targetErr := d.targetNetVM.Close()

	if policyErr != nil {
		return policyErr
	}
	if trainErr != nil {
		return trainErr
	}
	return targetErr
}
