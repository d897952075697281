package dqn

import (
	"fmt"

	"github.com/landerlab/golander/agent"
	env "github.com/landerlab/golander/environment"
	"github.com/landerlab/golander/expreplay"
	"github.com/landerlab/golander/initwfn"
	"github.com/landerlab/golander/network"
	"github.com/landerlab/golander/schedule"
	"github.com/landerlab/golander/solver"
)

// Default hyperparameters
const (
	DefaultMaxCapacity  int     = 10_000
	DefaultBatchSize    int     = 128
	DefaultEpsilonStart float64 = 0.9
	DefaultEpsilonEnd   float64 = 0.05
	DefaultEpsilonDecay float64 = 1_000
	DefaultTau          float64 = 0.005
	DefaultStepSize     float64 = 1e-4
	DefaultUpdateEvery  int     = 2
	DefaultGradientClip float64 = 100
	DefaultHuberDelta   float64 = 1.0
)

// Config implements a configuration for a DQN agent
type Config struct {
	PolicyLayers []int                 // Hidden layer sizes in neural net
	Biases       []bool                // Whether each layer should have a bias
	Activations  []*network.Activation // Activation of each hidden layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Behaviour policy exploration schedule
	Epsilon schedule.Exponential

	// Experience replay parameters
	ExpReplay expreplay.Config

	Tau         float64 // Polyak averaging constant
	UpdateEvery int     // Environment steps between optimization steps
	HuberDelta  float64 // Huber loss quadratic-to-linear crossover
}

// NewDefaultConfig returns a Config with the default DQN
// hyperparameters, hidden layers of the given sizes, and reproducible
// weight initialization from seed.
func NewDefaultConfig(hiddenSizes []int, seed uint64) (Config, error) {
	adam, err := solver.NewAdam(DefaultStepSize, 1e-8, 0.9, 0.999,
		DefaultBatchSize, DefaultGradientClip)
	if err != nil {
		return Config{}, fmt.Errorf("newdefaultconfig: %v", err)
	}

	init, err := initwfn.NewSeededUniform(-0.1, 0.1, seed)
	if err != nil {
		return Config{}, fmt.Errorf("newdefaultconfig: %v", err)
	}

	biases := make([]bool, len(hiddenSizes))
	activations := make([]*network.Activation, len(hiddenSizes))
	for i := range hiddenSizes {
		biases[i] = true
		activations[i] = network.ReLU()
	}

	return Config{
		PolicyLayers: hiddenSizes,
		Biases:       biases,
		Activations:  activations,
		Solver:       adam,
		InitWFn:      init,
		Epsilon: schedule.NewExponential(DefaultEpsilonStart,
			DefaultEpsilonEnd, DefaultEpsilonDecay),
		ExpReplay: expreplay.Config{
			MaxCapacity: DefaultMaxCapacity,
			MinCapacity: DefaultBatchSize,
			BatchSize:   DefaultBatchSize,
		},
		Tau:         DefaultTau,
		UpdateEvery: DefaultUpdateEvery,
		HuberDelta:  DefaultHuberDelta,
	}, nil
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.BatchSize
}

// Validate checks a Config to ensure it is a valid configuration of a
// DQN agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}

	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v) \n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}

	if c.Solver == nil {
		return fmt.Errorf("validate: no solver provided")
	}

	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer provided")
	}

	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("validate: tau must be in (0, 1] \n\thave(%v)",
			c.Tau)
	}

	if c.UpdateEvery < 1 {
		return fmt.Errorf("validate: optimization must run at positive "+
			"step intervals \n\twant(>0) \n\thave(%v)", c.UpdateEvery)
	}

	if c.HuberDelta <= 0 {
		return fmt.Errorf("validate: Huber delta must be positive "+
			"\n\thave(%v)", c.HuberDelta)
	}

	return nil
}

// CreateAgent creates a new DQN agent for the given environment based
// on the configuration.
func (c Config) CreateAgent(e env.Environment, seed int64) (agent.Agent,
	error) {
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("createagent: cannot use non-discrete " +
			"actions")
	}

	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("createagent: actions must be 1-dimensional")
	}

	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("createagent: actions must be enumerated " +
			"starting from 0")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	numFeatures := e.ObservationSpec().Shape.Len()
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	discount := e.DiscountSpec().LowerBound.AtVec(0)

	return newDQN(c, numFeatures, numActions, discount, seed)
}
