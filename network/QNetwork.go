package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// qNetwork implements a multi-layered perceptron with one output unit
// per discrete action, each predicting the value of taking that
// action in the input state.
type qNetwork struct {
	g      *G.ExprGraph
	layers []Layer
	input  *G.Node

	numOutputs int
	numInputs  int
	batchSize  int

	// Data needed for cloning
	hiddenSizes []int
	biases      []bool
	activations []*Activation
	init        G.InitWFn

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewQNetwork creates and returns a new multi-layered perceptron with
// one output per action. The graph parameter g is populated with the
// network.
//
// The network has len(hiddenSizes) hidden layers, where
// hiddenSizes[i] is the number of units in hidden layer i, biases[i]
// determines whether hidden layer i has a bias unit, and
// activations[i] is the activation of hidden layer i. A final linear
// layer with a bias unit and no activation is always added so that
// the network predicts exactly outputs values. Setting hiddenSizes,
// biases, and activations to empty slices therefore yields a linear
// function approximator.
func NewQNetwork(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if len(hiddenSizes) != len(activations) {
		msg := "newqnetwork: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newqnetwork: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}
	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newqnetwork: features, batch, and outputs "+
			"must be positive \n\thave(%v, %v, %v)", features, batch, outputs)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Final linear layer predicting one value per action
	sizes := make([]int, len(hiddenSizes), len(hiddenSizes)+1)
	copy(sizes, hiddenSizes)
	sizes = append(sizes, outputs)

	layerBiases := make([]bool, len(biases), len(biases)+1)
	copy(layerBiases, biases)
	layerBiases = append(layerBiases, true)

	layerActivations := make([]*Activation, len(activations),
		len(activations)+1)
	copy(layerActivations, activations)
	layerActivations = append(layerActivations, Identity())

	layers := addFCLayers(g, sizes, layerBiases, layerActivations, init,
		features)

	net := qNetwork{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
		init:        init,
	}
	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newqnetwork: could not compute forward "+
			"pass: %v", err)
	}

	return &net, nil
}

// Graph returns the computational graph of the qNetwork.
func (q *qNetwork) Graph() *G.ExprGraph {
	return q.g
}

// CloneWithBatch clones a qNetwork onto a fresh computational graph
// with a new input batch size. The clone's weights start as copies of
// the receiver's current weights.
func (q *qNetwork) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("clonewithbatch: batch size must be "+
			"positive \n\thave(%v)", batchSize)
	}

	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, q.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	layers := make([]Layer, len(q.layers))
	for i := range q.layers {
		layers[i] = q.layers[i].CloneTo(graph)
	}

	net := qNetwork{
		g:           graph,
		layers:      layers,
		input:       input,
		numOutputs:  q.numOutputs,
		numInputs:   q.numInputs,
		batchSize:   batchSize,
		hiddenSizes: q.hiddenSizes,
		biases:      q.biases,
		activations: q.activations,
		init:        q.init,
	}
	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute forward "+
			"pass: %v", err)
	}

	return &net, nil
}

// BatchSize returns the number of input vectors the network consumes
// per forward pass.
func (q *qNetwork) BatchSize() int {
	return q.batchSize
}

// Features returns the number of features in a single input vector.
func (q *qNetwork) Features() int {
	return q.numInputs
}

// Outputs returns the number of action values the network predicts.
func (q *qNetwork) Outputs() int {
	return q.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (q *qNetwork) SetInput(input []float64) error {
	if len(input) != q.numInputs*q.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", q.numInputs*q.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(q.input.Shape()...),
	)
	return G.Let(q.input, inputTensor)
}

// Set sets the weights of a qNetwork to be equal to the weights of
// another qNetwork
func (q *qNetwork) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: incompatible networks\n\twant(%v "+
			"learnables)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Polyak sets the weights of a qNetwork to be a polyak average between
// its existing weights and the weights of another qNetwork:
//
//	dest <- tau*source + (1-tau)*dest
func (q *qNetwork) Polyak(source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("polyak: incompatible networks\n\twant(%v "+
			"learnables)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		var newWeights *tensor.Dense
		newWeights, err = weights.Add(sourceWeights)
		if err != nil {
			return err
		}

		if err := G.Let(nodes[i], newWeights); err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in a qNetwork
func (q *qNetwork) Learnables() G.Nodes {
	// Lazy instantiation
	if q.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(q.layers))
		for i := range q.layers {
			learnables = append(learnables, q.layers[i].Weights())
			if bias := q.layers[i].Bias(); bias != nil {
				learnables = append(learnables, bias)
			}
		}
		q.learnables = G.Nodes(learnables)
	}
	return q.learnables
}

// Model returns the learnable nodes with their gradients.
func (q *qNetwork) Model() []G.ValueGrad {
	// Lazy instantiation
	if q.model == nil {
		model := make([]G.ValueGrad, 0, 2*len(q.layers))
		for _, node := range q.Learnables() {
			model = append(model, node)
		}
		q.model = model
	}
	return q.model
}

// fwd performs the forward pass of the qNetwork on the input node
func (q *qNetwork) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range q.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	q.prediction = pred
	G.Read(q.prediction, &q.predVal)

	return nil
}

// Output returns the predictions of the last forward pass run through
// the network's graph.
func (q *qNetwork) Output() G.Value {
	return q.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the qNetwork
func (q *qNetwork) Prediction() *G.Node {
	return q.prediction
}
