// Package network implements neural network function approximators
// using Gorgonia.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a trainable mapping from batches of feature vectors to
// batches of prediction vectors. A NeuralNet owns the portion of a
// Gorgonia computational graph holding its weights; an external
// virtual machine must run the graph before Output() holds a value.
type NeuralNet interface {
	Graph() *G.ExprGraph
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Polyak(NeuralNet, float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}
