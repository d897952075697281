package environment

import "gonum.org/v1/gonum/mat"

// Cardinality indicates whether the associated type is continuous or
// discrete
type Cardinality int

const (
	Discrete Cardinality = iota
	Continuous
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action, an observation, or a discount
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
)

// Spec implements a specification, which tells the type, shape, and
// bounds of an action, observation, or discount
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NewSpec constructs a new environment specification
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector, cardinality Cardinality) Spec {
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}
