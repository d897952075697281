package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting state vectors uniformly from a
// bounded hyperrectangle.
type UniformStarter struct {
	features int
	bounds   []r1.Interval
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter which samples starting
// states uniformly within bounds.
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)

	return &UniformStarter{
		features: len(bounds),
		bounds:   bounds,
		rand:     distmv.NewUniform(bounds, source),
	}
}

// Start samples and returns a starting state vector
func (u *UniformStarter) Start() mat.Vector {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}

// Seed reseeds the starter's sampling distribution
func (u *UniformStarter) Seed(seed uint64) {
	u.rand = distmv.NewUniform(u.bounds, rand.NewSource(seed))
}
