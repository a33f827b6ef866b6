package referenceframe

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Input is the value of a single movable joint.
//   - revolute and continuous inputs are in radians.
//   - prismatic inputs are in meters.
type Input = float64

// InputsToFloats copies a slice of Inputs into a fresh slice of floats.
func InputsToFloats(inputs []Input) []float64 {
	fs := make([]float64, len(inputs))
	copy(fs, inputs)
	return fs
}

// InputsL2Distance returns the two-norm (the sqrt of the sum of the squares) between two Input sets.
// Sets of different length are infinitely far apart.
func InputsL2Distance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	diff := make([]float64, len(from))
	floats.SubTo(diff, to, from)
	// 2 is the L value returning a standard L2 Normalization
	return floats.Norm(diff, 2)
}
