package ik

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/detik-robotics/detik/referenceframe"
	spatial "github.com/detik-robotics/detik/spatialmath"
)

// BoundedError returns the twist from current to goal with every component that lies within its bound set to zero.
func BoundedError(current, goal spatial.Pose, b Bounds) (linear, angular r3.Vector) {
	linear, angular = spatial.PoseError(current, goal)
	return boundVector(linear, b.Linear), boundVector(angular, b.Angular)
}

func boundVector(v, bound r3.Vector) r3.Vector {
	return r3.Vector{X: boundComponent(v.X, bound.X), Y: boundComponent(v.Y, bound.Y), Z: boundComponent(v.Z, bound.Z)}
}

func boundComponent(v, bound float64) float64 {
	if math.Abs(v) <= math.Abs(bound) {
		return 0
	}
	return v
}

// JointDistance returns the euclidean distance between two configurations.
func JointDistance(a, b []referenceframe.Input) float64 {
	return referenceframe.InputsL2Distance(a, b)
}

// Manipulability is the product of the Jacobian's singular values. For chains with at least six joints this is
// sqrt(det(J Jᵀ)); for shorter chains it measures the volume of the reachable velocity space they do span.
func Manipulability(jac mat.Matrix) float64 {
	values := singularValues(jac)
	if len(values) == 0 {
		return 0
	}
	return floats.Prod(values)
}

// InverseConditionNumber returns σmin/σmax of the Jacobian, 1 for an isotropic configuration and 0 at a singularity.
func InverseConditionNumber(jac mat.Matrix) float64 {
	values := singularValues(jac)
	if len(values) == 0 {
		return 0
	}
	hi := floats.Max(values)
	if hi == 0 {
		return 0
	}
	return floats.Min(values) / hi
}

func singularValues(jac mat.Matrix) []float64 {
	var svd mat.SVD
	if ok := svd.Factorize(jac, mat.SVDNone); !ok {
		return nil
	}
	return svd.Values(nil)
}
