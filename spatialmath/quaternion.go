package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is an orientation in unit quaternion representation.
type Quaternion quat.Number

// AxisAngles returns the orientation in axis angle representation.
func (q *Quaternion) AxisAngles() *R4AA {
	aa := QuatToR4AA(q.Quaternion())
	return &aa
}

// Quaternion returns orientation in quaternion representation.
func (q *Quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *Quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(q.Quaternion())
}

// Normalize scales a quaternion to unit length. The zero quaternion is mapped to the identity.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) R4AA {
	denom := Norm(q)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return R4AA{Theta: angle, RX: 1}
	}
	return R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// QuatToR3AA converts a quat to a rotation vector whose direction is the rotation axis and whose length is the
// rotation angle, taking the shorter of the two equivalent rotations.
func QuatToR3AA(q quat.Number) r3.Vector {
	denom := Norm(q)
	v := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	if denom < 1e-12 {
		// small angle: sin(θ/2) ≈ θ/2
		if q.Real < 0 {
			return v.Mul(-2)
		}
		return v.Mul(2)
	}

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}
	return v.Mul(angle / denom)
}

// R3ToQuat converts a rotation vector to a unit quaternion.
func R3ToQuat(aa r3.Vector) quat.Number {
	theta := aa.Norm()
	if theta == 0 {
		return quat.Number{Real: 1}
	}
	r4 := R4AA{Theta: theta, RX: aa.X / theta, RY: aa.Y / theta, RZ: aa.Z / theta}
	return r4.ToQuat()
}

// Norm returns the norm of the quaternion, i.e. the sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q == -q,
// and this comparison takes that into account.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	componentsClose := func(a, b quat.Number) bool {
		return math.Abs(a.Real-b.Real) <= tol &&
			math.Abs(a.Imag-b.Imag) <= tol &&
			math.Abs(a.Jmag-b.Jmag) <= tol &&
			math.Abs(a.Kmag-b.Kmag) <= tol
	}
	return componentsClose(a, b) || componentsClose(a, Flip(b))
}
