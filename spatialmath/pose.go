package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/detik-robotics/detik/utils"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) meters and the Orientation() method returns an Orientation
// object, which has methods to parametrize the rotation in multiple different representations.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose returns a pose from a position and an orientation. A nil orientation is treated as no rotation.
func NewPose(p r3.Vector, o Orientation) Pose {
	q := newDualQuaternion()
	if o != nil {
		q.Real = Normalize(o.Quaternion())
	}
	q.setTranslation(p)
	return q
}

// NewPoseFromPoint returns a pose with the given position and no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return NewPose(point, nil)
}

// NewPoseFromOrientation returns a pose at the origin with the given orientation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It converts the poses to dual quaternions and multiplies them together, normalizes the transform and returns a new Pose.
// Composition does not commute in general, i.e. you cannot guarantee ABx == BAx.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{newDualQuaternionFromPose(a).Transformation(newDualQuaternionFromPose(b).Number)}

	// Normalization
	if vecLen := 1. / math.Sqrt(
		result.Real.Real*result.Real.Real+
			result.Real.Imag*result.Real.Imag+
			result.Real.Jmag*result.Real.Jmag+
			result.Real.Kmag*result.Real.Kmag); vecLen-1 > 1e-10 || vecLen-1 < -1e-10 {
		result.Real.Real *= vecLen
		result.Real.Imag *= vecLen
		result.Real.Jmag *= vecLen
		result.Real.Kmag *= vecLen
	}
	return result
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B, PoseInverse(p)
// will give the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	return newDualQuaternionFromPose(p).invert()
}

// PoseBetween returns the difference between two dualQuaternions, that is, the dq which if multiplied by one will give the other.
// Example: if PoseBetween(a, b) = c, then Compose(a, c) = b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseError returns the error twist that moves `from` onto `to`, expressed in the base frame both poses are given in.
// The linear part is the difference in position. The angular part is the rotation vector of to·from⁻¹.
func PoseError(from, to Pose) (linear, angular r3.Vector) {
	linear = to.Point().Sub(from.Point())
	angular = QuatToR3AA(OrientationBetween(from.Orientation(), to.Orientation()).Quaternion())
	return linear, angular
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same: every position
// component and every rotation matrix element must differ by no more than eps.
func PoseAlmostEqualEps(a, b Pose, eps float64) bool {
	if !R3VectorAlmostEqual(a.Point(), b.Point(), eps) {
		return false
	}
	ma := a.Orientation().RotationMatrix()
	mb := b.Orientation().RotationMatrix()
	for i := range ma.mat {
		if math.Abs(ma.mat[i]-mb.mat[i]) > eps {
			return false
		}
	}
	return true
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, epsilon) &&
		utils.Float64AlmostEqual(a.Y, b.Y, epsilon) &&
		utils.Float64AlmostEqual(a.Z, b.Z, epsilon)
}

// PoseDelta returns the difference between two poses in the frame both are expressed in: the translation is the
// plain difference of positions and the orientation is the rotation that takes a's orientation onto b's.
func PoseDelta(a, b Pose) Pose {
	return NewPose(b.Point().Sub(a.Point()), OrientationBetween(a.Orientation(), b.Orientation()))
}
