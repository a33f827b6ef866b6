package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	spatial "github.com/detik-robotics/detik/spatialmath"
)

// JointDescriptor is the part of a joint a chain segment needs to move.
type JointDescriptor struct {
	Name string
	Type JointType
	// Axis is a unit vector in the joint frame.
	Axis r3.Vector
}

// Segment is one link of a chain together with the joint that moves it.
type Segment struct {
	// Name is the name of the link at the end of the segment.
	Name  string
	Joint JointDescriptor
	// Origin is the fixed transform from the parent link frame to the joint frame.
	Origin spatial.Pose
}

// Movable reports whether the segment consumes an input.
func (s Segment) Movable() bool {
	return s.Joint.Type.Movable()
}

// Pose returns the transform from the parent link frame to this segment's link frame for joint value q.
// q is ignored for fixed joints.
func (s Segment) Pose(q Input) spatial.Pose {
	switch s.Joint.Type {
	case RevoluteJoint, ContinuousJoint:
		motion := spatial.NewPoseFromOrientation(&spatial.R4AA{Theta: q, RX: s.Joint.Axis.X, RY: s.Joint.Axis.Y, RZ: s.Joint.Axis.Z})
		return spatial.Compose(s.Origin, motion)
	case PrismaticJoint:
		return spatial.Compose(s.Origin, spatial.NewPoseFromPoint(s.Joint.Axis.Mul(q)))
	case FixedJoint:
		return s.Origin
	default:
		return s.Origin
	}
}

// Chain is an ordered, immutable sequence of segments from a base link to a tip link.
// The number of limits always equals the number of movable segments.
type Chain struct {
	base       string
	segments   []Segment
	limits     []Limit
	linkNames  []string
	jointNames []string
}

// NewChain builds a chain from base->tip ordered segments and the limits of the movable ones.
func NewChain(base string, segments []Segment, limits []Limit) (*Chain, error) {
	c := &Chain{
		base:      base,
		segments:  append([]Segment(nil), segments...),
		limits:    append([]Limit(nil), limits...),
		linkNames: []string{base},
	}
	for _, s := range segments {
		c.linkNames = append(c.linkNames, s.Name)
		if s.Movable() {
			c.jointNames = append(c.jointNames, s.Joint.Name)
		}
		if s.Origin == nil {
			return nil, errors.Errorf("segment %q has no origin", s.Name)
		}
	}
	if len(c.jointNames) != len(c.limits) {
		return nil, errors.Errorf("chain has %d movable joints but %d limits", len(c.jointNames), len(c.limits))
	}
	for i, l := range c.limits {
		if !l.Valid() {
			return nil, errors.Errorf("invalid limit %v for joint %q", l, c.jointNames[i])
		}
	}
	return c, nil
}

// BaseLink returns the name of the link the chain starts from.
func (c *Chain) BaseLink() string {
	return c.base
}

// TipLink returns the name of the last link of the chain.
func (c *Chain) TipLink() string {
	return c.linkNames[len(c.linkNames)-1]
}

// Segments returns a copy of the chain's segments in base->tip order.
func (c *Chain) Segments() []Segment {
	return append([]Segment(nil), c.segments...)
}

// LinkNames returns the base link followed by the link of every segment.
func (c *Chain) LinkNames() []string {
	return append([]string(nil), c.linkNames...)
}

// JointNames returns the names of the movable joints in base->tip order.
func (c *Chain) JointNames() []string {
	return append([]string(nil), c.jointNames...)
}

// Limits returns the limit of every movable joint in base->tip order.
func (c *Chain) Limits() []Limit {
	return append([]Limit(nil), c.limits...)
}

// DoF is an alias of Limits so a chain can be handed to anything that only needs its degrees of freedom.
func (c *Chain) DoF() []Limit {
	return c.Limits()
}

// NumJoints returns the number of movable joints.
func (c *Chain) NumJoints() int {
	return len(c.jointNames)
}

// NumSegments returns the number of segments, fixed ones included.
func (c *Chain) NumSegments() int {
	return len(c.segments)
}

// SegmentIndex returns the number of segments up to and including the one that ends at the named link.
// The base link maps to 0 and a link outside the chain to -1.
func (c *Chain) SegmentIndex(link string) int {
	for i, name := range c.linkNames {
		if name == link {
			return i
		}
	}
	return -1
}

// Midpoint returns the joint-space midpoint of the chain's limits. Unbounded joints contribute 0.
func (c *Chain) Midpoint() []Input {
	mid := make([]Input, len(c.limits))
	for i, l := range c.limits {
		mid[i] = l.Midpoint()
	}
	return mid
}

// Transform returns the pose of the tip link in the base frame.
func (c *Chain) Transform(q []Input) (spatial.Pose, error) {
	return c.TransformTo(q, len(c.segments))
}

// TransformTo returns the pose, in the base frame, of the link reached after segmentNr segments.
// segmentNr 0 is the base itself.
func (c *Chain) TransformTo(q []Input, segmentNr int) (spatial.Pose, error) {
	if len(q) != len(c.limits) {
		return nil, NewIncorrectDoFError(len(q), len(c.limits))
	}
	if segmentNr < 0 || segmentNr > len(c.segments) {
		return nil, errors.Errorf("segment %d out of range [0, %d]", segmentNr, len(c.segments))
	}
	pose := spatial.NewZeroPose()
	j := 0
	for _, s := range c.segments[:segmentNr] {
		var v Input
		if s.Movable() {
			v = q[j]
			j++
		}
		pose = spatial.Compose(pose, s.Pose(v))
	}
	return pose, nil
}

// Jacobian returns the 6×n geometric Jacobian of the tip in the base frame, with the reference point at the tip.
// Rows 0-2 are linear velocity, rows 3-5 angular velocity.
func (c *Chain) Jacobian(q []Input) (*mat.Dense, error) {
	if len(q) != len(c.limits) {
		return nil, NewIncorrectDoFError(len(q), len(c.limits))
	}
	n := len(c.limits)
	if n == 0 {
		return nil, errors.New("cannot compute jacobian of a chain without movable joints")
	}

	type jointFrame struct {
		axis     r3.Vector
		position r3.Vector
		typ      JointType
	}
	frames := make([]jointFrame, 0, n)

	pose := spatial.NewZeroPose()
	j := 0
	for _, s := range c.segments {
		if !s.Movable() {
			pose = spatial.Compose(pose, s.Origin)
			continue
		}
		jointPose := spatial.Compose(pose, s.Origin)
		frames = append(frames, jointFrame{
			axis:     rotate(jointPose.Orientation(), s.Joint.Axis),
			position: jointPose.Point(),
			typ:      s.Joint.Type,
		})
		pose = spatial.Compose(pose, s.Pose(q[j]))
		j++
	}
	tip := pose.Point()

	jac := mat.NewDense(6, n, nil)
	for col, f := range frames {
		var linear, angular r3.Vector
		if f.typ == PrismaticJoint {
			linear = f.axis
		} else {
			linear = f.axis.Cross(tip.Sub(f.position))
			angular = f.axis
		}
		jac.Set(0, col, linear.X)
		jac.Set(1, col, linear.Y)
		jac.Set(2, col, linear.Z)
		jac.Set(3, col, angular.X)
		jac.Set(4, col, angular.Y)
		jac.Set(5, col, angular.Z)
	}
	return jac, nil
}

// rotate applies an orientation to a vector.
func rotate(o spatial.Orientation, v r3.Vector) r3.Vector {
	rm := o.RotationMatrix()
	r0, r1, r2 := rm.Row(0), rm.Row(1), rm.Row(2)
	return r3.Vector{
		X: r0[0]*v.X + r0[1]*v.Y + r0[2]*v.Z,
		Y: r1[0]*v.X + r1[1]*v.Y + r1[2]*v.Z,
		Z: r2[0]*v.X + r2[1]*v.Y + r2[2]*v.Z,
	}
}
