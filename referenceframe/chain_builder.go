package referenceframe

import (
	"github.com/pkg/errors"
)

// BuildChain extracts the serial chain between base and tip from a model tree.
// The walk starts at tip and follows parent joints until it meets base; the collected segments are then reversed
// into base->tip order. Fixed joints contribute only their transform. Revolute and prismatic joints keep their
// declared limits, continuous joints are unbounded.
//
// Unknown links, or a tip whose ancestry reaches the root without passing base, give an error wrapping
// ErrModelTraversal and no chain.
func BuildChain(model *Model, base, tip string) (*Chain, error) {
	if model == nil {
		return nil, NewModelLoadError("model is nil")
	}
	if !model.HasLink(base) {
		return nil, NewLinkMissingError(base)
	}
	if !model.HasLink(tip) {
		return nil, NewLinkMissingError(tip)
	}

	segments := []Segment{}
	limits := []Limit{}
	seen := map[string]bool{tip: true}
	curr := tip
	for curr != base {
		joint, ok := model.ParentJoint(curr)
		if !ok {
			return nil, NewDisconnectedLinksError(base, tip)
		}
		if seen[joint.Parent] {
			return nil, errors.Wrapf(ErrModelTraversal, "circular reference through joint %q", joint.Name)
		}
		seen[joint.Parent] = true

		seg := Segment{
			Name:   curr,
			Joint:  JointDescriptor{Name: joint.Name, Type: joint.Type},
			Origin: joint.Origin,
		}
		switch joint.Type {
		case RevoluteJoint, PrismaticJoint:
			lim, err := NewLimit(joint.Min, joint.Max)
			if err != nil {
				return nil, errors.Wrapf(err, "joint %q", joint.Name)
			}
			seg.Joint.Axis = joint.Axis.Normalize()
			limits = append(limits, lim)
		case ContinuousJoint:
			seg.Joint.Axis = joint.Axis.Normalize()
			limits = append(limits, UnboundedLimit())
		case FixedJoint:
		}
		segments = append(segments, seg)
		curr = joint.Parent
	}

	// After the above loop, the segments are in reverse order, so we reverse the lists.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	for i, j := 0, len(limits)-1; i < j; i, j = i+1, j-1 {
		limits[i], limits[j] = limits[j], limits[i]
	}

	return NewChain(base, segments, limits)
}
