package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "github.com/detik-robotics/detik/spatialmath"
)

// JointType is the kind of motion a joint allows.
type JointType string

// The joint types a model can describe.
const (
	FixedJoint      JointType = "fixed"
	RevoluteJoint   JointType = "revolute"
	ContinuousJoint JointType = "continuous"
	PrismaticJoint  JointType = "prismatic"
)

// Movable reports whether the joint contributes a degree of freedom.
func (t JointType) Movable() bool {
	return t != FixedJoint
}

// Valid reports whether the joint type is one this package understands.
func (t JointType) Valid() bool {
	switch t {
	case FixedJoint, RevoluteJoint, ContinuousJoint, PrismaticJoint:
		return true
	default:
		return false
	}
}

// JointConfig describes a joint of a model tree: which link it hangs from, which link it moves, the fixed transform
// from the parent link frame to the joint frame and, for movable joints, the axis and declared range.
type JointConfig struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	Origin spatial.Pose
	Axis   r3.Vector
	// Min and Max are the declared limits. They are ignored for fixed and continuous joints.
	Min float64
	Max float64
}

// Model is a kinematic tree: links connected by joints, each link having at most one parent joint.
type Model struct {
	name   string
	links  []string
	known  map[string]bool
	joints map[string]*JointConfig
	// parentJoint maps a child link to the joint that moves it.
	parentJoint map[string]*JointConfig
}

// NewModel returns an empty model with the given name.
func NewModel(name string) *Model {
	return &Model{
		name:        name,
		known:       map[string]bool{},
		joints:      map[string]*JointConfig{},
		parentJoint: map[string]*JointConfig{},
	}
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// AddLink adds a link to the model. Adding the same link twice is an error.
func (m *Model) AddLink(name string) error {
	if name == "" {
		return errors.New("link name cannot be empty")
	}
	if m.known[name] {
		return errors.Errorf("duplicate link %q", name)
	}
	m.known[name] = true
	m.links = append(m.links, name)
	return nil
}

// AddJoint adds a joint between two links already in the model.
func (m *Model) AddJoint(joint JointConfig) error {
	if joint.Name == "" {
		return errors.New("joint name cannot be empty")
	}
	if !joint.Type.Valid() {
		return errors.Errorf("joint %q has unsupported type %q", joint.Name, joint.Type)
	}
	if _, ok := m.joints[joint.Name]; ok {
		return errors.Errorf("duplicate joint %q", joint.Name)
	}
	if !m.known[joint.Parent] {
		return errors.Errorf("joint %q references unknown parent link %q", joint.Name, joint.Parent)
	}
	if !m.known[joint.Child] {
		return errors.Errorf("joint %q references unknown child link %q", joint.Name, joint.Child)
	}
	if existing, ok := m.parentJoint[joint.Child]; ok {
		return errors.Errorf("link %q already has parent joint %q", joint.Child, existing.Name)
	}
	if joint.Type.Movable() && spatial.R3VectorAlmostEqual(joint.Axis, r3.Vector{}, 1e-8) {
		return errors.Errorf("joint %q cannot use zero vector as axis", joint.Name)
	}
	if joint.Origin == nil {
		joint.Origin = spatial.NewZeroPose()
	}
	j := joint
	m.joints[j.Name] = &j
	m.parentJoint[j.Child] = &j
	return nil
}

// HasLink reports whether the model contains the link.
func (m *Model) HasLink(name string) bool {
	return m.known[name]
}

// Links returns the link names in insertion order.
func (m *Model) Links() []string {
	return append([]string(nil), m.links...)
}

// Joint returns a copy of the named joint.
func (m *Model) Joint(name string) (JointConfig, bool) {
	j, ok := m.joints[name]
	if !ok {
		return JointConfig{}, false
	}
	return *j, true
}

// ParentJoint returns the joint that moves the given link. Root links have none.
func (m *Model) ParentJoint(link string) (JointConfig, bool) {
	j, ok := m.parentJoint[link]
	if !ok {
		return JointConfig{}, false
	}
	return *j, true
}

// Validate checks that the model is a tree: following parents from any link ends at a root without cycles.
func (m *Model) Validate() error {
	if len(m.links) == 0 {
		return NewModelLoadError("model has no links")
	}
	for _, link := range m.links {
		seen := map[string]bool{link: true}
		curr := link
		for {
			j, ok := m.parentJoint[curr]
			if !ok {
				break
			}
			if seen[j.Parent] {
				return errors.Errorf("circular reference through joint %q", j.Name)
			}
			seen[j.Parent] = true
			curr = j.Parent
		}
	}
	return nil
}
