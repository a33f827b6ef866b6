package referenceframe

import (
	"github.com/pkg/errors"
)

var (
	// ErrModelLoad is returned when a kinematic model cannot be read or is empty.
	ErrModelLoad = errors.New("could not load kinematic model")

	// ErrModelTraversal is returned when a chain cannot be built between two links of a model.
	ErrModelTraversal = errors.New("could not traverse model")

	// ErrForwardKinematics is returned when a pose cannot be computed for a requested link.
	ErrForwardKinematics = errors.New("forward kinematics failed")

	// ErrIncorrectDoF is returned when the number of inputs does not match the number of movable joints.
	ErrIncorrectDoF = errors.New("incorrect number of inputs")
)

// NewModelLoadError wraps ErrModelLoad with the reason the model could not be loaded.
func NewModelLoadError(reason string) error {
	return errors.Wrap(ErrModelLoad, reason)
}

// NewLinkMissingError returns an error indicating that a link is not part of the model.
func NewLinkMissingError(name string) error {
	return errors.Wrapf(ErrModelTraversal, "link %q not found", name)
}

// NewDisconnectedLinksError returns an error indicating that the tip cannot reach the base by following parents.
func NewDisconnectedLinksError(base, tip string) error {
	return errors.Wrapf(ErrModelTraversal, "root reached from %q without passing %q", tip, base)
}

// NewIncorrectDoFError returns an error indicating that the given number of inputs is not the expected one.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Wrapf(ErrIncorrectDoF, "got %d, need %d", actual, expected)
}

// NewForwardKinematicsError returns an error indicating that no pose can be computed for the named link.
func NewForwardKinematicsError(link string) error {
	return errors.Wrapf(ErrForwardKinematics, "link %q is not in the chain", link)
}
