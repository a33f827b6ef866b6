package kinematics

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/detik-robotics/detik/motionplan/ik"
)

// ErrorCode is the status reported to the host alongside every query. The values match the codes motion planning
// frameworks conventionally use.
type ErrorCode int

// The error codes a query can report.
const (
	Success         ErrorCode = 1
	Failure         ErrorCode = 99999
	Timeout         ErrorCode = -6
	InvalidLinkName ErrorCode = -18
	NoIKSolution    ErrorCode = -31
)

func (c ErrorCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case Failure:
		return "FAILURE"
	case Timeout:
		return "TIMED_OUT"
	case InvalidLinkName:
		return "INVALID_LINK_NAME"
	case NoIKSolution:
		return "NO_IK_SOLUTION"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

var (
	// ErrSeedSizeMismatch is returned when a seed or consistency limit vector does not have one value per joint.
	ErrSeedSizeMismatch = errors.New("seed size does not match number of joints")

	// ErrNoSolution is returned when the solver exhausts its budget without converging.
	ErrNoSolution = ik.ErrNoSolution

	// ErrCallbackRejected is returned when a caller supplied callback vetoes a solution.
	ErrCallbackRejected = errors.New("solution rejected by callback")

	// ErrNotInitialized is returned by queries made before Initialize succeeded.
	ErrNotInitialized = errors.New("kinematics provider is not initialized")
)

// CallbackRejectedError carries the code a callback rejected a solution with.
type CallbackRejectedError struct {
	Code ErrorCode
}

func (e *CallbackRejectedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrCallbackRejected, e.Code)
}

// Is lets errors.Is match the sentinel.
func (e *CallbackRejectedError) Is(target error) bool {
	return target == ErrCallbackRejected
}

// NewSeedSizeMismatchError returns an error indicating that a vector has the wrong number of values.
func NewSeedSizeMismatchError(what string, actual, expected int) error {
	return errors.Wrapf(ErrSeedSizeMismatch, "%s must have size %d instead of size %d", what, expected, actual)
}
