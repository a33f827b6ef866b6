package ik

import (
	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/referenceframe"
	spatial "github.com/detik-robotics/detik/spatialmath"
)

// defaultJump is the finite difference step used for gradients of the pose error.
const defaultJump = 1e-8

// SQPIK minimizes the squared bounded pose error within joint limits with sequential quadratic programming.
// Every evaluation of the objective counts against the iteration budget.
type SQPIK struct {
	model  Kinematics
	logger logging.Logger
}

// NewSQPIK creates an SQP solver for the given chain.
func NewSQPIK(model Kinematics, logger logging.Logger) *SQPIK {
	return &SQPIK{model: model, logger: logger}
}

// DoF returns the limits of the chain.
func (ik *SQPIK) DoF() []referenceframe.Limit {
	return ik.model.DoF()
}

// Solve runs one bounded optimization from seed.
func (ik *SQPIK) Solve(seed []referenceframe.Input, goal spatial.Pose, opts SolveOptions) ([]referenceframe.Input, error) {
	p, err := newProblem(ik.model, seed, goal, opts)
	if err != nil {
		return nil, err
	}
	q, used, ok := sqpSearch(p, seed, opts.iterations())
	if !ok {
		ik.logger.Debugw("sqp did not converge", "evaluations", used)
		return nil, ErrNoSolution
	}
	return q, nil
}

// firstSolution remembers the first evaluated configuration that meets the tolerance. Optimizers stop as soon as
// one is seen, so the evaluations before it are the same whatever the budget.
type firstSolution struct {
	q    []referenceframe.Input
	done bool
}

func (f *firstSolution) offer(q []float64, converged bool) bool {
	if converged && !f.done {
		f.q = append([]referenceframe.Input(nil), q...)
		f.done = true
	}
	return f.done
}

func (f *firstSolution) result() ([]referenceframe.Input, bool) {
	return f.q, f.done
}
