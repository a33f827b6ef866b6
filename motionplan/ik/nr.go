package ik

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/referenceframe"
	spatial "github.com/detik-robotics/detik/spatialmath"
)

const (
	// singular values below this fraction of the largest are treated as zero in the pseudo-inverse.
	pinvTolerance = 1e-12
	// largest change of a single joint in one Newton step.
	maxStep = 1.
)

// NewtonRaphsonIK is a joint-limited Newton-Raphson solver. Every iteration solves J dq = e with the SVD
// pseudo-inverse of the Jacobian and clamps the result to the limits. It never restarts, so it is the baseline the
// other solvers are compared with.
type NewtonRaphsonIK struct {
	model  Kinematics
	logger logging.Logger
}

// NewNewtonRaphsonIK creates a Newton-Raphson solver for the given chain.
func NewNewtonRaphsonIK(model Kinematics, logger logging.Logger) *NewtonRaphsonIK {
	return &NewtonRaphsonIK{model: model, logger: logger}
}

// DoF returns the limits of the chain.
func (ik *NewtonRaphsonIK) DoF() []referenceframe.Limit {
	return ik.model.DoF()
}

// Solve runs at most MaxIterations Newton steps from seed.
func (ik *NewtonRaphsonIK) Solve(
	seed []referenceframe.Input,
	goal spatial.Pose,
	opts SolveOptions,
) ([]referenceframe.Input, error) {
	p, err := newProblem(ik.model, seed, goal, opts)
	if err != nil {
		return nil, err
	}
	q, used, ok := newtonRaphson(p, seed, opts.iterations())
	if !ok {
		ik.logger.Debugw("newton-raphson did not converge", "iterations", used)
		return nil, ErrNoSolution
	}
	return q, nil
}

// newtonRaphson iterates from seed and reports the solution, if any, and the number of iterations spent.
// The iteration sequence does not depend on budget, so a larger budget reaches every solution a smaller one does.
func newtonRaphson(p *problem, seed []referenceframe.Input, budget int) ([]referenceframe.Input, int, bool) {
	rows := p.activeRows()
	q := p.clamp(seed)
	n := len(q)

	for used := 1; used <= budget; used++ {
		res, err := p.residual(q)
		if err != nil {
			return nil, used, false
		}
		if p.converged(res) {
			return q, used, true
		}
		if len(rows) == 0 || used == budget {
			return nil, used, false
		}

		full, err := p.model.Jacobian(q)
		if err != nil {
			return nil, used, false
		}
		jac := mat.NewDense(len(rows), n, nil)
		e := mat.NewVecDense(len(rows), nil)
		for r, row := range rows {
			for c := 0; c < n; c++ {
				jac.Set(r, c, full.At(row, c))
			}
			e.SetVec(r, res[row])
		}

		var svd mat.SVD
		if ok := svd.Factorize(jac, mat.SVDThin); !ok {
			return nil, used, false
		}
		rank := svd.Rank(pinvTolerance)
		if rank == 0 {
			return nil, used, false
		}
		var dq mat.VecDense
		svd.SolveVecTo(&dq, e, rank)

		step := dq.RawVector().Data
		if largest := floats.Norm(step, math.Inf(1)); largest > maxStep {
			floats.Scale(maxStep/largest, step)
		}
		for i := range q {
			q[i] = p.limits[i].Clamp(q[i] + step[i])
		}
	}
	return nil, budget, false
}
