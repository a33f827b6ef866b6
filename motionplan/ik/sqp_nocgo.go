//go:build no_cgo

package ik

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/detik-robotics/detik/referenceframe"
)

// sqpSearch minimizes the pose error with BFGS on builds without nlopt. Joint limits are enforced by projecting
// every evaluated point onto them.
func sqpSearch(p *problem, seed []referenceframe.Input, budget int) ([]referenceframe.Input, int, bool) {
	if budget < 1 {
		return nil, 0, false
	}
	evals := 0
	solution := &firstSolution{}

	projected := func(x []float64) float64 {
		return p.cost(p.clamp(x))
	}
	prob := optimize.Problem{
		Func: func(x []float64) float64 {
			evals++
			q := p.clamp(x)
			dist, converged := p.evaluate(q)
			solution.offer(q, converged)
			return dist
		},
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, projected, x, &fd.Settings{Formula: fd.Forward, Step: defaultJump})
		},
		Status: func() (optimize.Status, error) {
			if solution.done {
				return optimize.FunctionThreshold, nil
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{FuncEvaluations: budget}

	// Running out of evaluations is reported as an error; whether a solution was seen is all that matters.
	//nolint:errcheck
	optimize.Minimize(prob, referenceframe.InputsToFloats(p.clamp(seed)), settings, &optimize.BFGS{})

	q, ok := solution.result()
	return q, max(evals, 1), ok
}
