//go:build !no_cgo

package ik

import (
	"github.com/go-nlopt/nlopt"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/detik-robotics/detik/referenceframe"
)

// sqpSearch runs nlopt's SLSQP from seed with at most budget objective evaluations.
func sqpSearch(p *problem, seed []referenceframe.Input, budget int) ([]referenceframe.Input, int, bool) {
	if budget < 1 {
		return nil, 0, false
	}
	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(len(seed)))
	if err != nil {
		return nil, 1, false
	}
	defer opt.Destroy()

	stopVal := p.epsilon * p.epsilon
	evals := 0
	solution := &firstSolution{}

	// x is our set of inputs
	// Gradient is, under the hood, a unsafe C structure that we are meant to mutate in place.
	nloptMinFunc := func(x, gradient []float64) float64 {
		evals++
		dist, converged := p.evaluate(x)
		if solution.offer(x, converged) {
			//nolint:errcheck
			opt.ForceStop()
			return dist
		}
		if len(gradient) > 0 {
			fd.Gradient(gradient, p.cost, x, &fd.Settings{
				Formula:     fd.Forward,
				Step:        defaultJump,
				OriginKnown: true,
				OriginValue: dist,
			})
		}
		return dist
	}

	err = multierr.Combine(
		opt.SetFtolAbs(stopVal*1e-3),
		opt.SetLowerBounds(p.lower),
		opt.SetStopVal(stopVal),
		opt.SetUpperBounds(p.upper),
		opt.SetXtolAbs1(1e-12),
		opt.SetMinObjective(nloptMinFunc),
		opt.SetMaxEval(budget),
	)
	if err != nil {
		return nil, 1, false
	}

	// Optimize reports forced stops and roundoff as errors, which just *happen* sometimes in nonlinear problems.
	// Whether a solution was seen is all that matters.
	//nolint:errcheck
	opt.Optimize(referenceframe.InputsToFloats(p.clamp(seed)))

	q, ok := solution.result()
	return q, max(evals, 1), ok
}
