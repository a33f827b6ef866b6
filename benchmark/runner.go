// Package benchmark measures how often and how fast IK strategies solve targets reached by random joint
// configurations.
package benchmark

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/motionplan/ik"
	"github.com/detik-robotics/detik/referenceframe"
	spatial "github.com/detik-robotics/detik/spatialmath"
	"github.com/detik-robotics/detik/utils"
)

// DefaultTolerance is how far forward kinematics of a reported solution may be from its target.
const DefaultTolerance = 1e-3

// Strategy is a named solver under measurement.
type Strategy struct {
	Name   string
	Solver ik.Solver
	// Validate checks every reported solution with forward kinematics.
	Validate bool
}

// Runner times strategies over a shared sample set.
type Runner struct {
	Chain  *referenceframe.Chain
	Logger logging.Logger
	Clock  clock.Clock

	MaxIterations int
	Epsilon       float64
	Bounds        ik.Bounds
	Tolerance     float64
}

// NewRunner returns a runner on the wall clock with default tolerances.
func NewRunner(chain *referenceframe.Chain, logger logging.Logger, maxIterations int) *Runner {
	return &Runner{
		Chain:         chain,
		Logger:        logger,
		Clock:         clock.New(),
		MaxIterations: maxIterations,
		Epsilon:       ik.DefaultEpsilon,
		Tolerance:     DefaultTolerance,
	}
}

// Run measures the baseline first and then the strategy under test, over the same samples in the same order.
// Results are returned in argument order.
func (r *Runner) Run(underTest, baseline Strategy, samples [][]referenceframe.Input, nominal []referenceframe.Input) (Result, Result) {
	base := r.RunStrategy(baseline, samples, nominal)
	tested := r.RunStrategy(underTest, samples, nominal)
	return tested, base
}

// RunParallel measures each strategy on its own goroutine. Strategies must not share a solver.
func (r *Runner) RunParallel(strategies []Strategy, samples [][]referenceframe.Input, nominal []referenceframe.Input) ([]Result, error) {
	results := make([]Result, len(strategies))
	fs := make([]utils.SimpleFunc, len(strategies))
	for i, s := range strategies {
		if s.Solver == nil {
			return nil, errors.Errorf("strategy %q has no solver", s.Name)
		}
		fs[i] = func() error {
			results[i] = r.RunStrategy(s, samples, nominal)
			return nil
		}
	}
	if err := utils.RunInParallel(fs...); err != nil {
		return nil, err
	}
	return results, nil
}

// RunStrategy solves every sample's tip pose once from nominal. A sample counts as solved when the solver reports
// success; validation failures are logged and counted separately.
func (r *Runner) RunStrategy(s Strategy, samples [][]referenceframe.Input, nominal []referenceframe.Input) Result {
	res := Result{
		Name:      s.Name,
		Total:     len(samples),
		Latencies: make([]time.Duration, 0, len(samples)),
	}
	r.Logger.Infof("*** Testing %s with %d random samples", s.Name, len(samples))

	lastDecile := -1
	for i, sample := range samples {
		if decile := 10 * i / len(samples); decile != lastDecile {
			lastDecile = decile
			r.Logger.Debugf("%d%% done", 100*i/len(samples))
		}

		target, err := r.Chain.Transform(sample)
		if err != nil {
			r.Logger.Errorw("cannot compute target for sample", "sample", i, "error", err)
			continue
		}

		start := r.Clock.Now()
		solution, err := s.Solver.Solve(nominal, target, ik.SolveOptions{
			MaxIterations: r.MaxIterations,
			Epsilon:       r.Epsilon,
			Bounds:        r.Bounds,
		})
		elapsed := r.Clock.Since(start)
		res.TotalTime += elapsed
		res.Latencies = append(res.Latencies, elapsed)
		if err != nil {
			continue
		}
		res.Successes++

		if s.Validate {
			if reached, ok := r.valid(solution, target); !ok {
				res.Mismatches++
				linear, angular := spatial.PoseError(reached, target)
				r.Logger.Warnf(
					"Ik is bad and should feel bad (%s reported success for sample %d but missed by %.4g m and %.4g deg)",
					s.Name, i, linear.Norm(), utils.RadToDeg(angular.Norm()),
				)
			}
		}
	}

	r.Logger.Infof("%s found %d solutions (%.1f%%) with an average of %.6f secs per sample",
		s.Name, res.Successes, res.SuccessRate(), res.MeanLatency().Seconds())
	return res
}

func (r *Runner) valid(solution []referenceframe.Input, target spatial.Pose) (spatial.Pose, bool) {
	reached, err := r.Chain.Transform(solution)
	if err != nil {
		return spatial.NewZeroPose(), false
	}
	tolerance := r.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return reached, spatial.PoseAlmostEqualEps(reached, target, tolerance)
}
