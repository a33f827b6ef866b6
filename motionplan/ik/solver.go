// Package ik contains inverse kinematics solvers for serial chains: a joint-limited Newton-Raphson baseline, a
// sequential quadratic programming solver and a deterministic combination of the two.
package ik

import (
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/detik-robotics/detik/referenceframe"
	spatial "github.com/detik-robotics/detik/spatialmath"
)

const (
	// DefaultEpsilon is the pose tolerance used when none is given.
	DefaultEpsilon = 1e-5
	// DefaultMaxIterations is the iteration budget used when none is given.
	DefaultMaxIterations = 1000
)

var (
	// ErrNoSolution is returned when a solver exhausts its budget without converging.
	ErrNoSolution = errors.New("kinematics could not solve for position")

	errBadBounds = errors.New("cannot solve without limits. Are you trying to move a static chain?")
)

// Kinematics is what a solver needs from a chain.
type Kinematics interface {
	DoF() []referenceframe.Limit
	Transform([]referenceframe.Input) (spatial.Pose, error)
	Jacobian([]referenceframe.Input) (*mat.Dense, error)
}

// Bounds are per-axis tolerances on the twist between the reached pose and the goal. An error component whose
// magnitude is within its bound counts as zero; an infinite bound ignores that axis entirely.
type Bounds struct {
	Linear  r3.Vector
	Angular r3.Vector
}

// PositionOnlyBounds ignores orientation.
func PositionOnlyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{Angular: r3.Vector{X: inf, Y: inf, Z: inf}}
}

// SolveOptions tune a single call to Solve.
type SolveOptions struct {
	// MaxIterations is the iteration budget. Zero means DefaultMaxIterations.
	MaxIterations int
	// Epsilon is the tolerance every remaining error component must be below. Zero means DefaultEpsilon.
	Epsilon float64
	Bounds  Bounds
	// Limits replaces the chain's limits for this call, e.g. to keep a solution close to the seed.
	Limits []referenceframe.Limit
}

func (opts SolveOptions) iterations() int {
	if opts.MaxIterations < 1 {
		return DefaultMaxIterations
	}
	return opts.MaxIterations
}

func (opts SolveOptions) epsilon() float64 {
	if opts.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return opts.Epsilon
}

// Solver computes joint values that put the tip of a chain at a goal pose.
type Solver interface {
	// Solve searches from seed for a configuration whose tip pose matches goal within the options' bounds.
	// The returned slice is never shared with the caller's seed. ErrNoSolution is returned when the budget runs out.
	Solve(seed []referenceframe.Input, goal spatial.Pose, opts SolveOptions) ([]referenceframe.Input, error)
	// DoF returns the limits of the chain the solver works on.
	DoF() []referenceframe.Limit
}

// SolveType selects how a solver chooses among the solutions it finds.
type SolveType int

// The solve types.
const (
	// Speed returns the first solution found.
	Speed SolveType = iota
	// Distance returns the solution closest to the seed.
	Distance
	// Manipulation1 returns the solution with the largest manipulability, sqrt(det(J Jᵀ)).
	Manipulation1
	// Manipulation2 returns the solution with the largest inverse condition number of the Jacobian.
	Manipulation2
)

var solveTypeNames = map[SolveType]string{
	Speed:         "Speed",
	Distance:      "Distance",
	Manipulation1: "Manipulation1",
	Manipulation2: "Manipulation2",
}

func (st SolveType) String() string {
	if name, ok := solveTypeNames[st]; ok {
		return name
	}
	return "Unknown"
}

// ParseSolveType returns the solve type with the given name. Matching ignores case.
func ParseSolveType(name string) (SolveType, bool) {
	for st, n := range solveTypeNames {
		if strings.EqualFold(n, name) {
			return st, true
		}
	}
	return Speed, false
}

// problem is one Solve call resolved against a chain: everything a search routine needs and nothing it may share.
type problem struct {
	model   Kinematics
	goal    spatial.Pose
	limits  []referenceframe.Limit
	lower   []float64
	upper   []float64
	bounds  Bounds
	epsilon float64
}

func newProblem(model Kinematics, seed []referenceframe.Input, goal spatial.Pose, opts SolveOptions) (*problem, error) {
	limits := opts.Limits
	if limits == nil {
		limits = model.DoF()
	}
	if len(limits) == 0 {
		return nil, errBadBounds
	}
	if len(seed) != len(limits) {
		return nil, referenceframe.NewIncorrectDoFError(len(seed), len(limits))
	}
	if goal == nil {
		return nil, errors.New("goal pose cannot be nil")
	}
	lower, upper := referenceframe.LimitsToArrays(limits)
	return &problem{
		model:   model,
		goal:    goal,
		limits:  limits,
		lower:   lower,
		upper:   upper,
		bounds:  opts.Bounds,
		epsilon: opts.epsilon(),
	}, nil
}

// clamp returns a copy of q moved inside the limits.
func (p *problem) clamp(q []referenceframe.Input) []referenceframe.Input {
	out := make([]referenceframe.Input, len(q))
	for i, v := range q {
		out[i] = p.limits[i].Clamp(v)
	}
	return out
}

// residual returns the bounded error twist of q against the goal as a 6-vector, linear first.
func (p *problem) residual(q []referenceframe.Input) ([6]float64, error) {
	pose, err := p.model.Transform(q)
	if err != nil {
		return [6]float64{}, err
	}
	linear, angular := BoundedError(pose, p.goal, p.bounds)
	return [6]float64{linear.X, linear.Y, linear.Z, angular.X, angular.Y, angular.Z}, nil
}

// converged reports whether every residual component is below epsilon.
func (p *problem) converged(res [6]float64) bool {
	for _, v := range res {
		if math.Abs(v) >= p.epsilon {
			return false
		}
	}
	return true
}

// activeRows lists the twist components that take part in the search; axes with infinite bounds are dropped.
func (p *problem) activeRows() []int {
	bounds := [6]float64{
		p.bounds.Linear.X, p.bounds.Linear.Y, p.bounds.Linear.Z,
		p.bounds.Angular.X, p.bounds.Angular.Y, p.bounds.Angular.Z,
	}
	rows := make([]int, 0, 6)
	for i, b := range bounds {
		if !math.IsInf(b, 1) {
			rows = append(rows, i)
		}
	}
	return rows
}

// cost is the squared norm of the bounded error, the objective the optimizers minimize.
func (p *problem) cost(q []referenceframe.Input) float64 {
	c, _ := p.evaluate(q)
	return c
}

// evaluate returns the cost of q and whether q already satisfies the tolerance.
func (p *problem) evaluate(q []referenceframe.Input) (float64, bool) {
	res, err := p.residual(q)
	if err != nil {
		return math.Inf(1), false
	}
	sum := 0.
	for _, v := range res {
		sum += v * v
	}
	return sum, p.converged(res)
}
