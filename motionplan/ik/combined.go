package ik

import (
	"math"
	"math/rand"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/referenceframe"
	spatial "github.com/detik-robotics/detik/spatialmath"
)

const (
	// iterations given to each Newton-Raphson round.
	nrRoundIterations = 20
	// objective evaluations given to each SQP round.
	sqpRoundEvaluations = 30
)

// CombinedIK alternates Newton-Raphson and SQP rounds within one iteration budget, restarting both from a random
// configuration after each pair. All randomness comes from a fixed seed and the round sizes do not depend on the
// budget, so the same query always takes the same path and a larger budget only extends it.
type CombinedIK struct {
	model      Kinematics
	solveType  SolveType
	randomSeed int64
	logger     logging.Logger
}

// NewCombinedIK creates a combined solver for the given chain.
func NewCombinedIK(model Kinematics, logger logging.Logger, solveType SolveType, randomSeed int64) *CombinedIK {
	return &CombinedIK{
		model:      model,
		solveType:  solveType,
		randomSeed: randomSeed,
		logger:     logger,
	}
}

// DoF returns the limits of the chain.
func (ik *CombinedIK) DoF() []referenceframe.Limit {
	return ik.model.DoF()
}

// SolveType returns how the solver chooses among solutions.
func (ik *CombinedIK) SolveType() SolveType {
	return ik.solveType
}

// Solve searches until a solution is found, for Speed, or until the budget is spent, for the other solve types,
// and returns the best solution by the solve type's measure.
func (ik *CombinedIK) Solve(
	seed []referenceframe.Input,
	goal spatial.Pose,
	opts SolveOptions,
) ([]referenceframe.Input, error) {
	p, err := newProblem(ik.model, seed, goal, opts)
	if err != nil {
		return nil, err
	}
	budget := opts.iterations()

	//nolint:gosec
	rSeed := rand.New(rand.NewSource(ik.randomSeed))
	start := p.clamp(seed)

	var best []referenceframe.Input
	bestScore := math.Inf(-1)
	found := 0

	used := 0
	for round := 0; used < budget; round++ {
		remaining := budget - used

		var q []referenceframe.Input
		var n int
		var ok bool
		if round%2 == 0 {
			q, n, ok = newtonRaphson(p, start, min(nrRoundIterations, remaining))
		} else {
			q, n, ok = sqpSearch(p, start, min(sqpRoundEvaluations, remaining))
		}
		used += max(n, 1)

		if ok {
			found++
			if ik.solveType == Speed {
				return q, nil
			}
			if score := ik.score(q, seed); best == nil || score > bestScore {
				best, bestScore = q, score
			}
		}

		if round%2 == 1 {
			start = referenceframe.RandomConfiguration(p.limits, rSeed)
		}
	}

	if best == nil {
		ik.logger.Debugw("combined solver exhausted budget", "iterations", used)
		return nil, ErrNoSolution
	}
	ik.logger.Debugw("combined solver finished", "solutions", found, "solve_type", ik.solveType.String(), "score", bestScore)
	return best, nil
}

// score rates a solution for the configured solve type. Higher is better.
func (ik *CombinedIK) score(q, seed []referenceframe.Input) float64 {
	switch ik.solveType {
	case Distance:
		return -JointDistance(q, seed)
	case Manipulation1, Manipulation2:
		jac, err := ik.model.Jacobian(q)
		if err != nil {
			return math.Inf(-1)
		}
		if ik.solveType == Manipulation1 {
			return Manipulability(jac)
		}
		return InverseConditionNumber(jac)
	case Speed:
		return 0
	default:
		return 0
	}
}
