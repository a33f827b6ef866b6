// Package registry operates the global registry of inverse kinematics solvers. A solver is chosen by name at
// startup by whatever embeds the kinematics adapter or runs the benchmark.
package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/motionplan/ik"
)

// SolverConfig carries the options every solver constructor receives.
type SolverConfig struct {
	SolveType  ik.SolveType
	RandomSeed int64
}

// A CreateSolver creates a solver for a chain from a given config.
type CreateSolver func(model ik.Kinematics, logger logging.Logger, cfg SolverConfig) (ik.Solver, error)

var (
	solverRegistryMu sync.RWMutex
	solverRegistry   = map[string]CreateSolver{}
)

func init() {
	RegisterSolver("nr", func(model ik.Kinematics, logger logging.Logger, cfg SolverConfig) (ik.Solver, error) {
		return ik.NewNewtonRaphsonIK(model, logger), nil
	})
	RegisterSolver("sqp", func(model ik.Kinematics, logger logging.Logger, cfg SolverConfig) (ik.Solver, error) {
		return ik.NewSQPIK(model, logger), nil
	})
	RegisterSolver("combined", func(model ik.Kinematics, logger logging.Logger, cfg SolverConfig) (ik.Solver, error) {
		return ik.NewCombinedIK(model, logger, cfg.SolveType, cfg.RandomSeed), nil
	})
}

// RegisterSolver registers a solver name to a creator.
func RegisterSolver(name string, creator CreateSolver) {
	solverRegistryMu.Lock()
	defer solverRegistryMu.Unlock()
	if _, old := solverRegistry[name]; old {
		panic(errors.Errorf("trying to register two solvers with same name %s", name))
	}
	if creator == nil {
		panic(errors.Errorf("cannot register a nil constructor for solver %s", name))
	}
	solverRegistry[name] = creator
}

// SolverLookup looks up a solver creator by the given name. nil is returned if
// there is no creator registered.
func SolverLookup(name string) CreateSolver {
	solverRegistryMu.RLock()
	defer solverRegistryMu.RUnlock()
	return solverRegistry[name]
}

// NewSolver creates the named solver.
func NewSolver(name string, model ik.Kinematics, logger logging.Logger, cfg SolverConfig) (ik.Solver, error) {
	creator := SolverLookup(name)
	if creator == nil {
		return nil, errors.Errorf("unknown solver %q, known solvers are %v", name, SolverNames())
	}
	return creator(model, logger, cfg)
}

// SolverNames returns the registered names in sorted order.
func SolverNames() []string {
	solverRegistryMu.RLock()
	defer solverRegistryMu.RUnlock()
	names := make([]string, 0, len(solverRegistry))
	for name := range solverRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
