// Package kinematics exposes a serial chain and an inverse kinematics solver through the query surface a motion
// planning framework expects from a kinematics plugin.
package kinematics

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/motionplan/ik"
	"github.com/detik-robotics/detik/referenceframe"
	"github.com/detik-robotics/detik/registry"
	spatial "github.com/detik-robotics/detik/spatialmath"
)

// A SolutionCallback inspects a solution before it is returned. Anything other than Success rejects it.
type SolutionCallback func(target spatial.Pose, solution []referenceframe.Input) ErrorCode

// SearchOptions tune a single IK query.
type SearchOptions struct {
	// Timeout is converted into an iteration budget. Zero uses the configured default.
	Timeout time.Duration
	// ConsistencyLimits, when set, keep every joint within this distance of its seed value.
	ConsistencyLimits []float64
	Callback          SolutionCallback
}

// Provider is the surface a motion planning framework queries.
type Provider interface {
	Initialize(
		model *referenceframe.Model,
		groupName, baseFrame string,
		tipFrames []string,
		searchDiscretization float64,
		attrs map[string]interface{},
	) error
	GetPositionFK(linkNames []string, q []referenceframe.Input) ([]spatial.Pose, error)
	GetPositionIK(target spatial.Pose, seed []referenceframe.Input) ([]referenceframe.Input, ErrorCode, error)
	SearchPositionIK(
		target spatial.Pose,
		seed []referenceframe.Input,
		opts SearchOptions,
	) ([]referenceframe.Input, ErrorCode, error)
	JointNames() []string
	LinkNames() []string
	BaseFrame() string
	TipFrame() string
	GroupName() string
}

// Adapter is a Provider backed by a registered solver. Queries may run concurrently with each other; Initialize
// replaces the chain and solver atomically.
type Adapter struct {
	logger logging.Logger

	mu                   sync.RWMutex
	groupName            string
	searchDiscretization float64
	chain                *referenceframe.Chain
	solver               ik.Solver
	cfg                  *Config
	solveType            ik.SolveType
}

var _ Provider = (*Adapter)(nil)

// NewAdapter returns an uninitialized adapter.
func NewAdapter(logger logging.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Initialize builds the chain from baseFrame to the single tip frame and constructs the configured solver.
func (a *Adapter) Initialize(
	model *referenceframe.Model,
	groupName, baseFrame string,
	tipFrames []string,
	searchDiscretization float64,
	attrs map[string]interface{},
) error {
	if model == nil {
		return referenceframe.NewModelLoadError("no model given")
	}
	if len(tipFrames) != 1 {
		return errors.Errorf("expecting exactly 1 tip frame, got %d", len(tipFrames))
	}
	cfg, err := ParseConfig(attrs, a.logger)
	if err != nil {
		return err
	}

	chain, err := referenceframe.BuildChain(model, baseFrame, tipFrames[0])
	if err != nil {
		return errors.Wrapf(err, "cannot initialize group %q", groupName)
	}
	solveType := cfg.ResolveSolveType(a.logger)
	solver, err := registry.NewSolver(cfg.Solver, chain, a.logger, registry.SolverConfig{
		SolveType:  solveType,
		RandomSeed: cfg.RandomSeed,
	})
	if err != nil {
		return err
	}
	if cfg.PositionOnlyIK {
		a.logger.Infof("using position only ik for group %q", groupName)
	}
	a.logger.Debugw("kinematics initialized",
		"group", groupName,
		"base", chain.BaseLink(),
		"tip", chain.TipLink(),
		"joints", chain.NumJoints(),
		"solver", cfg.Solver,
		"solve_type", solveType.String(),
	)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.groupName = groupName
	a.searchDiscretization = searchDiscretization
	a.chain = chain
	a.solver = solver
	a.cfg = cfg
	a.solveType = solveType
	return nil
}

type snapshot struct {
	chain  *referenceframe.Chain
	solver ik.Solver
	cfg    *Config
}

func (a *Adapter) snapshot() (snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.chain == nil {
		return snapshot{}, ErrNotInitialized
	}
	return snapshot{chain: a.chain, solver: a.solver, cfg: a.cfg}, nil
}

// GetPositionIK solves for target with the default timeout.
func (a *Adapter) GetPositionIK(
	target spatial.Pose,
	seed []referenceframe.Input,
) ([]referenceframe.Input, ErrorCode, error) {
	return a.SolveIK(target, seed, SearchOptions{})
}

// SearchPositionIK solves for target with the given options.
func (a *Adapter) SearchPositionIK(
	target spatial.Pose,
	seed []referenceframe.Input,
	opts SearchOptions,
) ([]referenceframe.Input, ErrorCode, error) {
	return a.SolveIK(target, seed, opts)
}

// SolveIK is the query every IK entry point goes through.
func (a *Adapter) SolveIK(
	target spatial.Pose,
	seed []referenceframe.Input,
	opts SearchOptions,
) ([]referenceframe.Input, ErrorCode, error) {
	s, err := a.snapshot()
	if err != nil {
		return nil, Failure, err
	}
	if target == nil {
		return nil, Failure, errors.New("cannot solve for a nil target")
	}
	n := s.chain.NumJoints()
	if len(seed) != n {
		err := NewSeedSizeMismatchError("seed state", len(seed), n)
		a.logger.Error(err)
		return nil, NoIKSolution, err
	}

	limits := s.chain.Limits()
	if opts.ConsistencyLimits != nil {
		if len(opts.ConsistencyLimits) != n {
			err := NewSeedSizeMismatchError("consistency limits", len(opts.ConsistencyLimits), n)
			a.logger.Error(err)
			return nil, NoIKSolution, err
		}
		narrowed := make([]referenceframe.Limit, n)
		for i, c := range opts.ConsistencyLimits {
			if c < 0 {
				return nil, Failure, errors.Errorf("consistency limit %d must not be negative, got %v", i, c)
			}
			narrowed[i] = limits[i].Intersect(seed[i]-c, seed[i]+c)
		}
		limits = narrowed
	}

	solution, err := s.solver.Solve(seed, target, ik.SolveOptions{
		MaxIterations: s.cfg.Iterations(opts.Timeout),
		Epsilon:       s.cfg.Epsilon,
		Bounds:        s.cfg.Bounds(),
		Limits:        limits,
	})
	if err != nil {
		if errors.Is(err, ik.ErrNoSolution) {
			a.logger.Debugw("no ik solution", "point", target.Point())
			return nil, NoIKSolution, err
		}
		return nil, Failure, err
	}

	if opts.Callback == nil {
		return solution, Success, nil
	}
	if code := opts.Callback(target, solution); code != Success {
		a.logger.Debugf("solution callback rejected solution with %v", code)
		return nil, code, &CallbackRejectedError{Code: code}
	}
	return solution, Success, nil
}

// GetPositionFK returns the pose of each named link for joint values q, relative to the base frame. An unknown
// link leaves a nil pose at its index; the other poses are still computed.
func (a *Adapter) GetPositionFK(linkNames []string, q []referenceframe.Input) ([]spatial.Pose, error) {
	s, err := a.snapshot()
	if err != nil {
		return nil, err
	}
	if len(q) != s.chain.NumJoints() {
		return nil, referenceframe.NewIncorrectDoFError(len(q), s.chain.NumJoints())
	}

	poses := make([]spatial.Pose, len(linkNames))
	var errs error
	for i, name := range linkNames {
		idx := s.chain.SegmentIndex(name)
		if idx < 0 {
			errs = multierr.Append(errs, referenceframe.NewForwardKinematicsError(name))
			continue
		}
		pose, err := s.chain.TransformTo(q, idx)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		poses[i] = pose
	}
	return poses, errs
}

// JointNames returns the names of the movable joints in chain order.
func (a *Adapter) JointNames() []string {
	s, err := a.snapshot()
	if err != nil {
		return nil
	}
	return s.chain.JointNames()
}

// LinkNames returns the base link followed by the link of every segment.
func (a *Adapter) LinkNames() []string {
	s, err := a.snapshot()
	if err != nil {
		return nil
	}
	return s.chain.LinkNames()
}

// BaseFrame returns the link the chain starts at.
func (a *Adapter) BaseFrame() string {
	s, err := a.snapshot()
	if err != nil {
		return ""
	}
	return s.chain.BaseLink()
}

// TipFrame returns the link the chain ends at.
func (a *Adapter) TipFrame() string {
	s, err := a.snapshot()
	if err != nil {
		return ""
	}
	return s.chain.TipLink()
}

// GroupName returns the name given at initialization.
func (a *Adapter) GroupName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.groupName
}

// SearchDiscretization returns the value given at initialization. Solvers here do not use it.
func (a *Adapter) SearchDiscretization() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.searchDiscretization
}

// SolveType returns the solve type in effect after fallback.
func (a *Adapter) SolveType() ik.SolveType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.solveType
}

// Chain returns the chain built at initialization, or nil.
func (a *Adapter) Chain() *referenceframe.Chain {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.chain
}
