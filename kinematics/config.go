package kinematics

import (
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/motionplan/ik"
)

// Defaults for the options recognized at initialization.
const (
	DefaultSolveType = "Speed"
	DefaultSolver    = "combined"
	// DefaultIterationsPerSecond converts a timeout into an iteration budget: 1500 iterations per 5ms.
	DefaultIterationsPerSecond = 1500 / 0.005
	// DefaultTimeoutSeconds is used when a query does not give a timeout.
	DefaultTimeoutSeconds = 0.005
	DefaultRandomSeed     = 1
)

// Config holds the options recognized at initialization.
type Config struct {
	// PositionOnlyIK ignores the orientation of IK targets.
	PositionOnlyIK bool `json:"position_only_ik"`
	// SolveType is the name of an ik.SolveType. Unknown names fall back to Speed.
	SolveType string `json:"solve_type"`
	// Epsilon is the pose tolerance.
	Epsilon             float64 `json:"epsilon"`
	IterationsPerSecond float64 `json:"iterations_per_second"`
	// DefaultTimeout is in seconds.
	DefaultTimeout float64 `json:"default_timeout"`
	// Solver is the registered name of the solver to use.
	Solver     string `json:"solver"`
	RandomSeed int64  `json:"random_seed"`
}

// NewDefaultConfig returns the configuration used when no options are given.
func NewDefaultConfig() *Config {
	return &Config{
		SolveType:           DefaultSolveType,
		Epsilon:             ik.DefaultEpsilon,
		IterationsPerSecond: DefaultIterationsPerSecond,
		DefaultTimeout:      DefaultTimeoutSeconds,
		Solver:              DefaultSolver,
		RandomSeed:          DefaultRandomSeed,
	}
}

// ParseConfig decodes an attribute map on top of the defaults. Keys the provider does not know are logged and
// otherwise ignored; values of the wrong type are an error.
func ParseConfig(attrs map[string]interface{}, logger logging.Logger) (*Config, error) {
	cfg := NewDefaultConfig()
	if len(attrs) == 0 {
		return cfg, nil
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           cfg,
		Metadata:         &md,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "invalid kinematics options")
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		logger.Warnw("ignoring unknown kinematics options", "keys", md.Unused)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	if cfg.Epsilon <= 0 {
		return errors.Errorf("epsilon must be positive, got %v", cfg.Epsilon)
	}
	if cfg.IterationsPerSecond <= 0 {
		return errors.Errorf("iterations_per_second must be positive, got %v", cfg.IterationsPerSecond)
	}
	if cfg.DefaultTimeout <= 0 {
		return errors.Errorf("default_timeout must be positive, got %v", cfg.DefaultTimeout)
	}
	if cfg.Solver == "" {
		return errors.New("solver cannot be empty")
	}
	return nil
}

// ResolveSolveType parses the configured solve type, falling back to Speed with a warning.
func (cfg *Config) ResolveSolveType(logger logging.Logger) ik.SolveType {
	st, ok := ik.ParseSolveType(cfg.SolveType)
	if !ok {
		logger.Warnf("%s is not a valid solve_type; setting to default: %s", cfg.SolveType, ik.Speed)
		return ik.Speed
	}
	return st
}

// Bounds returns the solver tolerances: exact by default, orientation ignored for position only IK.
func (cfg *Config) Bounds() ik.Bounds {
	if cfg.PositionOnlyIK {
		return ik.PositionOnlyBounds()
	}
	return ik.Bounds{}
}

// Iterations converts a timeout into an iteration budget of at least one. A non-positive timeout uses the default.
func (cfg *Config) Iterations(timeout time.Duration) int {
	seconds := timeout.Seconds()
	if seconds <= 0 {
		seconds = cfg.DefaultTimeout
	}
	iterations := int(seconds * cfg.IterationsPerSecond)
	if iterations < 1 {
		return 1
	}
	return iterations
}
