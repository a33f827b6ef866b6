package kinematics

import (
	"math"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/motionplan/ik"
)

func TestParseConfigDefaults(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := ParseConfig(nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, NewDefaultConfig())
	test.That(t, cfg.Epsilon, test.ShouldEqual, 1e-5)
	test.That(t, cfg.ResolveSolveType(logger), test.ShouldEqual, ik.Speed)
	test.That(t, cfg.Bounds(), test.ShouldResemble, ik.Bounds{})

	// 5ms at 1500 iterations per 5ms
	test.That(t, cfg.Iterations(0), test.ShouldEqual, 1500)
	test.That(t, cfg.Iterations(10*time.Millisecond), test.ShouldEqual, 3000)
	test.That(t, cfg.Iterations(time.Nanosecond), test.ShouldEqual, 1)
}

func TestParseConfig(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := ParseConfig(map[string]interface{}{
		"position_only_ik":      "true",
		"solve_type":            "Manipulation2",
		"epsilon":               1e-4,
		"iterations_per_second": 1000,
		"default_timeout":       "0.5",
		"solver":                "nr",
		"random_seed":           42,
		"kinematics_solver":     "trac_ik",
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.PositionOnlyIK, test.ShouldBeTrue)
	test.That(t, cfg.ResolveSolveType(logger), test.ShouldEqual, ik.Manipulation2)
	test.That(t, cfg.Epsilon, test.ShouldEqual, 1e-4)
	test.That(t, cfg.Iterations(0), test.ShouldEqual, 500)
	test.That(t, cfg.Solver, test.ShouldEqual, "nr")
	test.That(t, cfg.RandomSeed, test.ShouldEqual, int64(42))
	test.That(t, math.IsInf(cfg.Bounds().Angular.X, 1), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("ignoring unknown kinematics options").Len(), test.ShouldEqual, 1)
}

func TestParseConfigErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, attrs := range []map[string]interface{}{
		{"epsilon": 0},
		{"iterations_per_second": -1},
		{"default_timeout": 0},
		{"solver": ""},
		{"random_seed": "not a number"},
	} {
		_, err := ParseConfig(attrs, logger)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestUnknownSolveType(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := ParseConfig(map[string]interface{}{"solve_type": "Fastest"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ResolveSolveType(logger), test.ShouldEqual, ik.Speed)
	test.That(t, logs.FilterMessage("Fastest is not a valid solve_type; setting to default: Speed").Len(), test.ShouldEqual, 1)
}
