// Package main runs an IK benchmark: random joint configurations of a URDF chain are turned into tip poses and a
// baseline solver and the solver under test each try to recover them.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/urfave/cli/v2"

	"github.com/detik-robotics/detik/benchmark"
	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/motionplan/ik"
	"github.com/detik-robotics/detik/referenceframe"
	"github.com/detik-robotics/detik/referenceframe/urdf"
	"github.com/detik-robotics/detik/registry"
)

const (
	baselineSolver = "nr"
	latencyBins    = 10
)

var errMissingChainInfo = errors.New("missing chain info in launch file")

type options struct {
	NumSamples    int
	ChainStart    string
	ChainEnd      string
	MaxIterations int
	URDF          string
	Seed          int64
	Solver        string
	SolveType     string
	Plot          string
}

func main() {
	logger := logging.NewLogger("ik-benchmark")
	if err := newApp(logger, os.Stdout).Run(os.Args); err != nil {
		logger.Fatal(err)
	}
	//nolint:errcheck
	logger.Sync()
}

func newApp(logger logging.Logger, out io.Writer) *cli.App {
	return &cli.App{
		Name:   "ik-benchmark",
		Usage:  "measure IK success rate and latency on random samples of a chain",
		Writer: out,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "num-samples", Value: 1000, Usage: "number of random samples"},
			&cli.StringFlag{Name: "chain-start", Usage: "base link of the chain"},
			&cli.StringFlag{Name: "chain-end", Usage: "tip link of the chain"},
			&cli.IntFlag{Name: "max-iterations", Value: 100, Usage: "iteration budget per sample"},
			&cli.StringFlag{Name: "urdf-param", Value: "/robot_description", Usage: "URDF `FILE` describing the robot"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "seed for sampling and solver restarts"},
			&cli.StringFlag{Name: "solver", Value: "combined", Usage: "registered solver under test"},
			&cli.StringFlag{Name: "solve-type", Value: ik.Speed.String(), Usage: "how the solver under test picks a solution"},
			&cli.StringFlag{Name: "plot", Usage: "write a latency histogram to `FILE`"},
			&cli.StringFlag{Name: "params", Usage: "JSON `FILE` with the same keys as the flags, using underscores"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "one of debug, info, warn or error"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging, same as --log-level debug"},
		},
		Before: func(c *cli.Context) error {
			level, err := logging.LevelFromString(c.String("log-level"))
			if err != nil {
				return err
			}
			if c.Bool("debug") {
				level = logging.DEBUG
			}
			logger.SetLevel(level)
			return nil
		},
		Action: func(c *cli.Context) error {
			opts, err := optionsFromContext(c)
			if err != nil {
				return err
			}
			return runBenchmark(opts, logger, c.App.Writer)
		},
	}
}

// optionsFromContext reads the params file, if any, and lets explicitly set flags override it.
func optionsFromContext(c *cli.Context) (options, error) {
	opts := options{
		NumSamples:    c.Int("num-samples"),
		ChainStart:    c.String("chain-start"),
		ChainEnd:      c.String("chain-end"),
		MaxIterations: c.Int("max-iterations"),
		URDF:          c.String("urdf-param"),
		Seed:          c.Int64("seed"),
		Solver:        c.String("solver"),
		SolveType:     c.String("solve-type"),
		Plot:          c.String("plot"),
	}
	if path := c.String("params"); path != "" {
		params, err := readParams(path)
		if err != nil {
			return options{}, err
		}
		if err := applyParams(&opts, params, c.IsSet); err != nil {
			return options{}, err
		}
	}
	opts.NumSamples = normalizeNumSamples(opts.NumSamples)
	if opts.ChainStart == "" || opts.ChainEnd == "" {
		return options{}, errMissingChainInfo
	}
	return opts, nil
}

func readParams(path string) (map[string]interface{}, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read params file")
	}
	var params map[string]interface{}
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, errors.Wrapf(err, "cannot parse params file %s", path)
	}
	return params, nil
}

// applyParams copies params into opts for every flag isSet reports as not given on the command line.
func applyParams(opts *options, params map[string]interface{}, isSet func(string) bool) error {
	for key, value := range params {
		var err error
		switch key {
		case "num_samples":
			if !isSet("num-samples") {
				opts.NumSamples, err = cast.ToIntE(value)
			}
		case "chain_start":
			if !isSet("chain-start") {
				opts.ChainStart, err = cast.ToStringE(value)
			}
		case "chain_end":
			if !isSet("chain-end") {
				opts.ChainEnd, err = cast.ToStringE(value)
			}
		case "max_iterations":
			if !isSet("max-iterations") {
				opts.MaxIterations, err = cast.ToIntE(value)
			}
		case "urdf_param":
			if !isSet("urdf-param") {
				opts.URDF, err = cast.ToStringE(value)
			}
		case "seed":
			if !isSet("seed") {
				opts.Seed, err = cast.ToInt64E(value)
			}
		case "solver":
			if !isSet("solver") {
				opts.Solver, err = cast.ToStringE(value)
			}
		case "solve_type":
			if !isSet("solve-type") {
				opts.SolveType, err = cast.ToStringE(value)
			}
		case "plot":
			if !isSet("plot") {
				opts.Plot, err = cast.ToStringE(value)
			}
		default:
			return errors.Errorf("unknown param %q", key)
		}
		if err != nil {
			return errors.Wrapf(err, "invalid value for param %q", key)
		}
	}
	return nil
}

func normalizeNumSamples(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func runBenchmark(opts options, logger logging.Logger, out io.Writer) error {
	model, err := urdf.ParseModelXMLFile(opts.URDF, "")
	if err != nil {
		logger.Warnf("could not load robot model from %s: %v", opts.URDF, err)
		return nil
	}
	chain, err := referenceframe.BuildChain(model, opts.ChainStart, opts.ChainEnd)
	if err != nil {
		logger.Warnf("failed to initialize chain from %s to %s: %v", opts.ChainStart, opts.ChainEnd, err)
		return nil
	}

	solveType, ok := ik.ParseSolveType(opts.SolveType)
	if !ok {
		logger.Warnf("%s is not a valid solve_type; setting to default: %s", opts.SolveType, ik.Speed)
	}
	cfg := registry.SolverConfig{SolveType: solveType, RandomSeed: opts.Seed}
	baseline, err := registry.NewSolver(baselineSolver, chain, logger, cfg)
	if err != nil {
		return err
	}
	underTest, err := registry.NewSolver(opts.Solver, chain, logger, cfg)
	if err != nil {
		return err
	}

	samples := referenceframe.GenerateSamples(chain.Limits(), opts.NumSamples, opts.Seed)
	runner := benchmark.NewRunner(chain, logger.Sublogger("benchmark"), opts.MaxIterations)
	tested, base := runner.Run(
		benchmark.Strategy{Name: opts.Solver, Solver: underTest, Validate: true},
		benchmark.Strategy{Name: baselineSolver, Solver: baseline},
		samples,
		chain.Midpoint(),
	)

	if _, err := fmt.Fprintln(out, benchmark.RenderTable(base, tested)); err != nil {
		return err
	}
	for _, r := range []benchmark.Result{base, tested} {
		if err := benchmark.WriteLatencyHistogram(out, r, latencyBins); err != nil {
			logger.Debug(err)
		}
	}
	if opts.Plot != "" {
		if err := benchmark.WriteLatencyPlot(opts.Plot, base, tested); err != nil {
			return err
		}
		logger.Infof("wrote latency plot to %s", opts.Plot)
	}
	return nil
}
