package benchmark

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/motionplan/ik"
	frame "github.com/detik-robotics/detik/referenceframe"
	"github.com/detik-robotics/detik/referenceframe/urdf"
	spatial "github.com/detik-robotics/detik/spatialmath"
	"github.com/detik-robotics/detik/utils"
)

type answer struct {
	solution []frame.Input
	err      error
	took     time.Duration
}

// scriptedSolver replays canned answers and advances a mock clock by the time each one is said to take.
type scriptedSolver struct {
	clock   *clock.Mock
	limits  []frame.Limit
	answers []answer
	calls   int
}

func (s *scriptedSolver) Solve(seed []frame.Input, goal spatial.Pose, opts ik.SolveOptions) ([]frame.Input, error) {
	a := s.answers[s.calls]
	s.calls++
	s.clock.Add(a.took)
	return a.solution, a.err
}

func (s *scriptedSolver) DoF() []frame.Limit {
	return s.limits
}

func ur5eChain(t *testing.T) *frame.Chain {
	t.Helper()
	model, err := urdf.ParseModelXMLFile(utils.ResolveFile("referenceframe/urdf/testdata/ur5e.urdf"), "")
	test.That(t, err, test.ShouldBeNil)
	chain, err := frame.BuildChain(model, "base_link", "tool0")
	test.That(t, err, test.ShouldBeNil)
	return chain
}

func TestRunStrategy(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	chain := ur5eChain(t)
	mock := clock.NewMock()
	runner := NewRunner(chain, logger, 100)
	runner.Clock = mock

	samples := frame.GenerateSamples(chain.Limits(), 4, 3)
	solver := &scriptedSolver{
		clock:  mock,
		limits: chain.Limits(),
		answers: []answer{
			{solution: samples[0], took: 2 * time.Millisecond},
			{err: ik.ErrNoSolution, took: 8 * time.Millisecond},
			{solution: chain.Midpoint(), took: 4 * time.Millisecond},
			{solution: samples[3], took: 2 * time.Millisecond},
		},
	}

	res := runner.RunStrategy(Strategy{Name: "scripted", Solver: solver, Validate: true}, samples, chain.Midpoint())
	test.That(t, solver.calls, test.ShouldEqual, 4)
	test.That(t, res.Name, test.ShouldEqual, "scripted")
	test.That(t, res.Total, test.ShouldEqual, 4)
	// the midpoint answer is reported as a success even though it misses
	test.That(t, res.Successes, test.ShouldEqual, 3)
	test.That(t, res.Mismatches, test.ShouldEqual, 1)
	test.That(t, res.SuccessRate(), test.ShouldEqual, 75.)
	test.That(t, res.TotalTime, test.ShouldEqual, 16*time.Millisecond)
	test.That(t, res.MeanLatency(), test.ShouldEqual, 4*time.Millisecond)
	test.That(t, res.Latencies, test.ShouldResemble, []time.Duration{
		2 * time.Millisecond, 8 * time.Millisecond, 4 * time.Millisecond, 2 * time.Millisecond,
	})

	test.That(t, logs.FilterMessage("*** Testing scripted with 4 random samples").Len(), test.ShouldEqual, 1)
	test.That(t,
		logs.FilterMessage("scripted found 3 solutions (75.0%) with an average of 0.004000 secs per sample").Len(),
		test.ShouldEqual, 1)
	test.That(t, logs.FilterMessageSnippet("Ik is bad and should feel bad").Len(), test.ShouldEqual, 1)
	// every one of four samples starts a new decile
	test.That(t, logs.FilterMessageSnippet("% done").Len(), test.ShouldEqual, 4)
	test.That(t, logs.FilterMessage("25% done").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("75% done").Len(), test.ShouldEqual, 1)
}

func TestRunOrder(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	chain := ur5eChain(t)
	mock := clock.NewMock()
	runner := NewRunner(chain, logger, 100)
	runner.Clock = mock

	samples := frame.GenerateSamples(chain.Limits(), 2, 5)
	baseline := &scriptedSolver{clock: mock, limits: chain.Limits(), answers: []answer{
		{err: ik.ErrNoSolution, took: time.Millisecond},
		{solution: samples[1], took: time.Millisecond},
	}}
	underTest := &scriptedSolver{clock: mock, limits: chain.Limits(), answers: []answer{
		{solution: samples[0], took: time.Millisecond},
		{solution: samples[1], took: time.Millisecond},
	}}

	tested, base := runner.Run(
		Strategy{Name: "TRAC-IK", Solver: underTest, Validate: true},
		Strategy{Name: "KDL", Solver: baseline},
		samples, chain.Midpoint(),
	)
	test.That(t, base.Name, test.ShouldEqual, "KDL")
	test.That(t, base.Successes, test.ShouldEqual, 1)
	test.That(t, tested.Name, test.ShouldEqual, "TRAC-IK")
	test.That(t, tested.Successes, test.ShouldEqual, 2)

	starts := logs.FilterMessageSnippet("*** Testing").All()
	test.That(t, len(starts), test.ShouldEqual, 2)
	test.That(t, starts[0].Message, test.ShouldContainSubstring, "KDL")
	test.That(t, starts[1].Message, test.ShouldContainSubstring, "TRAC-IK")
}

func TestRunWithSolvers(t *testing.T) {
	logger := logging.NewTestLogger(t)
	chain := ur5eChain(t)
	runner := NewRunner(chain, logger, 20000)
	samples := frame.GenerateSamples(chain.Limits(), 3, 1)

	results, err := runner.RunParallel([]Strategy{
		{Name: "nr", Solver: ik.NewNewtonRaphsonIK(chain, logger)},
		{Name: "combined", Solver: ik.NewCombinedIK(chain, logger, ik.Speed, 1), Validate: true},
	}, samples, chain.Midpoint())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(results), test.ShouldEqual, 2)
	test.That(t, results[0].Name, test.ShouldEqual, "nr")
	test.That(t, results[0].Total, test.ShouldEqual, 3)
	test.That(t, results[1].Successes, test.ShouldEqual, 3)
	test.That(t, results[1].Mismatches, test.ShouldEqual, 0)

	_, err = runner.RunParallel([]Strategy{{Name: "empty"}}, samples, chain.Midpoint())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestResultStats(t *testing.T) {
	res := Result{Name: "empty"}
	test.That(t, res.SuccessRate(), test.ShouldEqual, 0.)
	test.That(t, res.MeanLatency(), test.ShouldEqual, time.Duration(0))
	_, err := res.LatencyStats()
	test.That(t, err, test.ShouldNotBeNil)

	res = Result{Name: "r", Total: 5, Successes: 5}
	for i := 1; i <= 5; i++ {
		res.Latencies = append(res.Latencies, time.Duration(i)*time.Millisecond)
		res.TotalTime += time.Duration(i) * time.Millisecond
	}
	s, err := res.LatencyStats()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Median, test.ShouldEqual, 3*time.Millisecond)
	test.That(t, s.Max, test.ShouldEqual, 5*time.Millisecond)
	test.That(t, s.P95 >= 4*time.Millisecond && s.P95 <= 5*time.Millisecond, test.ShouldBeTrue)
	test.That(t, res.MeanLatency(), test.ShouldEqual, 3*time.Millisecond)
}

func TestReports(t *testing.T) {
	results := []Result{
		{Name: "KDL", Total: 2, Successes: 1, TotalTime: 3 * time.Millisecond,
			Latencies: []time.Duration{time.Millisecond, 2 * time.Millisecond}},
		{Name: "TRAC-IK", Total: 0},
	}
	out := RenderTable(results...)
	test.That(t, out, test.ShouldContainSubstring, "KDL")
	test.That(t, out, test.ShouldContainSubstring, "1/2")
	test.That(t, out, test.ShouldContainSubstring, "50.0%")
	test.That(t, out, test.ShouldContainSubstring, "TRAC-IK")

	path := filepath.Join(t.TempDir(), "latency.png")
	test.That(t, WriteLatencyPlot(path, results...), test.ShouldBeNil)
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)

	test.That(t, WriteLatencyPlot(path, Result{Name: "none"}), test.ShouldNotBeNil)

	var buf bytes.Buffer
	test.That(t, WriteLatencyHistogram(&buf, results[0], 5), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "KDL latency (ms)")
	test.That(t, WriteLatencyHistogram(&buf, results[1], 5), test.ShouldNotBeNil)
}
