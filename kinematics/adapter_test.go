package kinematics

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/detik-robotics/detik/logging"
	"github.com/detik-robotics/detik/motionplan/ik"
	frame "github.com/detik-robotics/detik/referenceframe"
	"github.com/detik-robotics/detik/referenceframe/urdf"
	spatial "github.com/detik-robotics/detik/spatialmath"
	"github.com/detik-robotics/detik/utils"
)

func loadModel(t *testing.T, file string) *frame.Model {
	t.Helper()
	model, err := urdf.ParseModelXMLFile(utils.ResolveFile("referenceframe/urdf/testdata/"+file), "")
	test.That(t, err, test.ShouldBeNil)
	return model
}

func newUR5eAdapter(t *testing.T, attrs map[string]interface{}) *Adapter {
	t.Helper()
	a := NewAdapter(logging.NewTestLogger(t))
	err := a.Initialize(loadModel(t, "ur5e.urdf"), "manipulator", "base_link", []string{"tool0"}, 0.005, attrs)
	test.That(t, err, test.ShouldBeNil)
	return a
}

func TestInitialize(t *testing.T) {
	a := newUR5eAdapter(t, nil)
	test.That(t, a.GroupName(), test.ShouldEqual, "manipulator")
	test.That(t, a.BaseFrame(), test.ShouldEqual, "base_link")
	test.That(t, a.TipFrame(), test.ShouldEqual, "tool0")
	test.That(t, len(a.JointNames()), test.ShouldEqual, 6)
	test.That(t, a.LinkNames()[0], test.ShouldEqual, "base_link")
	test.That(t, a.SearchDiscretization(), test.ShouldEqual, 0.005)
	test.That(t, a.SolveType(), test.ShouldEqual, ik.Speed)

	t.Run("tip count", func(t *testing.T) {
		a := NewAdapter(logging.NewTestLogger(t))
		model := loadModel(t, "ur5e.urdf")
		err := a.Initialize(model, "manipulator", "base_link", nil, 0.005, nil)
		test.That(t, err, test.ShouldNotBeNil)
		err = a.Initialize(model, "manipulator", "base_link", []string{"tool0", "wrist_3_link"}, 0.005, nil)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, a.Chain(), test.ShouldBeNil)
	})

	t.Run("nil model", func(t *testing.T) {
		a := NewAdapter(logging.NewTestLogger(t))
		err := a.Initialize(nil, "manipulator", "base_link", []string{"tool0"}, 0.005, nil)
		test.That(t, errors.Is(err, frame.ErrModelLoad), test.ShouldBeTrue)
	})

	t.Run("unknown base", func(t *testing.T) {
		a := NewAdapter(logging.NewTestLogger(t))
		err := a.Initialize(loadModel(t, "ur5e.urdf"), "manipulator", "nowhere", []string{"tool0"}, 0.005, nil)
		test.That(t, errors.Is(err, frame.ErrModelTraversal), test.ShouldBeTrue)
		test.That(t, a.Chain(), test.ShouldBeNil)
	})

	t.Run("unknown solver", func(t *testing.T) {
		a := NewAdapter(logging.NewTestLogger(t))
		err := a.Initialize(loadModel(t, "ur5e.urdf"), "manipulator", "base_link", []string{"tool0"}, 0.005,
			map[string]interface{}{"solver": "nope"})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "nope")
	})
}

func TestQueriesBeforeInitialize(t *testing.T) {
	a := NewAdapter(logging.NewTestLogger(t))
	_, code, err := a.GetPositionIK(spatial.NewZeroPose(), nil)
	test.That(t, errors.Is(err, ErrNotInitialized), test.ShouldBeTrue)
	test.That(t, code, test.ShouldEqual, Failure)
	_, err = a.GetPositionFK([]string{"tool0"}, nil)
	test.That(t, errors.Is(err, ErrNotInitialized), test.ShouldBeTrue)
	test.That(t, a.JointNames(), test.ShouldBeNil)
	test.That(t, a.TipFrame(), test.ShouldEqual, "")
}

func TestUR5eRoundTrip(t *testing.T) {
	a := newUR5eAdapter(t, nil)
	chain := a.Chain()

	sample := frame.GenerateSamples(chain.Limits(), 1, 1)[0]
	target, err := chain.Transform(sample)
	test.That(t, err, test.ShouldBeNil)

	solution, code, err := a.SearchPositionIK(target, chain.Midpoint(), SearchOptions{Timeout: time.Second})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, code, test.ShouldEqual, Success)
	test.That(t, len(solution), test.ShouldEqual, 6)

	poses, err := a.GetPositionFK([]string{"tool0"}, solution)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostEqualEps(poses[0], target, 1e-3), test.ShouldBeTrue)
}

func TestSeedSizeMismatch(t *testing.T) {
	a := newUR5eAdapter(t, nil)
	target, err := a.Chain().Transform(a.Chain().Midpoint())
	test.That(t, err, test.ShouldBeNil)

	solution, code, err := a.GetPositionIK(target, []frame.Input{0, 0, 0})
	test.That(t, errors.Is(err, ErrSeedSizeMismatch), test.ShouldBeTrue)
	test.That(t, code, test.ShouldEqual, NoIKSolution)
	test.That(t, solution, test.ShouldBeNil)

	_, code, err = a.SearchPositionIK(target, a.Chain().Midpoint(), SearchOptions{ConsistencyLimits: []float64{0.1}})
	test.That(t, errors.Is(err, ErrSeedSizeMismatch), test.ShouldBeTrue)
	test.That(t, code, test.ShouldEqual, NoIKSolution)
}

func TestUnreachableTarget(t *testing.T) {
	a := newUR5eAdapter(t, nil)
	// nothing on the arm reaches 5 meters
	target := spatial.NewPoseFromPoint(r3.Vector{X: 5})

	_, code, err := a.SearchPositionIK(target, a.Chain().Midpoint(), SearchOptions{Timeout: time.Millisecond})
	test.That(t, errors.Is(err, ErrNoSolution), test.ShouldBeTrue)
	test.That(t, code, test.ShouldEqual, NoIKSolution)
}

func TestCallback(t *testing.T) {
	a := newUR5eAdapter(t, nil)
	chain := a.Chain()
	goal := []frame.Input{0.3, -1.0, 1.2, -0.4, 1.1, 0.3}
	target, err := chain.Transform(goal)
	test.That(t, err, test.ShouldBeNil)
	seed := []frame.Input{0.32, -1.02, 1.18, -0.42, 1.08, 0.32}

	var seen []frame.Input
	accept := func(pose spatial.Pose, solution []frame.Input) ErrorCode {
		seen = solution
		return Success
	}
	solution, code, err := a.SearchPositionIK(target, seed, SearchOptions{Timeout: time.Second, Callback: accept})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, code, test.ShouldEqual, Success)
	test.That(t, seen, test.ShouldResemble, solution)

	reject := func(pose spatial.Pose, solution []frame.Input) ErrorCode {
		return InvalidLinkName
	}
	solution, code, err = a.SearchPositionIK(target, seed, SearchOptions{Timeout: time.Second, Callback: reject})
	test.That(t, errors.Is(err, ErrCallbackRejected), test.ShouldBeTrue)
	var rejected *CallbackRejectedError
	test.That(t, errors.As(err, &rejected), test.ShouldBeTrue)
	test.That(t, rejected.Code, test.ShouldEqual, InvalidLinkName)
	test.That(t, code, test.ShouldEqual, InvalidLinkName)
	test.That(t, solution, test.ShouldBeNil)
}

func TestConsistencyLimits(t *testing.T) {
	a := newUR5eAdapter(t, nil)
	chain := a.Chain()
	seed := []frame.Input{0.3, -1.0, 1.2, -0.4, 1.1, 0.3}
	goal := make([]frame.Input, len(seed))
	for i, v := range seed {
		goal[i] = v + 0.05
	}
	target, err := chain.Transform(goal)
	test.That(t, err, test.ShouldBeNil)

	consistency := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	solution, code, err := a.SearchPositionIK(target, seed, SearchOptions{
		Timeout:           time.Second,
		ConsistencyLimits: consistency,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, code, test.ShouldEqual, Success)
	for i, v := range solution {
		test.That(t, math.Abs(v-seed[i]), test.ShouldBeLessThanOrEqualTo, consistency[i]+1e-9)
	}

	_, code, err = a.SearchPositionIK(target, seed, SearchOptions{ConsistencyLimits: []float64{0, 0, 0, 0, 0, -1}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, code, test.ShouldEqual, Failure)
}

func TestPositionOnly(t *testing.T) {
	a := newUR5eAdapter(t, map[string]interface{}{"position_only_ik": true})
	chain := a.Chain()
	reached, err := chain.Transform([]frame.Input{0.5, -1.3, 1.0, -0.2, 0.9, 0.1})
	test.That(t, err, test.ShouldBeNil)
	// any orientation will do
	target := spatial.NewPose(reached.Point(), &spatial.R4AA{Theta: 2, RX: 1})

	solution, code, err := a.SearchPositionIK(target, chain.Midpoint(), SearchOptions{Timeout: time.Second})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, code, test.ShouldEqual, Success)
	got, err := chain.Transform(solution)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(got.Point(), target.Point(), 1e-3), test.ShouldBeTrue)
}

func TestGetPositionFK(t *testing.T) {
	a := NewAdapter(logging.NewTestLogger(t))
	err := a.Initialize(loadModel(t, "mixed.urdf"), "arm", "base_link", []string{"tool"}, 0, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.JointNames(), test.ShouldResemble, []string{"lift", "swing", "spin"})

	q := []frame.Input{0.25, 0, 0}
	poses, err := a.GetPositionFK([]string{"base_link", "tool"}, q)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostEqual(poses[0], spatial.NewZeroPose()), test.ShouldBeTrue)
	tool, err := a.Chain().Transform(q)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostEqual(poses[1], tool), test.ShouldBeTrue)

	t.Run("unknown links", func(t *testing.T) {
		poses, err := a.GetPositionFK([]string{"camera", "tool", "nope"}, q)
		test.That(t, errors.Is(err, frame.ErrForwardKinematics), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "camera")
		test.That(t, err.Error(), test.ShouldContainSubstring, "nope")
		test.That(t, poses[0], test.ShouldBeNil)
		test.That(t, poses[1], test.ShouldNotBeNil)
		test.That(t, poses[2], test.ShouldBeNil)
	})

	t.Run("wrong dof", func(t *testing.T) {
		_, err := a.GetPositionFK([]string{"tool"}, []frame.Input{0})
		test.That(t, errors.Is(err, frame.ErrIncorrectDoF), test.ShouldBeTrue)
	})
}

func TestConcurrentQueries(t *testing.T) {
	a := newUR5eAdapter(t, nil)
	chain := a.Chain()
	samples := frame.GenerateSamples(chain.Limits(), 4, 7)

	results := make([][]frame.Input, len(samples))
	var wg sync.WaitGroup
	for i, sample := range samples {
		wg.Add(1)
		go func() {
			defer wg.Done()
			target, err := chain.Transform(sample)
			if err != nil {
				return
			}
			poses, err := a.GetPositionFK([]string{"tool0"}, sample)
			if err != nil || !spatial.PoseAlmostEqual(poses[0], target) {
				return
			}
			results[i] = sample
		}()
	}
	wg.Wait()
	test.That(t, results, test.ShouldResemble, samples)
}

// TestConcurrentSolves shares one adapter between goroutines that each solve their own target. Run with -race.
func TestConcurrentSolves(t *testing.T) {
	a := newUR5eAdapter(t, nil)
	chain := a.Chain()
	samples := frame.GenerateSamples(chain.Limits(), 8, 11)

	targets := make([]spatial.Pose, len(samples))
	seeds := make([][]frame.Input, len(samples))
	for i, sample := range samples {
		target, err := chain.Transform(sample)
		test.That(t, err, test.ShouldBeNil)
		targets[i] = target
		seeds[i] = make([]frame.Input, len(sample))
		for j, v := range sample {
			seeds[i][j] = chain.Limits()[j].Clamp(v + 0.05)
		}
	}

	solutions := make([][]frame.Input, len(samples))
	codes := make([]ErrorCode, len(samples))
	errs := make([]error, len(samples))
	var wg sync.WaitGroup
	for i := range samples {
		wg.Add(1)
		go func() {
			defer wg.Done()
			solutions[i], codes[i], errs[i] = a.SearchPositionIK(targets[i], seeds[i], SearchOptions{Timeout: time.Second})
		}()
	}
	wg.Wait()

	for i := range samples {
		test.That(t, errs[i], test.ShouldBeNil)
		test.That(t, codes[i], test.ShouldEqual, Success)
		reached, err := chain.Transform(solutions[i])
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatial.PoseAlmostEqualEps(reached, targets[i], 1e-3), test.ShouldBeTrue)
	}
	// seeds are read, never written
	test.That(t, seeds[0][0], test.ShouldEqual, chain.Limits()[0].Clamp(samples[0][0]+0.05))
}
