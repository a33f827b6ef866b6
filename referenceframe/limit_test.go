package referenceframe

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestLimit(t *testing.T) {
	l, err := NewLimit(-1, 2)
	test.That(t, err, test.ShouldBeNil)
	lo, hi, ok := l.Bounds()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, lo, test.ShouldEqual, -1)
	test.That(t, hi, test.ShouldEqual, 2)
	test.That(t, l.Contains(2), test.ShouldBeTrue)
	test.That(t, l.Contains(2.001), test.ShouldBeFalse)
	test.That(t, l.Clamp(5), test.ShouldEqual, 2)
	test.That(t, l.Clamp(-5), test.ShouldEqual, -1)
	test.That(t, l.Midpoint(), test.ShouldEqual, 0.5)
	test.That(t, l.String(), test.ShouldEqual, "[-1, 2]")

	_, err = NewLimit(1, -1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewLimit(math.Inf(-1), 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewLimit(0, math.NaN())
	test.That(t, err, test.ShouldNotBeNil)

	// a degenerate limit pins the joint
	pinned, err := NewLimit(0.3, 0.3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pinned.Valid(), test.ShouldBeTrue)
	test.That(t, pinned.Clamp(1), test.ShouldEqual, 0.3)
}

func TestUnboundedLimit(t *testing.T) {
	l := UnboundedLimit()
	_, _, ok := l.Bounds()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, l.IsBounded(), test.ShouldBeFalse)
	test.That(t, l.Valid(), test.ShouldBeTrue)
	test.That(t, l.Contains(1e9), test.ShouldBeTrue)
	test.That(t, l.Clamp(-1e9), test.ShouldEqual, -1e9)
	test.That(t, l.Midpoint(), test.ShouldEqual, 0)

	lo, hi := l.SampleRange()
	test.That(t, lo, test.ShouldEqual, -UnboundedSampleRange)
	test.That(t, hi, test.ShouldEqual, UnboundedSampleRange)
}

func TestLimitIntersect(t *testing.T) {
	l, err := NewLimit(-1, 1)
	test.That(t, err, test.ShouldBeNil)

	narrowed := l.Intersect(0.5, 3)
	lo, hi, _ := narrowed.Bounds()
	test.That(t, lo, test.ShouldEqual, 0.5)
	test.That(t, hi, test.ShouldEqual, 1)

	// an unbounded limit takes the window as is
	lo, hi, ok := UnboundedLimit().Intersect(-0.1, 0.1).Bounds()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, lo, test.ShouldEqual, -0.1)
	test.That(t, hi, test.ShouldEqual, 0.1)

	// disjoint windows collapse onto the nearest bound
	lo, hi, _ = l.Intersect(2, 3).Bounds()
	test.That(t, lo, test.ShouldEqual, 1)
	test.That(t, hi, test.ShouldEqual, 1)
	lo, hi, _ = l.Intersect(-3, -2).Bounds()
	test.That(t, lo, test.ShouldEqual, -1)
	test.That(t, hi, test.ShouldEqual, -1)
}

func TestLimitsToArrays(t *testing.T) {
	l, err := NewLimit(-1, 1)
	test.That(t, err, test.ShouldBeNil)
	lower, upper := LimitsToArrays([]Limit{l, UnboundedLimit()})
	test.That(t, lower, test.ShouldResemble, []float64{-1, math.Inf(-1)})
	test.That(t, upper, test.ShouldResemble, []float64{1, math.Inf(1)})
}
