package referenceframe

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/detik-robotics/detik/utils"
)

// UnboundedSampleRange is the half width of the range random configurations are drawn from for joints without
// limits. A full turn either way covers every orientation a continuous joint can reach.
const UnboundedSampleRange = math.Pi

// Limit represents the range of motion of a single movable joint. A limit is either bounded by a closed interval
// [min, max] or unbounded; the two cases are distinct and an unbounded limit never carries sentinel numbers.
type Limit struct {
	min     float64
	max     float64
	bounded bool
}

// NewLimit returns a bounded limit. The bounds must be finite and ordered.
func NewLimit(lo, hi float64) (Limit, error) {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Limit{}, errors.Errorf("limit bounds must be finite, got [%v, %v]", lo, hi)
	}
	if lo > hi {
		return Limit{}, errors.Errorf("limit lower bound %v is above upper bound %v", lo, hi)
	}
	return Limit{min: lo, max: hi, bounded: true}, nil
}

// UnboundedLimit returns the limit of a joint that can move freely, such as a continuous joint.
func UnboundedLimit() Limit {
	return Limit{}
}

// Bounds returns the interval of a bounded limit. ok is false for unbounded limits.
func (l Limit) Bounds() (lo, hi float64, ok bool) {
	return l.min, l.max, l.bounded
}

// IsBounded reports whether the limit has a finite range.
func (l Limit) IsBounded() bool {
	return l.bounded
}

// Valid reports whether the limit describes a usable range. Unbounded limits are always valid.
func (l Limit) Valid() bool {
	return !l.bounded || l.min <= l.max
}

// Contains reports whether the value lies within the limit.
func (l Limit) Contains(v float64) bool {
	return !l.bounded || (v >= l.min && v <= l.max)
}

// Clamp moves the value onto the closest point of the limit.
func (l Limit) Clamp(v float64) float64 {
	if !l.bounded {
		return v
	}
	return utils.Clamp(v, l.min, l.max)
}

// Midpoint returns the middle of a bounded limit and 0 for an unbounded one.
func (l Limit) Midpoint() float64 {
	if !l.bounded {
		return 0
	}
	return (l.min + l.max) / 2
}

// SampleRange returns the interval random values should be drawn from.
func (l Limit) SampleRange() (lo, hi float64) {
	if !l.bounded {
		return -UnboundedSampleRange, UnboundedSampleRange
	}
	return l.min, l.max
}

// Intersect narrows the limit to [lo, hi]. The result is always bounded; an empty intersection collapses onto the
// bound closest to the requested window.
func (l Limit) Intersect(lo, hi float64) Limit {
	if l.bounded {
		lo = math.Max(lo, l.min)
		hi = math.Min(hi, l.max)
	}
	if lo > hi {
		if hi == l.max {
			lo = hi
		} else {
			hi = lo
		}
	}
	return Limit{min: lo, max: hi, bounded: true}
}

func (l Limit) String() string {
	if !l.bounded {
		return "unbounded"
	}
	return fmt.Sprintf("[%g, %g]", l.min, l.max)
}

// LimitsToArrays converts limits into lower and upper bound arrays for numeric solvers. Unbounded limits become
// ±Inf, which is the only place infinities stand in for "no limit".
func LimitsToArrays(limits []Limit) ([]float64, []float64) {
	lower := make([]float64, 0, len(limits))
	upper := make([]float64, 0, len(limits))
	for _, l := range limits {
		if lo, hi, ok := l.Bounds(); ok {
			lower = append(lower, lo)
			upper = append(upper, hi)
			continue
		}
		lower = append(lower, math.Inf(-1))
		upper = append(upper, math.Inf(1))
	}
	return lower, upper
}
