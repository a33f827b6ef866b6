package referenceframe

import (
	"math/rand"
)

// RandomConfiguration draws one configuration uniformly within the limits. Unbounded joints draw from
// [-UnboundedSampleRange, UnboundedSampleRange].
func RandomConfiguration(limits []Limit, rSeed *rand.Rand) []Input {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	pos := make([]Input, 0, len(limits))
	for _, lim := range limits {
		l, u := lim.SampleRange()
		pos = append(pos, l+rSeed.Float64()*(u-l))
	}
	return pos
}

// GenerateSamples returns count random configurations within the limits. The same limits, count and seed always
// produce the same batch.
func GenerateSamples(limits []Limit, count int, seed int64) [][]Input {
	if count < 0 {
		count = 0
	}
	//nolint:gosec
	rSeed := rand.New(rand.NewSource(seed))
	samples := make([][]Input, 0, count)
	for i := 0; i < count; i++ {
		samples = append(samples, RandomConfiguration(limits, rSeed))
	}
	return samples
}
