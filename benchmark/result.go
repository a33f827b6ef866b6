package benchmark

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Result is what one strategy achieved over a sample set.
type Result struct {
	Name      string
	Successes int
	Total     int
	// Mismatches counts reported successes whose forward kinematics missed the target.
	Mismatches int
	TotalTime  time.Duration
	Latencies  []time.Duration
}

// SuccessRate is the percentage of samples solved.
func (r Result) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return 100 * float64(r.Successes) / float64(r.Total)
}

// MeanLatency is the average time spent per sample.
func (r Result) MeanLatency() time.Duration {
	if r.Total == 0 {
		return 0
	}
	return r.TotalTime / time.Duration(r.Total)
}

// LatencyStats summarizes the per sample latencies.
type LatencyStats struct {
	Median time.Duration
	P95    time.Duration
	Max    time.Duration
}

// LatencyStats computes the median, 95th percentile and maximum latency.
func (r Result) LatencyStats() (LatencyStats, error) {
	if len(r.Latencies) == 0 {
		return LatencyStats{}, errors.Errorf("no latencies recorded for %s", r.Name)
	}
	data := make(stats.Float64Data, len(r.Latencies))
	for i, l := range r.Latencies {
		data[i] = l.Seconds()
	}
	median, err := data.Median()
	if err != nil {
		return LatencyStats{}, err
	}
	p95, err := data.Percentile(95)
	if err != nil {
		return LatencyStats{}, err
	}
	maxLatency, err := data.Max()
	if err != nil {
		return LatencyStats{}, err
	}
	return LatencyStats{
		Median: seconds(median),
		P95:    seconds(p95),
		Max:    seconds(maxLatency),
	}, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
