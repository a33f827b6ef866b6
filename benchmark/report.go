package benchmark

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

const histogramWidth = 40

// RenderTable renders the results side by side.
func RenderTable(results ...Result) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Strategy", "Solved", "Rate", "Mean", "Median", "P95", "Max", "Mismatches"})
	for _, r := range results {
		row := table.Row{
			r.Name,
			fmt.Sprintf("%d/%d", r.Successes, r.Total),
			fmt.Sprintf("%.1f%%", r.SuccessRate()),
			r.MeanLatency().String(),
		}
		if s, err := r.LatencyStats(); err == nil {
			row = append(row, s.Median.String(), s.P95.String(), s.Max.String())
		} else {
			row = append(row, "-", "-", "-")
		}
		row = append(row, r.Mismatches)
		t.AppendRow(row)
	}
	return t.Render()
}

// WriteLatencyHistogram prints a text histogram of a result's latencies in milliseconds.
func WriteLatencyHistogram(w io.Writer, r Result, bins int) error {
	if len(r.Latencies) == 0 {
		return errors.Errorf("no latencies recorded for %s", r.Name)
	}
	millis := make([]float64, len(r.Latencies))
	for i, l := range r.Latencies {
		millis[i] = float64(l) / 1e6
	}
	if _, err := fmt.Fprintf(w, "%s latency (ms)\n", r.Name); err != nil {
		return err
	}
	if lo, hi := floats.Min(millis), floats.Max(millis); lo == hi {
		_, err := fmt.Fprintf(w, "%d samples at %.3f\n", len(millis), lo)
		return err
	}
	return histogram.Fprint(w, histogram.Hist(max(1, bins), millis), histogram.Linear(histogramWidth))
}
