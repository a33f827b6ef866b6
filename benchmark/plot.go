package benchmark

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const histogramBins = 30

// WriteLatencyPlot saves a histogram of per sample latencies, one series per result. The image format follows the
// extension of path.
func WriteLatencyPlot(path string, results ...Result) error {
	p := plot.New()
	p.Title.Text = "IK latency"
	p.X.Label.Text = "milliseconds"
	p.Y.Label.Text = "samples"

	added := 0
	for i, r := range results {
		if len(r.Latencies) == 0 {
			continue
		}
		values := make(plotter.Values, len(r.Latencies))
		for j, l := range r.Latencies {
			values[j] = float64(l) / 1e6
		}
		h, err := plotter.NewHist(values, histogramBins)
		if err != nil {
			return errors.Wrapf(err, "cannot build histogram for %s", r.Name)
		}
		h.FillColor = plotutil.Color(i)
		h.LineStyle.Width = 0
		p.Add(h)
		p.Legend.Add(r.Name, h)
		added++
	}
	if added == 0 {
		return errors.New("no latencies to plot")
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
