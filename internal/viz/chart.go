package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ctrlsim/internal/optim"
	"github.com/san-kum/ctrlsim/internal/sim"
)

type ChartOptions struct {
	Width   int
	Height  int
	Caption string
}

func (o ChartOptions) options() []asciigraph.Option {
	opts := []asciigraph.Option{asciigraph.Precision(2)}
	if o.Width > 0 {
		opts = append(opts, asciigraph.Width(o.Width))
	}
	if o.Height > 0 {
		opts = append(opts, asciigraph.Height(o.Height))
	}
	if o.Caption != "" {
		opts = append(opts, asciigraph.Caption(o.Caption))
	}
	return opts
}

// Chart plots ys. Non-finite values are dropped, and an empty series renders
// as an empty string.
func Chart(ys []float64, o ChartOptions) string {
	ys = finite(ys)
	if len(ys) == 0 {
		return ""
	}
	return asciigraph.Plot(ys, o.options()...)
}

// TrackingChart plots state component index of rec together with the
// reference it tracks.
func TrackingChart(rec *sim.Record, index int, reference float64, o ChartOptions) string {
	if rec == nil || len(rec.Samples) == 0 {
		return ""
	}
	ys := finite(rec.Series(index))
	if len(ys) == 0 {
		return ""
	}
	if o.Caption == "" {
		o.Caption = fmt.Sprintf("x[%d] vs reference %g", index, reference)
	}
	ref := make([]float64, len(ys))
	for i := range ref {
		ref[i] = reference
	}
	opts := append(o.options(), asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red))
	return asciigraph.PlotMany([][]float64{ys, ref}, opts...)
}

// CostChart plots the cost of each tuner iteration.
func CostChart(history []optim.Iteration, o ChartOptions) string {
	if o.Caption == "" {
		o.Caption = "cost per iteration"
	}
	return Chart(costs(history), o)
}

func costs(history []optim.Iteration) []float64 {
	out := make([]float64, len(history))
	for i, it := range history {
		out[i] = it.Cost
	}
	return out
}

func finite(ys []float64) []float64 {
	out := make([]float64, 0, len(ys))
	for _, y := range ys {
		if !math.IsNaN(y) && !math.IsInf(y, 0) {
			out = append(out, y)
		}
	}
	return out
}
