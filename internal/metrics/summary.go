package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one recorded series.
type Summary struct {
	Mean, StdDev float64
	Min, Max     float64
	Last         float64
}

// Summarize computes a Summary of xs. An empty series yields the zero value.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Summary{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
		Last:   xs[len(xs)-1],
	}
}

// Overshoot is how far xs climbs past reference, relative to the distance
// from the start. It is zero when xs never crosses the reference.
func Overshoot(xs []float64, reference float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	span := reference - xs[0]
	if span == 0 {
		return 0
	}
	peak := floats.Max(xs)
	if span < 0 {
		peak = floats.Min(xs)
	}
	over := (peak - reference) / span
	if over < 0 {
		return 0
	}
	return over
}
