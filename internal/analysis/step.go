package analysis

import (
	"math"

	"github.com/san-kum/ctrlsim/internal/metrics"
)

const (
	riseLow      = 0.1
	riseHigh     = 0.9
	SettlingBand = 0.02
)

// StepResponse describes how a series approached a constant reference.
type StepResponse struct {
	RiseTime         float64
	SettlingTime     float64
	Overshoot        float64
	SteadyStateError float64
}

// Step analyses ys sampled at times against reference, measuring from the
// first sample. Rise time spans 10% to 90% of the step. Settling time is
// when ys last enters the 2% band around reference.
func Step(times, ys []float64, reference float64) StepResponse {
	if len(ys) == 0 || len(times) != len(ys) {
		return StepResponse{RiseTime: math.NaN(), SettlingTime: math.NaN(), SteadyStateError: math.NaN()}
	}
	r := StepResponse{
		Overshoot:        metrics.Overshoot(ys, reference),
		SteadyStateError: reference - ys[len(ys)-1],
	}
	span := reference - ys[0]
	if span == 0 {
		return r
	}

	t10, t90 := math.NaN(), math.NaN()
	for i, y := range ys {
		p := (y - ys[0]) / span
		if math.IsNaN(t10) && p >= riseLow {
			t10 = times[i]
		}
		if p >= riseHigh {
			t90 = times[i]
			break
		}
	}
	r.RiseTime = t90 - t10

	band := SettlingBand * math.Abs(span)
	last := -1
	for i, y := range ys {
		if math.Abs(y-reference) > band {
			last = i
		}
	}
	switch {
	case last == len(ys)-1:
		r.SettlingTime = math.NaN()
	default:
		r.SettlingTime = times[last+1] - times[0]
	}
	return r
}
