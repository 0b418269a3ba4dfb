package metrics

import (
	"math"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// TrackingMSE is the mean squared error between Reference and state
// component Index over every observed step. A halted run is scored over the
// steps it actually took; with no steps the cost is +Inf.
type TrackingMSE struct {
	Index     int
	Reference float64
	sum       float64
	samples   int
}

func NewTrackingMSE(index int, reference float64) *TrackingMSE {
	return &TrackingMSE{Index: index, Reference: reference}
}

func (m *TrackingMSE) Name() string { return "mse" }

func (m *TrackingMSE) Observe(x dynamo.State, u dynamo.Control, t float64) {
	e := x.Error(m.Index, m.Reference)
	m.sum += e * e
	m.samples++
}

func (m *TrackingMSE) Value() float64 {
	if m.samples == 0 {
		return math.Inf(1)
	}
	return m.sum / float64(m.samples)
}

func (m *TrackingMSE) Reset() {
	m.sum = 0
	m.samples = 0
}

// FinalError is |Reference - x[Index]| at the last observed step.
type FinalError struct {
	Index     int
	Reference float64
	last      float64
}

func NewFinalError(index int, reference float64) *FinalError {
	return &FinalError{Index: index, Reference: reference}
}

func (m *FinalError) Name() string { return "final_error" }

func (m *FinalError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	m.last = math.Abs(x.Error(m.Index, m.Reference))
}

func (m *FinalError) Value() float64 { return m.last }

func (m *FinalError) Reset() { m.last = 0 }

// Peak is the largest value of x[Index] - Offset seen during the run.
type Peak struct {
	Index  int
	Offset float64
	max    float64
	seen   bool
}

func NewPeak(index int, offset float64) *Peak {
	return &Peak{Index: index, Offset: offset}
}

func (m *Peak) Name() string { return "peak" }

func (m *Peak) Observe(x dynamo.State, u dynamo.Control, t float64) {
	v := x[m.Index] - m.Offset
	if !m.seen || v > m.max {
		m.max = v
		m.seen = true
	}
}

func (m *Peak) Value() float64 { return m.max }

func (m *Peak) Reset() {
	m.max = 0
	m.seen = false
}
