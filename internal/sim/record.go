package sim

import (
	"math"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Config fixes the step size and horizon of one run.
type Config struct {
	Dt       float64
	Duration float64

	// Stride records every Stride-th step. Zero records every step.
	Stride int

	// ValidateState stops the run on the first NaN or Inf state.
	ValidateState bool
}

func (c Config) Validate() error {
	if err := dynamo.RequirePositive("dt", c.Dt); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("duration", c.Duration); err != nil {
		return err
	}
	if c.Stride < 0 {
		return dynamo.Invalid("stride", float64(c.Stride), "must not be negative")
	}
	return nil
}

// Steps returns floor(Duration/Dt). The small relative guard keeps ratios
// such as 0.3/0.1 from truncating one step short.
func (c Config) Steps() int {
	n := c.Duration / c.Dt
	return int(math.Floor(n * (1 + 1e-9)))
}

func (c Config) stride() int {
	if c.Stride <= 0 {
		return 1
	}
	return c.Stride
}

// Sample is the state before a step together with the command applied during
// it and the phase the command was computed in.
type Sample struct {
	Time    float64
	State   dynamo.State
	Command dynamo.Control
	Phase   dynamo.Phase
}

// Halt describes an early stop on a terminal condition.
type Halt struct {
	Step   int
	Time   float64
	Reason string
}

// Record is the outcome of one run. It is not modified after Run returns.
type Record struct {
	Samples   []Sample
	Final     dynamo.State
	FinalTime float64
	Steps     int
	Halted    bool
	Halt      *Halt
	Metrics   map[string]float64
	Errors    []error
}

func (r *Record) Times() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Time
	}
	return out
}

// Series extracts state component i from every sample.
func (r *Record) Series(i int) []float64 {
	out := make([]float64, len(r.Samples))
	for k, s := range r.Samples {
		out[k] = s.State[i]
	}
	return out
}

// CommandSeries extracts command channel i from every sample.
func (r *Record) CommandSeries(i int) []float64 {
	out := make([]float64, len(r.Samples))
	for k, s := range r.Samples {
		if i < len(s.Command) {
			out[k] = s.Command[i]
		}
	}
	return out
}

// Phases returns the distinct phases in the order they were first recorded.
func (r *Record) Phases() []dynamo.Phase {
	var out []dynamo.Phase
	for _, s := range r.Samples {
		if len(out) == 0 || out[len(out)-1] != s.Phase {
			out = append(out, s.Phase)
		}
	}
	return out
}

// Completed reports whether the run reached its full horizon.
func (r *Record) Completed() bool {
	return !r.Halted && len(r.Errors) == 0
}
