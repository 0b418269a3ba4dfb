package metrics

import (
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// ControlEffort is the mean L1 norm of the command over observed steps.
type ControlEffort struct {
	total float64
	n     int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (*ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(_ dynamo.State, u dynamo.Control, _ float64) {
	if len(u) > 0 {
		c.total += floats.Norm(u, 1)
	}
	c.n++
}

func (c *ControlEffort) Value() float64 { return ratio(c.total, c.n) }

func (c *ControlEffort) Reset() { *c = ControlEffort{} }

// Saturation is the fraction of steps in which any command channel sat at
// or above Ceiling.
type Saturation struct {
	Ceiling float64
	hits    int
	n       int
}

func NewSaturation(ceiling float64) *Saturation {
	return &Saturation{Ceiling: ceiling}
}

func (*Saturation) Name() string { return "saturation" }

func (s *Saturation) Observe(_ dynamo.State, u dynamo.Control, _ float64) {
	s.n++
	if slices.ContainsFunc(u, func(v float64) bool { return v >= s.Ceiling }) {
		s.hits++
	}
}

func (s *Saturation) Value() float64 { return ratio(float64(s.hits), s.n) }

func (s *Saturation) Reset() { s.hits, s.n = 0, 0 }

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
