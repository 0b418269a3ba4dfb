package control

import "github.com/san-kum/ctrlsim/internal/dynamo"

// Constant is an open-loop law that repeats a fixed command.
type Constant struct {
	U dynamo.Control
}

func NewConstant(u ...float64) *Constant {
	return &Constant{U: dynamo.Control(u)}
}

// NewNone returns a zero command of dimension dim.
func NewNone(dim int) *Constant {
	return &Constant{U: make(dynamo.Control, dim)}
}

func (c *Constant) Compute(x dynamo.State, t, dt float64) dynamo.Control {
	return c.U.Clone()
}
