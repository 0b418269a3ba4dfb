package physics

import "github.com/san-kum/ctrlsim/internal/dynamo"

// Integrator is x' = u - Leak*x. With Leak zero it is the pure single
// integrator; a positive Leak turns it into a first-order lag.
type Integrator struct {
	Leak float64
}

func NewIntegrator() *Integrator {
	return &Integrator{}
}

func (p *Integrator) StateDim() int   { return 1 }
func (p *Integrator) ControlDim() int { return 1 }

func (p *Integrator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{channel(u, 0) - p.Leak*x[0]}
}

func (p *Integrator) Validate() error {
	return dynamo.RequireNonNegative("leak", p.Leak)
}

func (p *Integrator) GetParams() map[string]float64 {
	return map[string]float64{"leak": p.Leak}
}

func (p *Integrator) SetParam(name string, value float64) error {
	switch name {
	case "leak":
		p.Leak = value
	default:
		return unknownParam(name)
	}
	return nil
}
