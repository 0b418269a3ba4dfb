package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Euler is the explicit forward step x + dt·f(x, u, t), the reference
// integrator of every closed-loop run.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (Euler) Step(plant dynamo.Plant, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	next := make(dynamo.State, len(x))
	floats.AddScaledTo(next, x, dt, plant.Derive(x, u, t))
	return next
}
