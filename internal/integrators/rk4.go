package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Classical Butcher tableau.
var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1.0 / 6, 2.0 / 6, 2.0 / 6, 1.0 / 6}
)

// RK4 holds the command constant across the four stages, so it is only a
// drop-in for plants whose command does not depend on intermediate states.
// An RK4 keeps scratch buffers and must not be shared between runs.
type RK4 struct {
	k     [4]dynamo.State
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) grow(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(plant dynamo.Plant, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.grow(len(x))

	copy(r.k[0], plant.Derive(x, u, t))
	for s := 1; s < len(r.k); s++ {
		h := rk4Nodes[s] * dt
		floats.AddScaledTo(r.stage, x, h, r.k[s-1])
		copy(r.k[s], plant.Derive(r.stage, u, t+h))
	}

	next := x.Clone()
	for s, w := range rk4Weights {
		floats.AddScaled(next, w*dt, r.k[s])
	}
	return next
}
