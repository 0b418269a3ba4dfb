package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

type oscillator struct{}

func (s *oscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (s *oscillator) StateDim() int   { return 2 }
func (s *oscillator) ControlDim() int { return 0 }

type ramp struct{}

func (r *ramp) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{u[0]}
}

func (r *ramp) StateDim() int   { return 1 }
func (r *ramp) ControlDim() int { return 1 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &oscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

// Halving the step should cut the global error of RK4 sixteenfold and that
// of Euler in half.
func TestConvergenceOrder(t *testing.T) {
	errAt := func(integ dynamo.Integrator, dt float64) float64 {
		x := dynamo.State{1.0, 0.0}
		n := int(math.Round(1 / dt))
		for i := 0; i < n; i++ {
			x = integ.Step(&oscillator{}, x, nil, float64(i)*dt, dt)
		}
		return math.Hypot(x[0]-math.Cos(1), x[1]+math.Sin(1))
	}

	tests := []struct {
		name  string
		integ func() dynamo.Integrator
		ratio float64
	}{
		{"euler", func() dynamo.Integrator { return NewEuler() }, 2},
		{"rk4", func() dynamo.Integrator { return NewRK4() }, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coarse := errAt(tt.integ(), 0.02)
			fine := errAt(tt.integ(), 0.01)
			if got := coarse / fine; math.Abs(got-tt.ratio)/tt.ratio > 0.1 {
				t.Errorf("error ratio = %.3f, want about %v", got, tt.ratio)
			}
		})
	}
}

func TestRK4ReusedAcrossDimensions(t *testing.T) {
	integ := NewRK4()
	integ.Step(&oscillator{}, dynamo.State{1, 0}, nil, 0, 0.1)
	next := integ.Step(&ramp{}, dynamo.State{1}, dynamo.Control{2}, 0, 0.5)
	if len(next) != 1 || math.Abs(next[0]-2) > 1e-12 {
		t.Errorf("RK4 on a constant-rate plant = %v, want [2]", next)
	}
}

func TestEulerStep(t *testing.T) {
	integ := NewEuler()

	next := integ.Step(&ramp{}, dynamo.State{1.0}, dynamo.Control{2.0}, 0, 0.5)
	if next[0] != 2.0 {
		t.Errorf("expected 1 + 2*0.5 = 2, got %f", next[0])
	}

	x := dynamo.State{1.0, 0.0}
	next = integ.Step(&oscillator{}, x, nil, 0, 0.1)
	if next[0] != 1.0 || next[1] != -0.1 {
		t.Errorf("unexpected euler step %v", next)
	}
	if x[0] != 1.0 || x[1] != 0.0 {
		t.Error("Euler must not mutate its input state")
	}
}

func TestNew(t *testing.T) {
	for _, name := range append(Names(), "") {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &oscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &oscillator{}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 0.01)
	}
}
