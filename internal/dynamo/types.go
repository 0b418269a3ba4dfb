package dynamo

import (
	"math"
	"slices"
)

// State is a plant state vector. Index meaning is defined by each plant.
type State []float64

func (s State) Clone() State {
	return slices.Clone(s)
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	return !slices.ContainsFunc(s, func(v float64) bool {
		return math.IsNaN(v) || math.IsInf(v, 0)
	})
}

// Error returns the signed tracking error ref - x[i]; an index outside the
// state reads as zero.
func (s State) Error(i int, ref float64) float64 {
	if i < 0 || i >= len(s) {
		return ref
	}
	return ref - s[i]
}

// Control is an actuator command vector.
type Control []float64

func (c Control) Clone() Control {
	return slices.Clone(c)
}

// Plant returns the state derivative for a given state and command. It must
// be a pure function of its inputs.
type Plant interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Constrainer applies floor clamps after each integration step.
type Constrainer interface {
	Constrain(x State) State
}

// Gate forces actuator channels to zero when the plant cannot realise them.
type Gate interface {
	Gate(x State, u Control) Control
}

// Crasher reports an irrecoverable terminal condition for the current state.
type Crasher interface {
	Crashed(x State) (bool, string)
}

type Integrator interface {
	Step(plant Plant, x State, u Control, t float64, dt float64) State
}

type Controller interface {
	Compute(x State, t, dt float64) Control
}

// Phased is implemented by controllers that expose a supervisory phase.
type Phased interface {
	Phase() Phase
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
