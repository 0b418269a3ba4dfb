package physics

import "github.com/san-kum/ctrlsim/internal/dynamo"

// Tank is a leaking water tank. State: [h]. Control: [big valve, small valve]
// inflows, summed.
type Tank struct {
	Leak float64
}

func NewTank() *Tank {
	return &Tank{Leak: 0.05}
}

func (k *Tank) StateDim() int   { return 1 }
func (k *Tank) ControlDim() int { return 2 }

func (k *Tank) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	inflow := channel(u, 0) + channel(u, 1)
	return dynamo.State{inflow - k.Leak*x[0]}
}

// Constrain keeps the level non-negative.
func (k *Tank) Constrain(x dynamo.State) dynamo.State {
	if x[0] < 0 {
		x[0] = 0
	}
	return x
}

func (k *Tank) Validate() error {
	return dynamo.RequireNonNegative("leak", k.Leak)
}

func (k *Tank) GetParams() map[string]float64 {
	return map[string]float64{"leak": k.Leak}
}

func (k *Tank) SetParam(name string, value float64) error {
	switch name {
	case "leak":
		k.Leak = value
	default:
		return unknownParam(name)
	}
	return nil
}
