package physics

import "github.com/san-kum/ctrlsim/internal/dynamo"

// VerticalDrone state: [y, vy]. Control: [thrust] in newtons.
type VerticalDrone struct {
	Mass    float64
	Gravity float64
}

func NewVerticalDrone() *VerticalDrone {
	return &VerticalDrone{
		Mass:    DefaultMass,
		Gravity: DefaultGravity,
	}
}

func (d *VerticalDrone) StateDim() int   { return 2 }
func (d *VerticalDrone) ControlDim() int { return 1 }

func (d *VerticalDrone) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], channel(u, 0)/d.Mass - d.Gravity}
}

// Constrain keeps the drone on or above the ground.
func (d *VerticalDrone) Constrain(x dynamo.State) dynamo.State {
	if x[0] < 0 {
		x[0] = 0
		x[1] = 0
	}
	return x
}

func (d *VerticalDrone) HoverThrust() float64 {
	return d.Mass * d.Gravity
}

func (d *VerticalDrone) Validate() error {
	return firstError(
		dynamo.RequirePositive("mass", d.Mass),
		dynamo.RequireNonNegative("gravity", d.Gravity),
	)
}

func (d *VerticalDrone) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    d.Mass,
		"gravity": d.Gravity,
	}
}

func (d *VerticalDrone) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		d.Mass = value
	case "gravity":
		d.Gravity = value
	default:
		return unknownParam(name)
	}
	return nil
}
