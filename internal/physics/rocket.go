package physics

import (
	"math"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Rocket state layout.
const (
	RocketAltitude = iota
	RocketVelocity
	RocketFuel
)

// Rocket is a vertical rocket whose command is a thrust acceleration.
// State: [altitude, velocity, fuel mass]. Altitude is absolute; Surface is the
// ground level below which the rocket has crashed.
type Rocket struct {
	Gravity           float64
	Surface           float64
	DryMass           float64
	BurnRate          float64
	TouchdownVelocity float64
}

func NewRocket() *Rocket {
	return &Rocket{
		Gravity:           DefaultGravity,
		Surface:           6371000,
		DryMass:           10000,
		BurnRate:          0.003,
		TouchdownVelocity: 3,
	}
}

func (r *Rocket) StateDim() int   { return 3 }
func (r *Rocket) ControlDim() int { return 1 }

// Derive drops thrust to zero within the same step once the tank is empty.
func (r *Rocket) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	thrust, burn := 0.0, 0.0
	if x[RocketFuel] > 0 {
		thrust = channel(u, 0)
		burn = -r.BurnRate * thrust
	}
	return dynamo.State{x[RocketVelocity], thrust - r.Gravity, burn}
}

// Gate forces the thrust command to zero once the propellant is gone. Fuel
// never increases, so exhaustion is sticky.
func (r *Rocket) Gate(x dynamo.State, u dynamo.Control) dynamo.Control {
	if x[RocketFuel] > 0 || len(u) == 0 {
		return u
	}
	gated := u.Clone()
	gated[0] = 0
	return gated
}

// Constrain floors the fuel at zero and settles a slow touchdown onto the
// surface. A fast arrival is left below the surface and reported by Crashed.
func (r *Rocket) Constrain(x dynamo.State) dynamo.State {
	if x[RocketFuel] < 0 {
		x[RocketFuel] = 0
	}
	if x[RocketAltitude] < r.Surface && math.Abs(x[RocketVelocity]) <= r.TouchdownVelocity {
		x[RocketAltitude] = r.Surface
		x[RocketVelocity] = 0
	}
	return x
}

func (r *Rocket) Crashed(x dynamo.State) (bool, string) {
	if x[RocketAltitude] < r.Surface {
		return true, "crash: altitude below surface"
	}
	return false, ""
}

// Height returns the altitude above the surface.
func (r *Rocket) Height(x dynamo.State) float64 {
	return x[RocketAltitude] - r.Surface
}

func (r *Rocket) TotalMass(x dynamo.State) float64 {
	return r.DryMass + x[RocketFuel]
}

func (r *Rocket) Validate() error {
	return firstError(
		dynamo.RequireNonNegative("gravity", r.Gravity),
		dynamo.RequireNonNegative("dry_mass", r.DryMass),
		dynamo.RequireNonNegative("burn_rate", r.BurnRate),
		dynamo.RequireNonNegative("touchdown_velocity", r.TouchdownVelocity),
	)
}

func (r *Rocket) GetParams() map[string]float64 {
	return map[string]float64{
		"gravity":            r.Gravity,
		"surface":            r.Surface,
		"dry_mass":           r.DryMass,
		"burn_rate":          r.BurnRate,
		"touchdown_velocity": r.TouchdownVelocity,
	}
}

func (r *Rocket) SetParam(name string, value float64) error {
	switch name {
	case "gravity":
		r.Gravity = value
	case "surface":
		r.Surface = value
	case "dry_mass":
		r.DryMass = value
	case "burn_rate":
		r.BurnRate = value
	case "touchdown_velocity":
		r.TouchdownVelocity = value
	default:
		return unknownParam(name)
	}
	return nil
}
