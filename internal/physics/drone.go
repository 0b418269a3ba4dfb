package physics

import (
	"math"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Drone2D state layout.
const (
	DroneX = iota
	DroneY
	DroneTheta
	DroneVX
	DroneVY
	DroneOmega
)

// Drone2D is a planar drone with two motors at distance ArmLength from the
// centre. State: [x, y, theta, vx, vy, omega]. Control: [left, right].
type Drone2D struct {
	Mass, Inertia, ArmLength float64
	Gravity                  float64
}

func NewDrone2D() *Drone2D {
	d := &Drone2D{
		Mass:      DefaultMass,
		ArmLength: 0.2,
		Gravity:   DefaultGravity,
	}
	d.Inertia = RodInertia(d.Mass, d.ArmLength)
	return d
}

// RodInertia is m*d^2/3.
func RodInertia(mass, arm float64) float64 {
	return mass * arm * arm / 3
}

func (d *Drone2D) StateDim() int   { return 6 }
func (d *Drone2D) ControlDim() int { return 2 }

func (d *Drone2D) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, vx, vy, omega := x[DroneTheta], x[DroneVX], x[DroneVY], x[DroneOmega]
	left, right := channel(u, 0), channel(u, 1)

	total := left + right
	sin, cos := math.Sin(theta), math.Cos(theta)

	ax := total * sin / d.Mass
	ay := (total*cos - d.Mass*d.Gravity) / d.Mass
	alpha := (right - left) * d.ArmLength / d.Inertia

	return dynamo.State{vx, vy, omega, ax, ay, alpha}
}

// Constrain applies ground contact: the drone cannot sink below y = 0.
func (d *Drone2D) Constrain(x dynamo.State) dynamo.State {
	if x[DroneY] < 0 {
		x[DroneY] = 0
		x[DroneVY] = 0
	}
	return x
}

func (d *Drone2D) HoverThrust() float64 {
	return d.Mass * d.Gravity / 2.0
}

func (d *Drone2D) Validate() error {
	return firstError(
		dynamo.RequirePositive("mass", d.Mass),
		dynamo.RequirePositive("inertia", d.Inertia),
		dynamo.RequirePositive("arm_length", d.ArmLength),
		dynamo.RequireNonNegative("gravity", d.Gravity),
	)
}

func (d *Drone2D) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":       d.Mass,
		"gravity":    d.Gravity,
		"arm_length": d.ArmLength,
		"inertia":    d.Inertia,
	}
}

func (d *Drone2D) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		d.Mass = value
	case "gravity":
		d.Gravity = value
	case "arm_length":
		d.ArmLength = value
	case "inertia":
		d.Inertia = value
	default:
		return unknownParam(name)
	}
	return nil
}
