// Package supervisor selects the active control law of a multi-phase
// mission.
//
// The phase machine is a pure function, [Transition], so it can be tested
// without running a simulation. [Rocket] wraps it with the phase-specific
// control laws and [Single] adapts a plain feedback law to the same shape.
package supervisor

import (
	"math"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Thresholds parameterise the rocket phase machine.
type Thresholds struct {
	// Ascent ends once both the altitude error and the speed are below these.
	Altitude float64
	Velocity float64

	// Time spent holding orbit before descent begins.
	OrbitDuration float64

	// Descent ends at or below TouchdownAltitude with a speed of at most
	// TouchdownVelocity.
	TouchdownAltitude float64
	TouchdownVelocity float64
}

func (th Thresholds) Validate() error {
	return firstError(
		dynamo.RequirePositive("threshold_altitude", th.Altitude),
		dynamo.RequirePositive("threshold_velocity", th.Velocity),
		dynamo.RequireNonNegative("orbit_duration", th.OrbitDuration),
		dynamo.RequireNonNegative("touchdown_velocity", th.TouchdownVelocity),
	)
}

// Observation is what the flight computer reads from its sensors. Altitude
// is measured from the surface.
type Observation struct {
	Altitude float64
	Velocity float64
	Fuel     float64
}

// Transition returns the phase that follows p. entered is the time p became
// active and target the ascent reference altitude. Phases only move forward;
// Terminated and Tracking are absorbing.
func Transition(p dynamo.Phase, obs Observation, target, t, entered float64, th Thresholds) dynamo.Phase {
	switch p {
	case dynamo.Ascent:
		if math.Abs(target-obs.Altitude) < th.Altitude && math.Abs(obs.Velocity) < th.Velocity {
			return dynamo.Orbit
		}
	case dynamo.Orbit:
		if t-entered > th.OrbitDuration {
			return dynamo.Descent
		}
	case dynamo.Descent:
		if obs.Altitude <= th.TouchdownAltitude && math.Abs(obs.Velocity) <= th.TouchdownVelocity {
			return dynamo.Terminated
		}
	}
	return p
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
