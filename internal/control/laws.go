package control

import (
	"fmt"
	"math"

	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/physics"
)

// SingleLoop drives one actuator channel from the state component at Index.
type SingleLoop struct {
	PID       *PID
	Index     int
	Reference float64
	Limits    Limits
}

func NewSingleLoop(pid *PID, index int, reference float64, limits Limits) *SingleLoop {
	return &SingleLoop{PID: pid, Index: index, Reference: reference, Limits: limits}
}

func (c *SingleLoop) Compute(x dynamo.State, t, dt float64) dynamo.Control {
	out, _ := c.PID.Update(c.Reference, x[c.Index], dt)
	return dynamo.Control{c.Limits.Clamp(out)}
}

// ValveSplit routes a single PID signal to one of two valves. Far from the
// reference (|error| > Band·Reference) the big valve takes the signal and
// the small one is closed; inside the band the roles swap.
type ValveSplit struct {
	PID       *PID
	Index     int
	Reference float64
	Band      float64
	Big       Limits
	Small     Limits
}

func NewValveSplit(pid *PID, reference, band float64, big, small Limits) *ValveSplit {
	return &ValveSplit{PID: pid, Reference: reference, Band: band, Big: big, Small: small}
}

func (c *ValveSplit) Compute(x dynamo.State, t, dt float64) dynamo.Control {
	out, d := c.PID.Update(c.Reference, x[c.Index], dt)
	if c.Coarse(d.Error) {
		return dynamo.Control{c.Big.Clamp(out), 0}
	}
	return dynamo.Control{0, c.Small.Clamp(out)}
}

// Coarse reports whether err selects the big valve.
func (c *ValveSplit) Coarse(err float64) bool {
	return math.Abs(err) > math.Abs(c.Band*c.Reference)
}

// SplitMode selects how Differential divides thrust between the motors.
type SplitMode uint8

const (
	// SplitSymmetric gives left = (F - ΔF)/2 and right = (F + ΔF)/2.
	SplitSymmetric SplitMode = iota
	// SplitAsWritten feeds both motors (F + ΔF)/2, so no torque is ever
	// produced.
	SplitAsWritten
)

func (m SplitMode) String() string {
	switch m {
	case SplitSymmetric:
		return "symmetric"
	case SplitAsWritten:
		return "as_written"
	default:
		return fmt.Sprintf("SplitMode(%d)", uint8(m))
	}
}

func ParseSplitMode(s string) (SplitMode, error) {
	switch s {
	case "", "symmetric":
		return SplitSymmetric, nil
	case "as_written":
		return SplitAsWritten, nil
	default:
		return SplitSymmetric, fmt.Errorf("unknown split mode %q", s)
	}
}

// Differential is the planar drone law. A vertical PID produces the common
// thrust, a proportional attitude term produces the differential, and each
// motor is saturated on its own.
type Differential struct {
	Altitude     *PID
	AltitudeRef  float64
	AttitudeGain float64
	AttitudeRef  float64
	Mode         SplitMode
	Motor        Limits
}

func NewDifferential(altitude *PID, altitudeRef, attitudeGain float64, motor Limits) *Differential {
	return &Differential{
		Altitude:     altitude,
		AltitudeRef:  altitudeRef,
		AttitudeGain: attitudeGain,
		Motor:        motor,
	}
}

func (c *Differential) Compute(x dynamo.State, t, dt float64) dynamo.Control {
	total, _ := c.Altitude.Update(c.AltitudeRef, x[physics.DroneY], dt)
	delta := c.AttitudeGain * (c.AttitudeRef - x[physics.DroneTheta])
	left, right := c.Split(total, delta)
	return dynamo.Control{c.Motor.Clamp(left), c.Motor.Clamp(right)}
}

// Split divides total and delta into unsaturated motor commands.
func (c *Differential) Split(total, delta float64) (left, right float64) {
	right = (total + delta) / 2
	if c.Mode == SplitAsWritten {
		return right, right
	}
	return (total - delta) / 2, right
}
