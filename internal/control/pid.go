package control

import (
	"fmt"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// State is the PID memory carried between updates.
type State struct {
	Integral  float64
	PrevError float64
}

// Diagnostics breaks one update into its terms.
type Diagnostics struct {
	Error      float64
	Integral   float64
	Derivative float64
	P, I, D    float64
	Output     float64
}

// PID is a textbook PID with a backward-difference derivative and an
// optional symmetric clamp on the integral. The output is never saturated.
type PID struct {
	gains Gains

	// IntegralLimit bounds the integral to [-IntegralLimit, IntegralLimit]
	// when positive.
	IntegralLimit float64

	state State
	last  Diagnostics
}

func NewPID(g Gains) *PID {
	return &PID{gains: g}
}

// NewPIDWithLimit builds a PID whose integral is clamped to ±limit.
func NewPIDWithLimit(g Gains, limit float64) *PID {
	return &PID{gains: g, IntegralLimit: limit}
}

// Update advances the controller by dt and returns the unsaturated command.
// The previous error starts at zero, so the first derivative term sees the
// full initial error.
func (p *PID) Update(reference, measurement, dt float64) (float64, Diagnostics) {
	e := reference - measurement

	p.state.Integral += e * dt
	if p.IntegralLimit > 0 {
		if p.state.Integral > p.IntegralLimit {
			p.state.Integral = p.IntegralLimit
		} else if p.state.Integral < -p.IntegralLimit {
			p.state.Integral = -p.IntegralLimit
		}
	}

	derivative := (e - p.state.PrevError) / dt
	p.state.PrevError = e

	d := Diagnostics{
		Error:      e,
		Integral:   p.state.Integral,
		Derivative: derivative,
		P:          p.gains.Kp * e,
		I:          p.gains.Ki * p.state.Integral,
		D:          p.gains.Kd * derivative,
	}
	d.Output = d.P + d.I + d.D
	p.last = d
	return d.Output, d
}

func (p *PID) State() State { return p.state }

// Last returns the diagnostics of the most recent update.
func (p *PID) Last() Diagnostics { return p.last }

func (p *PID) Reset() {
	p.state = State{}
	p.last = Diagnostics{}
}

func (p *PID) Gains() Gains { return p.gains }

func (p *PID) SetGains(g Gains) { p.gains = g }

// Validate rejects a negative integral limit.
func (p *PID) Validate() error {
	return dynamo.RequireNonNegative("integral_limit", p.IntegralLimit)
}

func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp":            p.gains.Kp,
		"Ki":            p.gains.Ki,
		"Kd":            p.gains.Kd,
		"IntegralLimit": p.IntegralLimit,
	}
}

func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.gains.Kp = value
	case "Ki":
		p.gains.Ki = value
	case "Kd":
		p.gains.Kd = value
	case "IntegralLimit":
		p.IntegralLimit = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
