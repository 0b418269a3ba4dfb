package control

import (
	"fmt"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Limits is a closed saturation band [Min, Max].
type Limits struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (l Limits) Clamp(v float64) float64 {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

func (l Limits) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Validate rejects an empty band. field names the band in the error.
func (l Limits) Validate(field string) error {
	if l.Min > l.Max {
		return dynamo.Invalid(field, l.Min, fmt.Sprintf("min exceeds max %g", l.Max))
	}
	return nil
}

// Gains is the PID gain vector.
type Gains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

func (g Gains) String() string {
	return fmt.Sprintf("Kp=%.4f Ki=%.4f Kd=%.4f", g.Kp, g.Ki, g.Kd)
}

// Vec returns the gains in Kp, Ki, Kd order.
func (g Gains) Vec() []float64 {
	return []float64{g.Kp, g.Ki, g.Kd}
}

// GainsFromVec is the inverse of Gains.Vec.
func GainsFromVec(v []float64) Gains {
	return Gains{Kp: v[0], Ki: v[1], Kd: v[2]}
}

// GainBounds holds the per-gain box constraints used by the tuners.
type GainBounds struct {
	Kp Limits `yaml:"kp"`
	Ki Limits `yaml:"ki"`
	Kd Limits `yaml:"kd"`
}

// DefaultGainBounds are the oven tuning bounds.
func DefaultGainBounds() GainBounds {
	return GainBounds{
		Kp: Limits{Min: 0, Max: 500},
		Ki: Limits{Min: 0, Max: 10},
		Kd: Limits{Min: 0, Max: 50},
	}
}

func (b GainBounds) Validate() error {
	if err := b.Kp.Validate("bounds.kp"); err != nil {
		return err
	}
	if err := b.Ki.Validate("bounds.ki"); err != nil {
		return err
	}
	return b.Kd.Validate("bounds.kd")
}

// Clamp projects g onto the box.
func (b GainBounds) Clamp(g Gains) Gains {
	return Gains{
		Kp: b.Kp.Clamp(g.Kp),
		Ki: b.Ki.Clamp(g.Ki),
		Kd: b.Kd.Clamp(g.Kd),
	}
}

func (b GainBounds) Contains(g Gains) bool {
	return b.Kp.Contains(g.Kp) && b.Ki.Contains(g.Ki) && b.Kd.Contains(g.Kd)
}
