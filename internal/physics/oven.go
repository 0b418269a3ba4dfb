package physics

import "github.com/san-kum/ctrlsim/internal/dynamo"

// Oven is a lumped thermal mass losing heat to ambient. State: [T] in °C.
// Control: [heater power] in percent.
type Oven struct {
	HeatLoss         float64
	Ambient          float64
	HeaterEfficiency float64
	ThermalMass      float64
}

func NewOven() *Oven {
	return &Oven{
		HeatLoss:         0.015,
		Ambient:          20,
		HeaterEfficiency: 30,
		ThermalMass:      150,
	}
}

func (o *Oven) StateDim() int   { return 1 }
func (o *Oven) ControlDim() int { return 1 }

func (o *Oven) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	power := channel(u, 0)
	dT := (-o.HeatLoss*(x[0]-o.Ambient) + o.HeaterEfficiency*(power/100.0)) / o.ThermalMass
	return dynamo.State{dT}
}

// Equilibrium returns the steady temperature for a constant heater power.
func (o *Oven) Equilibrium(power float64) float64 {
	return o.Ambient + o.HeaterEfficiency*(power/100.0)/o.HeatLoss
}

func (o *Oven) Validate() error {
	return firstError(
		dynamo.RequirePositive("thermal_mass", o.ThermalMass),
		dynamo.RequirePositive("heat_loss", o.HeatLoss),
		dynamo.RequirePositive("heater_efficiency", o.HeaterEfficiency),
	)
}

func (o *Oven) GetParams() map[string]float64 {
	return map[string]float64{
		"heat_loss":         o.HeatLoss,
		"ambient":           o.Ambient,
		"heater_efficiency": o.HeaterEfficiency,
		"thermal_mass":      o.ThermalMass,
	}
}

func (o *Oven) SetParam(name string, value float64) error {
	switch name {
	case "heat_loss":
		o.HeatLoss = value
	case "ambient":
		o.Ambient = value
	case "heater_efficiency":
		o.HeaterEfficiency = value
	case "thermal_mass":
		o.ThermalMass = value
	default:
		return unknownParam(name)
	}
	return nil
}
