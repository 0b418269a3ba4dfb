package config

import (
	"sort"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/physics"
)

func base(system string) *Config {
	return &Config{
		System:     system,
		Integrator: "euler",
		Controller: ControllerPID,
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tuning:     DefaultTuning(),
	}
}

func ovenDefault() *Config {
	c := base(SystemOven)
	c.Duration = 5000
	c.Initial = []float64{25}
	c.Reference = 200
	c.Gains = control.Gains{Kp: 100, Ki: 0.04, Kd: 5}
	c.Output = control.Limits{Min: 0, Max: 100}
	c.Plant = PlantConfig{HeatLoss: 0.015, Ambient: 20, HeaterEfficiency: 30, ThermalMass: 150}
	return c
}

func tankDefault() *Config {
	c := base(SystemTank)
	c.Duration = 1000
	c.Initial = []float64{0}
	c.Reference = 1000
	c.Gains = control.Gains{Kp: 0.01, Ki: 0.001, Kd: 0.01}
	c.Plant = PlantConfig{Leak: 0.05}
	c.Tank = TankConfig{
		Band:  0.1,
		Big:   control.Limits{Min: 0, Max: 50},
		Small: control.Limits{Min: 0, Max: 10},
	}
	return c
}

func droneDefault() *Config {
	c := base(SystemDrone2D)
	c.Dt = 0.01
	c.Duration = 120
	c.Initial = []float64{0, 5, 0, 0, 0, 0}
	c.Reference = 10
	c.Gains = control.Gains{Kp: 30, Ki: 5, Kd: 15}
	c.Output = control.Limits{Min: 0, Max: 50}
	c.Plant = PlantConfig{Mass: 5, Gravity: 9.8, ArmLength: 0.2, Inertia: physics.RodInertia(5, 0.2)}
	c.Drone = DroneConfig{AttitudeGain: 5, Split: control.SplitSymmetric.String()}
	return c
}

func verticalDefault() *Config {
	c := base(SystemVerticalDrone)
	c.Dt = 0.01
	c.Duration = 30
	c.Initial = []float64{0, 0}
	c.Reference = 10
	c.Gains = control.Gains{Kp: 30, Ki: 5, Kd: 15}
	c.Output = control.Limits{Min: 0, Max: 100}
	c.Plant = PlantConfig{Mass: 5, Gravity: 9.8}
	return c
}

func integratorDefault() *Config {
	c := base(SystemIntegrator)
	c.Dt = 0.01
	c.Duration = 100
	c.Initial = []float64{0}
	c.Reference = 1
	c.Gains = control.Gains{Kp: 1}
	c.Output = control.Limits{Min: -1e9, Max: 1e9}
	c.Plant = PlantConfig{Leak: 0.1}
	return c
}

// rocketMission is the full-scale flight: a 10 000 km apogee target from the
// Earth's surface with a one millisecond step.
func rocketMission() *Config {
	c := base(SystemRocket)
	c.Dt = 0.001
	c.Duration = 8000
	c.Stride = 1000
	c.Initial = []float64{6371000, 0, 300000}
	c.Reference = 10000000
	c.Gains = control.Gains{Kp: 0.000041, Ki: 0.000001, Kd: 0.025}
	c.IntegralLimit = 1e7
	c.Plant = PlantConfig{Gravity: 9.8}
	c.Rocket = RocketConfig{
		Surface:            6371000,
		DryMass:            10000,
		BurnRate:           0.003,
		MaxThrust:          30,
		ThresholdAltitude:  1000,
		ThresholdVelocity:  1000,
		OrbitDuration:      60,
		SafetyMargin:       500000,
		LowAltitude:        50000,
		ExtraBrakeGain:     0.8,
		ExtraBrakeVelocity: 2,
		TouchdownVelocity:  3,
		Disturbance:        1.0,
	}
	return c
}

// rocketHop is a short hop to 1 km that runs the whole phase sequence in a
// few minutes of simulated time.
func rocketHop() *Config {
	c := rocketMission()
	c.Dt = 0.01
	c.Duration = 200
	c.Stride = 100
	c.Initial = []float64{0, 0, 1000}
	c.Reference = 1000
	c.Gains = control.Gains{Kp: 0.5, Ki: 0.001, Kd: 2}
	c.IntegralLimit = 1e4
	c.Rocket.Surface = 0
	c.Rocket.ThresholdAltitude = 20
	c.Rocket.ThresholdVelocity = 5
	c.Rocket.OrbitDuration = 10
	c.Rocket.SafetyMargin = 50
	c.Rocket.LowAltitude = 100
	c.Rocket.Disturbance = 0
	return c
}

func with(c *Config, fn func(*Config)) *Config {
	fn(c)
	return c
}

// Presets holds the named scenarios of every system. Use GetPreset to obtain
// a copy that is safe to modify.
var Presets = map[string]map[string]*Config{
	SystemOven: {
		"default": ovenDefault(),
		"untuned": with(ovenDefault(), func(c *Config) {
			c.Gains = control.Gains{}
		}),
		"coarse": with(ovenDefault(), func(c *Config) {
			c.Dt = 1
		}),
	},
	SystemTank: {
		"default": tankDefault(),
		"slow_leak": with(tankDefault(), func(c *Config) {
			c.Plant.Leak = 0.01
		}),
	},
	SystemDrone2D: {
		"default": droneDefault(),
		"hover": with(droneDefault(), func(c *Config) {
			c.Controller = ControllerOpenLoop
			c.OpenLoop = []float64{24.5, 24.5}
		}),
		"tilt": with(droneDefault(), func(c *Config) {
			c.Duration = 5
			c.Drone.AttitudeRef = 0.05
		}),
		"as_written": with(droneDefault(), func(c *Config) {
			c.Duration = 5
			c.Drone.AttitudeRef = 0.05
			c.Drone.Split = control.SplitAsWritten.String()
		}),
	},
	SystemVerticalDrone: {
		"default": verticalDefault(),
		"drop": with(verticalDefault(), func(c *Config) {
			c.Controller = ControllerOpenLoop
			c.OpenLoop = []float64{0}
			c.Initial = []float64{10, 0}
			c.Duration = 5
		}),
	},
	SystemIntegrator: {
		"default": integratorDefault(),
		"pure": with(integratorDefault(), func(c *Config) {
			c.Plant.Leak = 0
		}),
	},
	SystemRocket: {
		"default": rocketHop(),
		"disturbed": with(rocketHop(), func(c *Config) {
			c.Rocket.Disturbance = 1.0
			c.Seed = 1
		}),
		"mission": rocketMission(),
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
