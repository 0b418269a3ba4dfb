package experiment

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/physics"
	"github.com/san-kum/ctrlsim/internal/supervisor"
)

// Builder knows how to assemble one system from its configuration.
type Builder struct {
	Plant func(c *config.Config) (dynamo.Plant, error)
	Law   func(c *config.Config, g control.Gains, log *zap.Logger) (dynamo.Controller, error)

	// Tracked is the state component the reference applies to. Offset is
	// added to the reference and subtracted from peaks, for plants whose
	// tracked quantity is measured from a datum.
	Tracked int
	Offset  func(c *config.Config) float64
}

type Registry struct {
	systems map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{systems: make(map[string]Builder)}

	r.Register(config.SystemIntegrator, Builder{Plant: integratorPlant, Law: singleLoop(0)})
	r.Register(config.SystemVerticalDrone, Builder{Plant: verticalPlant, Law: singleLoop(0)})
	r.Register(config.SystemOven, Builder{Plant: ovenPlant, Law: singleLoop(0)})
	r.Register(config.SystemTank, Builder{Plant: tankPlant, Law: valveSplit})
	r.Register(config.SystemDrone2D, Builder{Plant: dronePlant, Law: differential, Tracked: physics.DroneY})
	r.Register(config.SystemRocket, Builder{
		Plant:   rocketPlant,
		Law:     rocketSupervisor,
		Tracked: physics.RocketAltitude,
		Offset:  func(c *config.Config) float64 { return c.Rocket.Surface },
	})

	return r
}

func (r *Registry) Register(name string, b Builder) {
	r.systems[name] = b
}

func (r *Registry) Get(name string) (Builder, error) {
	b, ok := r.systems[name]
	if !ok {
		return Builder{}, fmt.Errorf("unknown system: %s", name)
	}
	return b, nil
}

func (r *Registry) ListSystems() []string {
	names := make([]string, 0, len(r.systems))
	for name := range r.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func integratorPlant(c *config.Config) (dynamo.Plant, error) {
	return &physics.Integrator{Leak: c.Plant.Leak}, nil
}

func verticalPlant(c *config.Config) (dynamo.Plant, error) {
	return &physics.VerticalDrone{
		Mass:    c.Plant.Mass,
		Gravity: c.Plant.Gravity,
	}, nil
}

func ovenPlant(c *config.Config) (dynamo.Plant, error) {
	return &physics.Oven{
		HeatLoss:         c.Plant.HeatLoss,
		Ambient:          c.Plant.Ambient,
		HeaterEfficiency: c.Plant.HeaterEfficiency,
		ThermalMass:      c.Plant.ThermalMass,
	}, nil
}

func tankPlant(c *config.Config) (dynamo.Plant, error) {
	return &physics.Tank{Leak: c.Plant.Leak}, nil
}

func dronePlant(c *config.Config) (dynamo.Plant, error) {
	return &physics.Drone2D{
		Mass:      c.Plant.Mass,
		Gravity:   c.Plant.Gravity,
		ArmLength: c.Plant.ArmLength,
		Inertia:   c.Plant.Inertia,
	}, nil
}

func rocketPlant(c *config.Config) (dynamo.Plant, error) {
	return &physics.Rocket{
		Gravity:           c.Plant.Gravity,
		Surface:           c.Rocket.Surface,
		DryMass:           c.Rocket.DryMass,
		BurnRate:          c.Rocket.BurnRate,
		TouchdownVelocity: c.Rocket.TouchdownVelocity,
	}, nil
}

func newPID(c *config.Config, g control.Gains) (*control.PID, error) {
	pid := control.NewPIDWithLimit(g, c.IntegralLimit)
	if err := pid.Validate(); err != nil {
		return nil, err
	}
	return pid, nil
}

func openLoop(c *config.Config) dynamo.Controller {
	return control.NewConstant(c.OpenLoop...)
}

func singleLoop(index int) func(*config.Config, control.Gains, *zap.Logger) (dynamo.Controller, error) {
	return func(c *config.Config, g control.Gains, _ *zap.Logger) (dynamo.Controller, error) {
		if c.Controller == config.ControllerOpenLoop {
			return openLoop(c), nil
		}
		pid, err := newPID(c, g)
		if err != nil {
			return nil, err
		}
		return control.NewSingleLoop(pid, index, c.Reference, c.Output), nil
	}
}

func valveSplit(c *config.Config, g control.Gains, _ *zap.Logger) (dynamo.Controller, error) {
	if c.Controller == config.ControllerOpenLoop {
		return openLoop(c), nil
	}
	pid, err := newPID(c, g)
	if err != nil {
		return nil, err
	}
	return control.NewValveSplit(pid, c.Reference, c.Tank.Band, c.Tank.Big, c.Tank.Small), nil
}

func differential(c *config.Config, g control.Gains, _ *zap.Logger) (dynamo.Controller, error) {
	if c.Controller == config.ControllerOpenLoop {
		return openLoop(c), nil
	}
	mode, err := control.ParseSplitMode(c.Drone.Split)
	if err != nil {
		return nil, dynamo.Invalid("drone.split", 0, err.Error())
	}
	pid, err := newPID(c, g)
	if err != nil {
		return nil, err
	}
	law := control.NewDifferential(pid, c.Reference, c.Drone.AttitudeGain, c.Output)
	law.AttitudeRef = c.Drone.AttitudeRef
	law.Mode = mode
	return law, nil
}

// RocketConfig maps the configuration onto the flight computer parameters.
func RocketConfig(c *config.Config) supervisor.RocketConfig {
	return supervisor.RocketConfig{
		Target:    c.Reference,
		MaxThrust: c.Rocket.MaxThrust,
		Gravity:   c.Plant.Gravity,
		Surface:   c.Rocket.Surface,
		Thresholds: supervisor.Thresholds{
			Altitude:          c.Rocket.ThresholdAltitude,
			Velocity:          c.Rocket.ThresholdVelocity,
			OrbitDuration:     c.Rocket.OrbitDuration,
			TouchdownAltitude: c.Rocket.TouchdownAltitude,
			TouchdownVelocity: c.Rocket.TouchdownVelocity,
		},
		SafetyMargin:       c.Rocket.SafetyMargin,
		LowAltitude:        c.Rocket.LowAltitude,
		ExtraBrakeGain:     c.Rocket.ExtraBrakeGain,
		ExtraBrakeVelocity: c.Rocket.ExtraBrakeVelocity,
		Disturbance:        c.Rocket.Disturbance,
		Seed:               c.Seed,
	}
}

func rocketSupervisor(c *config.Config, g control.Gains, log *zap.Logger) (dynamo.Controller, error) {
	if c.Controller == config.ControllerOpenLoop {
		return openLoop(c), nil
	}
	rc := RocketConfig(c)
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	pid, err := newPID(c, g)
	if err != nil {
		return nil, err
	}
	return supervisor.NewRocket(rc, pid, supervisor.WithLogger(log)), nil
}
