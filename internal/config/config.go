package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// System names.
const (
	SystemIntegrator    = "integrator"
	SystemVerticalDrone = "vertical_drone"
	SystemDrone2D       = "drone2d"
	SystemOven          = "oven"
	SystemTank          = "tank"
	SystemRocket        = "rocket"
)

// Controller names.
const (
	ControllerPID      = "pid"
	ControllerOpenLoop = "open_loop"
)

const (
	DefaultDt       = 0.1
	DefaultDuration = 100.0
	DefaultSystem   = SystemOven
)

type Config struct {
	System     string  `yaml:"system"`
	Integrator string  `yaml:"integrator"`
	Controller string  `yaml:"controller"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Stride     int     `yaml:"stride"`
	Seed       int64   `yaml:"seed"`

	Initial   []float64 `yaml:"initial"`
	Reference float64   `yaml:"reference"`

	Gains         control.Gains  `yaml:"gains"`
	IntegralLimit float64        `yaml:"integral_limit"`
	Output        control.Limits `yaml:"output"`
	OpenLoop      []float64      `yaml:"open_loop,flow"`

	Plant  PlantConfig  `yaml:"plant"`
	Drone  DroneConfig  `yaml:"drone"`
	Tank   TankConfig   `yaml:"tank"`
	Rocket RocketConfig `yaml:"rocket"`
	Tuning TuningConfig `yaml:"tuning"`
}

// PlantConfig holds the physical constants. Each system reads the subset it
// needs. Presets supply every constant; a zero is taken literally and
// rejected by the plant where it is not physical.
type PlantConfig struct {
	Mass             float64 `yaml:"mass"`
	Gravity          float64 `yaml:"gravity"`
	ArmLength        float64 `yaml:"arm_length"`
	Inertia          float64 `yaml:"inertia"`
	Leak             float64 `yaml:"leak"`
	HeatLoss         float64 `yaml:"heat_loss"`
	Ambient          float64 `yaml:"ambient"`
	HeaterEfficiency float64 `yaml:"heater_efficiency"`
	ThermalMass      float64 `yaml:"thermal_mass"`
}

type DroneConfig struct {
	AttitudeGain float64 `yaml:"attitude_gain"`
	AttitudeRef  float64 `yaml:"attitude_ref"`
	Split        string  `yaml:"split"`
}

type TankConfig struct {
	Band  float64        `yaml:"band"`
	Big   control.Limits `yaml:"big"`
	Small control.Limits `yaml:"small"`
}

type RocketConfig struct {
	Surface            float64 `yaml:"surface"`
	DryMass            float64 `yaml:"dry_mass"`
	BurnRate           float64 `yaml:"burn_rate"`
	MaxThrust          float64 `yaml:"max_thrust"`
	ThresholdAltitude  float64 `yaml:"threshold_altitude"`
	ThresholdVelocity  float64 `yaml:"threshold_velocity"`
	OrbitDuration      float64 `yaml:"orbit_duration"`
	SafetyMargin       float64 `yaml:"safety_margin"`
	LowAltitude        float64 `yaml:"low_altitude"`
	ExtraBrakeGain     float64 `yaml:"extra_brake_gain"`
	ExtraBrakeVelocity float64 `yaml:"extra_brake_velocity"`
	TouchdownAltitude  float64 `yaml:"touchdown_altitude"`
	TouchdownVelocity  float64 `yaml:"touchdown_velocity"`
	Disturbance        float64 `yaml:"disturbance"`
}

type TuningConfig struct {
	Iterations   int                `yaml:"iterations"`
	LearningRate float64            `yaml:"learning_rate"`
	Delta        float64            `yaml:"delta"`
	Bounds       control.GainBounds `yaml:"bounds"`
	Parallel     bool               `yaml:"parallel"`
	LogEvery     int                `yaml:"log_every"`
	Grid         GridConfig         `yaml:"grid"`
}

// GridConfig lists the candidate gains for the coarse grid search.
type GridConfig struct {
	Kp []float64 `yaml:"kp,flow"`
	Ki []float64 `yaml:"ki,flow"`
	Kd []float64 `yaml:"kd,flow"`
}

func DefaultTuning() TuningConfig {
	return TuningConfig{
		Iterations:   100,
		LearningRate: 0.1,
		Delta:        0.1,
		Bounds:       control.DefaultGainBounds(),
		LogEvery:     10,
		Grid: GridConfig{
			Kp: []float64{10, 50, 100, 200},
			Ki: []float64{0, 0.01, 0.04, 0.1},
			Kd: []float64{0, 5, 20},
		},
	}
}

// DefaultConfig returns the default preset of the oven.
func DefaultConfig() *Config {
	return Default(DefaultSystem)
}

// Default returns the "default" preset of system, or nil for an unknown
// system.
func Default(system string) *Config {
	return GetPreset(system, "default")
}

// Load reads a YAML file. The file's system selects the defaults that
// unset fields fall back to.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var probe struct {
		System string `yaml:"system"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if probe.System == "" {
		probe.System = DefaultSystem
	}

	cfg := Default(probe.System)
	if cfg == nil {
		return nil, fmt.Errorf("%w: unknown system %q", dynamo.ErrInvalidConfig, probe.System)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Initial = cloneFloats(c.Initial)
	out.OpenLoop = cloneFloats(c.OpenLoop)
	out.Tuning.Grid = GridConfig{
		Kp: cloneFloats(c.Tuning.Grid.Kp),
		Ki: cloneFloats(c.Tuning.Grid.Ki),
		Kd: cloneFloats(c.Tuning.Grid.Kd),
	}
	return &out
}

func cloneFloats(xs []float64) []float64 {
	if xs == nil {
		return nil
	}
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}

// Validate checks everything that can be checked without building the
// plant. Every failure is a *dynamo.ConfigError.
func (c *Config) Validate() error {
	if _, ok := Presets[c.System]; !ok {
		return dynamo.Invalid("system", 0, fmt.Sprintf("unknown system %q", c.System))
	}
	if c.Controller != ControllerPID && c.Controller != ControllerOpenLoop {
		return dynamo.Invalid("controller", 0, fmt.Sprintf("unknown controller %q", c.Controller))
	}
	checks := []error{
		dynamo.RequirePositive("dt", c.Dt),
		dynamo.RequirePositive("duration", c.Duration),
		dynamo.RequireNonNegative("stride", float64(c.Stride)),
		dynamo.RequireNonNegative("integral_limit", c.IntegralLimit),
		c.Output.Validate("output"),
		c.Tank.Big.Validate("tank.big"),
		c.Tank.Small.Validate("tank.small"),
		dynamo.RequireNonNegative("tank.band", c.Tank.Band),
		dynamo.RequireNonNegative("rocket.max_thrust", c.Rocket.MaxThrust),
		dynamo.RequireNonNegative("rocket.disturbance", c.Rocket.Disturbance),
		c.Tuning.Validate(),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if c.Controller == ControllerOpenLoop && len(c.OpenLoop) == 0 {
		return dynamo.Invalid("open_loop", 0, "open-loop controller needs a command")
	}
	if c.Initial == nil {
		return dynamo.Invalid("initial", 0, "initial state is required")
	}
	return nil
}

func (t TuningConfig) Validate() error {
	if t.Iterations < 0 {
		return dynamo.Invalid("tuning.iterations", float64(t.Iterations), "must not be negative")
	}
	if err := dynamo.RequirePositive("tuning.learning_rate", t.LearningRate); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("tuning.delta", t.Delta); err != nil {
		return err
	}
	return t.Bounds.Validate()
}

// Systems lists the known systems in a stable order.
func Systems() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
