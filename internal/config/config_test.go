package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.System != SystemOven {
		t.Errorf("expected system oven, got %s", cfg.System)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestEveryPresetValidates(t *testing.T) {
	for _, system := range Systems() {
		for _, name := range ListPresets(system) {
			cfg := GetPreset(system, name)
			if cfg.System != system {
				t.Errorf("%s/%s: system field is %q", system, name, cfg.System)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", system, name, err)
			}
		}
		if Default(system) == nil {
			t.Errorf("%s has no default preset", system)
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset(SystemOven, "default")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Gains != (control.Gains{Kp: 100, Ki: 0.04, Kd: 5}) {
		t.Errorf("unexpected oven gains %+v", cfg.Gains)
	}
}

func TestGetPresetIsACopy(t *testing.T) {
	a := GetPreset(SystemRocket, "default")
	a.Initial[0] = 42
	a.Tuning.Grid.Kp[0] = -1
	a.Reference = 7

	b := GetPreset(SystemRocket, "default")
	if b.Initial[0] == 42 || b.Tuning.Grid.Kp[0] == -1 || b.Reference == 7 {
		t.Error("modifying a preset copy leaked into the table")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset(SystemOven, "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "default"); cfg != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets(SystemRocket)
	if len(presets) == 0 {
		t.Error("expected presets for rocket")
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}

	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(*Config)
	}{
		{"zero dt", "dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", "duration", func(c *Config) { c.Duration = -1 }},
		{"inverted output", "output", func(c *Config) { c.Output = control.Limits{Min: 10, Max: 1} }},
		{"inverted bounds", "bounds.kp", func(c *Config) { c.Tuning.Bounds.Kp = control.Limits{Min: 5, Max: 1} }},
		{"zero delta", "tuning.delta", func(c *Config) { c.Tuning.Delta = 0 }},
		{"zero learning rate", "tuning.learning_rate", func(c *Config) { c.Tuning.LearningRate = 0 }},
		{"negative iterations", "tuning.iterations", func(c *Config) { c.Tuning.Iterations = -1 }},
		{"unknown system", "system", func(c *Config) { c.System = "submarine" }},
		{"unknown controller", "controller", func(c *Config) { c.Controller = "lqr" }},
		{"open loop without command", "open_loop", func(c *Config) { c.Controller = ControllerOpenLoop }},
		{"missing initial state", "initial", func(c *Config) { c.Initial = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)

			err := cfg.Validate()
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			var ce *dynamo.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rocket.yaml")

	cfg := GetPreset(SystemRocket, "disturbed")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.System != SystemRocket {
		t.Errorf("expected rocket, got %s", loaded.System)
	}
	if loaded.Rocket != cfg.Rocket {
		t.Errorf("rocket section changed:\n got %+v\nwant %+v", loaded.Rocket, cfg.Rocket)
	}
	if loaded.Seed != 1 || loaded.Gains != cfg.Gains {
		t.Error("seed or gains lost in round trip")
	}
}

func TestParseFallsBackToSystemDefaults(t *testing.T) {
	data := []byte("system: tank\nreference: 500\n")
	cfg, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Reference != 500 {
		t.Errorf("expected reference 500, got %f", cfg.Reference)
	}
	if cfg.Tank.Big.Max != 50 || cfg.Plant.Leak != 0.05 {
		t.Error("unset tank fields should keep the tank defaults")
	}

	cfg, err = Parse([]byte("gains: {kp: 1, ki: 2, kd: 3}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.System != SystemOven || cfg.Gains != (control.Gains{Kp: 1, Ki: 2, Kd: 3}) {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestParseKeepsExplicitZeros(t *testing.T) {
	cfg, err := Parse([]byte("system: drone2d\nplant:\n  mass: 5\n  gravity: 0\n  arm_length: 0.2\n  inertia: 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Plant.Inertia != 0 || cfg.Plant.Gravity != 0 {
		t.Errorf("explicit zeros must survive parsing, got %+v", cfg.Plant)
	}

	preset := GetPreset(SystemDrone2D, "default")
	if preset.Plant.Inertia <= 0 {
		t.Errorf("drone preset must supply an inertia, got %g", preset.Plant.Inertia)
	}

	path := filepath.Join(t.TempDir(), "zero.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Plant != cfg.Plant {
		t.Errorf("round trip changed plant constants: %+v -> %+v", cfg.Plant, loaded.Plant)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("system: submarine\n")); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := Parse([]byte("dt: [1, 2\n")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
