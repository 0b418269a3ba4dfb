// Package automation runs batches of experiments: scripted scenarios,
// parameter sweeps and Monte Carlo trials.
package automation

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math/rand"
	"os"
	"slices"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/experiment"
	"github.com/san-kum/ctrlsim/internal/metrics"
	"github.com/san-kum/ctrlsim/internal/sim"
)

// Params maps sweepable parameter names onto configuration fields.
var Params = map[string]func(*config.Config, float64){
	"kp":             func(c *config.Config, v float64) { c.Gains.Kp = v },
	"ki":             func(c *config.Config, v float64) { c.Gains.Ki = v },
	"kd":             func(c *config.Config, v float64) { c.Gains.Kd = v },
	"reference":      func(c *config.Config, v float64) { c.Reference = v },
	"integral_limit": func(c *config.Config, v float64) { c.IntegralLimit = v },
	"output_max":     func(c *config.Config, v float64) { c.Output.Max = v },
	"leak":           func(c *config.Config, v float64) { c.Plant.Leak = v },
	"mass":           func(c *config.Config, v float64) { c.Plant.Mass = v },
	"gravity":        func(c *config.Config, v float64) { c.Plant.Gravity = v },
	"attitude_gain":  func(c *config.Config, v float64) { c.Drone.AttitudeGain = v },
	"band":           func(c *config.Config, v float64) { c.Tank.Band = v },
	"max_thrust":     func(c *config.Config, v float64) { c.Rocket.MaxThrust = v },
	"disturbance":    func(c *config.Config, v float64) { c.Rocket.Disturbance = v },
}

// ParamNames lists the keys of Params in sorted order.
func ParamNames() []string {
	return slices.Sorted(maps.Keys(Params))
}

// SetParam applies value to the parameter called name.
func SetParam(c *config.Config, name string, value float64) error {
	set, ok := Params[name]
	if !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}
	set(c, value)
	return nil
}

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset and overrides selected fields.
type ScenarioStep struct {
	Label    string             `yaml:"label"`
	System   string             `yaml:"system"`
	Preset   string             `yaml:"preset"`
	Dt       float64            `yaml:"dt,omitempty"`
	Duration float64            `yaml:"duration,omitempty"`
	Initial  []float64          `yaml:"initial,omitempty,flow"`
	Params   map[string]float64 `yaml:"params,omitempty"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, dynamo.Invalid("steps", 0, "scenario has no steps")
	}
	return &sc, nil
}

// Config resolves the step into a full configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	preset := cmp.Or(s.Preset, "default")
	c := config.GetPreset(s.System, preset)
	if c == nil {
		return nil, fmt.Errorf("%w: unknown preset %s/%s", dynamo.ErrInvalidConfig, s.System, preset)
	}
	if s.Dt > 0 {
		c.Dt = s.Dt
	}
	if s.Duration > 0 {
		c.Duration = s.Duration
	}
	if len(s.Initial) > 0 {
		c.Initial = slices.Clone(s.Initial)
	}
	for _, name := range slices.Sorted(maps.Keys(s.Params)) {
		if err := SetParam(c, name, s.Params[name]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type StepResult struct {
	Label  string
	Config *config.Config
	Record *sim.Record
}

// RunScenario executes the steps in order and stops at the first failure.
func RunScenario(ctx context.Context, sc *Scenario, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		label := step.Label
		if label == "" {
			label = fmt.Sprintf("%s/%s", step.System, cmp.Or(step.Preset, "default"))
		}
		log.Info("scenario step", zap.Int("step", i+1), zap.Int("of", len(sc.Steps)), zap.String("label", label))

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(cfg, experiment.WithLogger(log))
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		rec, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Label: label, Config: cfg, Record: rec})
	}
	return results, nil
}

// runAll builds one experiment per configuration and runs them concurrently.
// The configurations must share their time base.
func runAll(ctx context.Context, cfgs []*config.Config, log *zap.Logger) ([]*sim.Record, error) {
	exps := make([]*experiment.Experiment, len(cfgs))
	for i, c := range cfgs {
		e, err := experiment.New(c, experiment.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		exps[i] = e
	}
	if len(exps) == 0 {
		return nil, nil
	}
	return sim.Batch(ctx, len(exps), exps[0].SimConfig(), func(i int) (*sim.Simulator, dynamo.State, error) {
		return exps[i].Build(cfgs[i].Gains)
	})
}

// Sweep varies one parameter linearly over [Min, Max].
type Sweep struct {
	Base  *config.Config
	Param string
	Min   float64
	Max   float64
	Steps int
}

func (s Sweep) Values() []float64 {
	if s.Steps == 1 {
		return []float64{s.Min}
	}
	out := make([]float64, s.Steps)
	step := (s.Max - s.Min) / float64(s.Steps-1)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

type SweepResult struct {
	Value  float64
	Record *sim.Record
}

// Cost is the tracking MSE of the run.
func (r SweepResult) Cost() float64 { return r.Record.Metrics["mse"] }

func RunSweep(ctx context.Context, sw Sweep, log *zap.Logger) ([]SweepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if sw.Steps < 1 {
		return nil, dynamo.Invalid("sweep.steps", float64(sw.Steps), "must be at least 1")
	}
	if _, ok := Params[sw.Param]; !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, sw.Param)
	}

	values := sw.Values()
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		cfgs[i] = sw.Base.Clone()
		Params[sw.Param](cfgs[i], v)
	}
	records, err := runAll(ctx, cfgs, log)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(values))
	for i, v := range values {
		results[i] = SweepResult{Value: v, Record: records[i]}
	}
	log.Info("sweep complete", zap.String("param", sw.Param), zap.Int("points", len(results)))
	return results, nil
}

// MonteCarlo perturbs the initial state uniformly by ±Perturbation and gives
// each trial its own disturbance seed.
type MonteCarlo struct {
	Base         *config.Config
	Trials       int
	Perturbation float64
	Seed         int64
}

type Trial struct {
	ID      int
	Initial dynamo.State
	Seed    int64
	Record  *sim.Record
}

func RunMonteCarlo(ctx context.Context, mc MonteCarlo, log *zap.Logger) ([]Trial, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if mc.Trials < 1 {
		return nil, dynamo.Invalid("trials", float64(mc.Trials), "must be at least 1")
	}
	if err := dynamo.RequireNonNegative("perturbation", mc.Perturbation); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(mc.Seed))
	cfgs := make([]*config.Config, mc.Trials)
	trials := make([]Trial, mc.Trials)
	for i := range cfgs {
		c := mc.Base.Clone()
		for k := range c.Initial {
			c.Initial[k] += (rng.Float64() - 0.5) * 2 * mc.Perturbation
		}
		c.Seed = mc.Seed + int64(i)
		cfgs[i] = c
		trials[i] = Trial{ID: i, Initial: dynamo.State(slices.Clone(c.Initial)), Seed: c.Seed}
	}

	records, err := runAll(ctx, cfgs, log)
	if err != nil {
		return nil, err
	}
	for i := range trials {
		trials[i].Record = records[i]
	}
	log.Info("monte carlo complete", zap.Int("trials", len(trials)))
	return trials, nil
}

// Stats summarises a set of trials.
type Stats struct {
	Trials    int
	Completed int
	Halted    int
	Cost      metrics.Summary
}

func Summarize(trials []Trial) Stats {
	st := Stats{Trials: len(trials)}
	costs := make([]float64, 0, len(trials))
	for _, t := range trials {
		switch {
		case t.Record.Halted:
			st.Halted++
		case t.Record.Completed():
			st.Completed++
		}
		costs = append(costs, t.Record.Metrics["mse"])
	}
	st.Cost = metrics.Summarize(costs)
	return st
}
