// Package experiment turns a configuration into runnable closed-loop
// simulations and scores them.
package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/integrators"
	"github.com/san-kum/ctrlsim/internal/metrics"
	"github.com/san-kum/ctrlsim/internal/sim"
	"github.com/san-kum/ctrlsim/internal/supervisor"
)

// Experiment is a validated configuration. Every run builds a fresh plant,
// controller and simulator, so runs never share state.
type Experiment struct {
	cfg      *config.Config
	builder  Builder
	registry *Registry
	logger   *zap.Logger
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithRegistry(r *Registry) Option {
	return func(e *Experiment) { e.registry = r }
}

// New validates cfg and builds one run to surface plant errors before any
// step is taken.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	e := &Experiment{
		cfg:    cfg.Clone(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := e.registry.Get(e.cfg.System)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}
	e.builder = b

	if _, _, err := e.Build(e.cfg.Gains); err != nil {
		return nil, err
	}
	if e.cfg.System == config.SystemDrone2D && e.cfg.Drone.Split == control.SplitAsWritten.String() {
		e.logger.Warn("as-written motor split feeds both motors the same command; attitude is uncontrolled")
	}
	e.logger.Debug("experiment ready",
		zap.String("system", e.cfg.System),
		zap.String("integrator", e.cfg.Integrator),
		zap.Int("steps", e.SimConfig().Steps()),
	)
	return e, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg.Clone() }

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:       e.cfg.Dt,
		Duration: e.cfg.Duration,
		Stride:   e.cfg.Stride,
	}
}

// Tracked returns the tracked state index, its absolute reference and the
// datum it is measured from.
func (e *Experiment) Tracked() (index int, reference, offset float64) {
	if e.builder.Offset != nil {
		offset = e.builder.Offset(e.cfg)
	}
	return e.builder.Tracked, e.cfg.Reference + offset, offset
}

// Build assembles a fresh simulator for gains g together with its initial
// state. The standard metrics are attached.
func (e *Experiment) Build(g control.Gains) (*sim.Simulator, dynamo.State, error) {
	plant, err := e.builder.Plant(e.cfg)
	if err != nil {
		return nil, nil, err
	}
	if v, ok := plant.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, nil, err
		}
	}
	if len(e.cfg.Initial) != plant.StateDim() {
		return nil, nil, dynamo.Invalid("initial", float64(len(e.cfg.Initial)),
			fmt.Sprintf("%s needs %d state values", e.cfg.System, plant.StateDim()))
	}

	law, err := e.builder.Law(e.cfg, g, e.logger)
	if err != nil {
		return nil, nil, err
	}
	law = supervisor.Supervise(law)

	integrator, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return nil, nil, dynamo.Invalid("integrator", 0, err.Error())
	}

	s := sim.New(plant, integrator, law).WithLogger(e.logger)
	index, ref, offset := e.Tracked()
	s.AddMetric(metrics.NewTrackingMSE(index, ref))
	s.AddMetric(metrics.NewFinalError(index, ref))
	s.AddMetric(metrics.NewPeak(index, offset))
	s.AddMetric(metrics.NewControlEffort())
	if e.cfg.Output.Max > 0 {
		s.AddMetric(metrics.NewSaturation(e.cfg.Output.Max))
	}

	x0 := make(dynamo.State, len(e.cfg.Initial))
	copy(x0, e.cfg.Initial)
	return s, x0, nil
}

// Run simulates the configured gains.
func (e *Experiment) Run(ctx context.Context, observers ...dynamo.Observer) (*sim.Record, error) {
	return e.RunWith(ctx, e.cfg.Gains, observers...)
}

func (e *Experiment) RunWith(ctx context.Context, g control.Gains, observers ...dynamo.Observer) (*sim.Record, error) {
	s, x0, err := e.Build(g)
	if err != nil {
		return nil, err
	}
	for _, o := range observers {
		s.AddObserver(o)
	}
	return s.Run(ctx, x0, e.SimConfig())
}

// Cost is the mean squared tracking error of a full run at gains g. A run
// that halts early is scored over the steps it took.
func (e *Experiment) Cost(ctx context.Context, g control.Gains) (float64, error) {
	rec, err := e.RunWith(ctx, g)
	if err != nil {
		return 0, err
	}
	return rec.Metrics["mse"], nil
}
