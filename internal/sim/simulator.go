package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

type Simulator struct {
	plant      dynamo.Plant
	integrator dynamo.Integrator
	controller dynamo.Controller
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *zap.Logger
}

func New(plant dynamo.Plant, integrator dynamo.Integrator, controller dynamo.Controller) *Simulator {
	return &Simulator{
		plant:      plant,
		integrator: integrator,
		controller: controller,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     zap.NewNop(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) WithLogger(l *zap.Logger) *Simulator {
	if l != nil {
		s.logger = l
	}
	return s
}

// Run integrates the closed loop from x0 for cfg.Steps() steps. Each step
// checks for a crash, computes and gates the command, records, integrates and
// constrains. A crash halts the run and is reported in the record, not as an
// error.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != s.plant.StateDim() {
		return nil, fmt.Errorf("%w: x0 has %d entries, plant wants %d",
			dynamo.ErrDimensionMismatch, len(x0), s.plant.StateDim())
	}

	steps := cfg.Steps()
	stride := cfg.stride()
	rec := &Record{
		Samples: make([]Sample, 0, steps/stride+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	crasher, _ := s.plant.(dynamo.Crasher)
	gate, _ := s.plant.(dynamo.Gate)
	constrainer, _ := s.plant.(dynamo.Constrainer)
	phased, _ := s.controller.(dynamo.Phased)

	x := x0.Clone()
	dt := cfg.Dt

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(rec, x, float64(i)*dt)
			return rec, ctx.Err()
		default:
		}

		t := float64(i) * dt

		if crasher != nil {
			if crashed, reason := crasher.Crashed(x); crashed {
				rec.Halted = true
				rec.Halt = &Halt{Step: i, Time: t, Reason: reason}
				s.logger.Warn("simulation halted",
					zap.Int("step", i),
					zap.Float64("t", t),
					zap.String("reason", reason),
				)
				break
			}
		}

		phase := dynamo.Tracking
		if phased != nil {
			phase = phased.Phase()
		}

		u := s.controller.Compute(x, t, dt)
		if gate != nil {
			u = gate.Gate(x, u)
		}

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		if i%stride == 0 {
			rec.Samples = append(rec.Samples, Sample{
				Time:    t,
				State:   x.Clone(),
				Command: u.Clone(),
				Phase:   phase,
			})
		}

		next := s.integrator.Step(s.plant, x, u, t, dt)
		if constrainer != nil {
			next = constrainer.Constrain(next)
		}

		if cfg.ValidateState && !next.IsValid() {
			rec.Errors = append(rec.Errors, dynamo.SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"})
			rec.Steps = i
			s.finish(rec, x, t)
			return rec, nil
		}

		x = next
		rec.Steps = i + 1
	}

	s.finish(rec, x, float64(rec.Steps)*dt)
	return rec, nil
}

func (s *Simulator) finish(rec *Record, x dynamo.State, t float64) {
	rec.Final = x.Clone()
	rec.FinalTime = t
	for _, m := range s.metrics {
		rec.Metrics[m.Name()] = m.Value()
	}
}
