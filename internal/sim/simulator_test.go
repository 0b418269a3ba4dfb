package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/integrators"
	"github.com/san-kum/ctrlsim/internal/physics"
	"github.com/san-kum/ctrlsim/internal/supervisor"
)

type decayPlant struct{}

func (decayPlant) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-x[0]}
}

func (decayPlant) StateDim() int   { return 1 }
func (decayPlant) ControlDim() int { return 0 }

type nanPlant struct{ decayPlant }

func (nanPlant) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	if t >= 0.5 {
		return dynamo.State{math.NaN()}
	}
	return dynamo.State{1}
}

type countMetric struct {
	count int
	sum   float64
}

func (m *countMetric) Name() string { return "test" }
func (m *countMetric) Observe(x dynamo.State, u dynamo.Control, t float64) {
	m.count++
	m.sum += x[0]
}
func (m *countMetric) Value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
func (m *countMetric) Reset() {
	m.count = 0
	m.sum = 0
}

func TestSimulatorRun(t *testing.T) {
	s := New(decayPlant{}, integrators.NewEuler(), control.NewNone(0))

	rec, err := s.Run(context.Background(), dynamo.State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(rec.Samples) != 10 {
		t.Errorf("expected 10 samples, got %d", len(rec.Samples))
	}
	if rec.Steps != 10 {
		t.Errorf("expected 10 steps, got %d", rec.Steps)
	}
	if math.Abs(rec.FinalTime-1.0) > 1e-12 {
		t.Errorf("expected final time 1.0, got %f", rec.FinalTime)
	}
	if !rec.Completed() {
		t.Error("run should complete")
	}

	// explicit Euler: (1 - dt)^n
	want := math.Pow(0.9, 10)
	if math.Abs(rec.Final[0]-want) > 1e-12 {
		t.Errorf("expected final state %.10f, got %.10f", want, rec.Final[0])
	}
	if rec.Samples[0].State[0] != 1.0 || rec.Samples[0].Time != 0 {
		t.Errorf("first sample should hold the initial state, got %+v", rec.Samples[0])
	}
	if rec.Samples[0].Phase != dynamo.Tracking {
		t.Errorf("plain law should record the tracking phase, got %v", rec.Samples[0].Phase)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(decayPlant{}, integrators.NewEuler(), control.NewNone(0))

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"negative stride", Config{Dt: 0.1, Duration: 1.0, Stride: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), dynamo.State{1.0}, tt.cfg)
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	s := New(decayPlant{}, integrators.NewEuler(), control.NewNone(0))
	_, err := s.Run(context.Background(), dynamo.State{1, 2}, Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSimulatorMetrics(t *testing.T) {
	s := New(decayPlant{}, integrators.NewEuler(), control.NewNone(0))

	metric := &countMetric{}
	s.AddMetric(metric)

	rec, err := s.Run(context.Background(), dynamo.State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := rec.Metrics["test"]; !ok {
		t.Error("metric not found in record")
	}
	if metric.count != 10 {
		t.Errorf("expected 10 observations, got %d", metric.count)
	}
}

func TestConfigSteps(t *testing.T) {
	tests := []struct {
		cfg  Config
		want int
	}{
		{Config{Dt: 0.1, Duration: 1.0}, 10},
		{Config{Dt: 0.1, Duration: 0.3}, 3},
		{Config{Dt: 0.1, Duration: 5000}, 50000},
		{Config{Dt: 0.3, Duration: 1.0}, 3},
		{Config{Dt: 2, Duration: 1}, 0},
	}

	for _, tt := range tests {
		if got := tt.cfg.Steps(); got != tt.want {
			t.Errorf("Steps(%g/%g) = %d, want %d", tt.cfg.Duration, tt.cfg.Dt, got, tt.want)
		}
	}
}

func TestSimulatorStride(t *testing.T) {
	s := New(decayPlant{}, integrators.NewEuler(), control.NewNone(0))

	rec, err := s.Run(context.Background(), dynamo.State{1.0}, Config{Dt: 0.01, Duration: 1.0, Stride: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Samples) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(rec.Samples))
	}
	for i, sample := range rec.Samples {
		want := float64(i*10) * 0.01
		if math.Abs(sample.Time-want) > 1e-12 {
			t.Errorf("sample %d at t=%f, want %f", i, sample.Time, want)
		}
	}
	if rec.Steps != 100 {
		t.Errorf("stride must not change the step count, got %d", rec.Steps)
	}
}

func TestSimulatorSaturation(t *testing.T) {
	oven := physics.NewOven()
	law := control.NewSingleLoop(control.NewPID(control.Gains{Kp: 1e6, Ki: 10}), 0, 1e6, control.Limits{Max: 100})
	s := New(oven, integrators.NewEuler(), law)

	rec, err := s.Run(context.Background(), dynamo.State{25}, Config{Dt: 0.1, Duration: 100})
	if err != nil {
		t.Fatal(err)
	}
	for _, sample := range rec.Samples {
		if sample.Command[0] > 100 || sample.Command[0] < 0 {
			t.Fatalf("command %f escaped [0, 100] at t=%f", sample.Command[0], sample.Time)
		}
	}
}

func TestSimulatorGroundClamp(t *testing.T) {
	drone := physics.NewVerticalDrone()
	s := New(drone, integrators.NewEuler(), control.NewNone(1))

	rec, err := s.Run(context.Background(), dynamo.State{1, 0}, Config{Dt: 0.01, Duration: 2})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Halted {
		t.Error("ground contact is not a halt")
	}
	if rec.Final[0] != 0 {
		t.Errorf("expected drone resting on the ground, got %v", rec.Final)
	}
	for _, v := range rec.Series(0) {
		if v < 0 {
			t.Fatalf("height went negative: %f", v)
		}
	}
}

func rocketCase(alt0, maxThrust float64) (*Simulator, dynamo.State) {
	plant := physics.NewRocket()
	plant.Surface = 0
	cfg := supervisor.RocketConfig{
		Target:    1000,
		MaxThrust: maxThrust,
		Gravity:   plant.Gravity,
		Surface:   plant.Surface,
		Thresholds: supervisor.Thresholds{
			Altitude:          20,
			Velocity:          5,
			OrbitDuration:     10,
			TouchdownVelocity: 3,
		},
		SafetyMargin:       50,
		LowAltitude:        100,
		ExtraBrakeGain:     0.8,
		ExtraBrakeVelocity: 2,
	}
	pid := control.NewPIDWithLimit(control.Gains{Kp: 0.5, Ki: 0.001, Kd: 2}, 1e4)
	s := New(plant, integrators.NewEuler(), supervisor.NewRocket(cfg, pid))
	return s, dynamo.State{alt0, 0, 1000}
}

func TestSimulatorCrashBoundary(t *testing.T) {
	s, x0 := rocketCase(-1, 0)
	rec, err := s.Run(context.Background(), x0, Config{Dt: 0.01, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Halted || rec.Halt == nil {
		t.Fatal("expected a crash below the surface")
	}
	if rec.Halt.Step > 1 {
		t.Errorf("crash should be detected within one step, got step %d", rec.Halt.Step)
	}
	if rec.Halt.Reason == "" {
		t.Error("halt should carry a reason")
	}
	if rec.Completed() {
		t.Error("halted run is not completed")
	}

	s, x0 = rocketCase(1, 0)
	rec, err = s.Run(context.Background(), x0, Config{Dt: 0.01, Duration: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Halted {
		t.Errorf("one unit of margin must not crash spuriously: %+v", rec.Halt)
	}
	if rec.Steps != 10 {
		t.Errorf("expected 10 steps, got %d", rec.Steps)
	}
}

// A coasting rocket crossing the surface settles when its speed is within the
// touchdown limit and crashes when it is faster.
func TestSimulatorTouchdownLimit(t *testing.T) {
	tests := []struct {
		name    string
		speed   float64
		crashed bool
	}{
		{"well below the limit", 1, false},
		{"at the limit", 3, false},
		{"just above the limit", 3.01, true},
		{"fast", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plant := physics.NewRocket()
			plant.Surface = 0
			plant.Gravity = 0
			plant.TouchdownVelocity = 3
			s := New(plant, integrators.NewEuler(), control.NewConstant(0))

			rec, err := s.Run(context.Background(), dynamo.State{0.01, -tt.speed, 100}, Config{Dt: 0.01, Duration: 0.05})
			if err != nil {
				t.Fatal(err)
			}
			if rec.Halted != tt.crashed {
				t.Fatalf("halted = %v, want %v (halt %+v)", rec.Halted, tt.crashed, rec.Halt)
			}
			if tt.crashed {
				if rec.Halt.Step > 1 || rec.Final[physics.RocketAltitude] >= 0 {
					t.Errorf("crash should be reported on the crossing step below the surface, got %+v final %v", rec.Halt, rec.Final)
				}
				return
			}
			if rec.Final[physics.RocketAltitude] != 0 || rec.Final[physics.RocketVelocity] != 0 {
				t.Errorf("touchdown should rest on the surface, final %v", rec.Final)
			}
			if rec.Steps != 5 {
				t.Errorf("expected the full 5 steps, got %d", rec.Steps)
			}
		})
	}
}

func TestSimulatorDeterminism(t *testing.T) {
	run := func() *Record {
		s, x0 := rocketCase(0, 30)
		rec, err := s.Run(context.Background(), x0, Config{Dt: 0.01, Duration: 100, Stride: 100})
		if err != nil {
			t.Fatal(err)
		}
		return rec
	}

	a, b := run(), run()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("records differ (-first +second):\n%s", diff)
	}
}

func TestSimulatorValidateState(t *testing.T) {
	s := New(nanPlant{}, integrators.NewEuler(), control.NewNone(0))

	rec, err := s.Run(context.Background(), dynamo.State{0}, Config{Dt: 0.1, Duration: 1, ValidateState: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Errors) != 1 {
		t.Fatalf("expected one error, got %v", rec.Errors)
	}
	var se dynamo.SimError
	if !errors.As(rec.Errors[0], &se) {
		t.Fatalf("expected SimError, got %T", rec.Errors[0])
	}
	if !rec.Final.IsValid() {
		t.Error("final state should be the last valid state")
	}
	if rec.Steps >= 10 {
		t.Errorf("run should stop early, took %d steps", rec.Steps)
	}
}

func TestSimulatorCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(decayPlant{}, integrators.NewEuler(), control.NewNone(0))
	rec, err := s.Run(ctx, dynamo.State{1}, Config{Dt: 0.1, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if rec == nil || rec.Steps != 0 {
		t.Error("cancelled run should return an empty partial record")
	}
}

func TestBatch(t *testing.T) {
	cfg := Config{Dt: 0.01, Duration: 50, Stride: 100}
	recs, err := Batch(context.Background(), 4, cfg, func(i int) (*Simulator, dynamo.State, error) {
		s, x0 := rocketCase(0, 30)
		return s, x0, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if diff := cmp.Diff(recs[0], recs[i]); diff != "" {
			t.Errorf("run %d differs from run 0:\n%s", i, diff)
		}
	}

	_, err = Batch(context.Background(), 2, cfg, func(i int) (*Simulator, dynamo.State, error) {
		return nil, nil, dynamo.ErrInvalidConfig
	})
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected factory error, got %v", err)
	}
}
