package supervisor

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/physics"
)

// RocketConfig holds the flight computer parameters. Gravity is the
// magnitude of the local gravitational acceleration.
type RocketConfig struct {
	Target     float64
	MaxThrust  float64
	Gravity    float64
	Surface    float64
	Thresholds Thresholds

	// Descent: free fall while the altitude exceeds the braking distance by
	// more than SafetyMargin. Below LowAltitude and when sinking faster than
	// ExtraBrakeVelocity, Gravity + ExtraBrakeGain·|v| is added on top of the
	// PID command.
	SafetyMargin       float64
	LowAltitude        float64
	ExtraBrakeGain     float64
	ExtraBrakeVelocity float64

	// Disturbance adds Disturbance·U[0,1) to every command.
	Disturbance float64
	Seed        int64
}

func (c RocketConfig) Validate() error {
	return firstError(
		dynamo.RequireNonNegative("max_thrust", c.MaxThrust),
		dynamo.RequireNonNegative("gravity", c.Gravity),
		dynamo.RequireNonNegative("safety_margin", c.SafetyMargin),
		dynamo.RequireNonNegative("extra_brake_gain", c.ExtraBrakeGain),
		dynamo.RequireNonNegative("disturbance", c.Disturbance),
		c.Thresholds.Validate(),
	)
}

// Entry records when a phase became active.
type Entry struct {
	Phase dynamo.Phase
	Time  float64
}

// Rocket is the ascent, orbit, descent supervisor. A single PID is shared by
// ascent and descent, so the integral carries over between them.
type Rocket struct {
	cfg    RocketConfig
	pid    *control.PID
	rng    *rand.Rand
	logger *zap.Logger

	phase   dynamo.Phase
	entered float64
	entries []Entry
}

type Option func(*Rocket)

func WithLogger(l *zap.Logger) Option {
	return func(r *Rocket) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRocket(cfg RocketConfig, pid *control.PID, opts ...Option) *Rocket {
	r := &Rocket{
		cfg:     cfg,
		pid:     pid,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		logger:  zap.NewNop(),
		phase:   dynamo.Ascent,
		entries: []Entry{{Phase: dynamo.Ascent, Time: 0}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sense reads the sensors. There is no noise model; the raw state is
// returned.
func (r *Rocket) Sense(x dynamo.State) Observation {
	return Observation{
		Altitude: x[physics.RocketAltitude] - r.cfg.Surface,
		Velocity: x[physics.RocketVelocity],
		Fuel:     x[physics.RocketFuel],
	}
}

func (r *Rocket) Compute(x dynamo.State, t, dt float64) dynamo.Control {
	obs := r.Sense(x)
	u := r.command(obs, dt)

	if next := Transition(r.phase, obs, r.cfg.Target, t, r.entered, r.cfg.Thresholds); next != r.phase {
		r.logger.Info("phase transition",
			zap.Stringer("from", r.phase),
			zap.Stringer("to", next),
			zap.Float64("t", t),
			zap.Float64("altitude", obs.Altitude),
			zap.Float64("velocity", obs.Velocity),
		)
		r.phase = next
		r.entered = t
		r.entries = append(r.entries, Entry{Phase: next, Time: t})
	}

	if r.cfg.Disturbance > 0 {
		u += r.cfg.Disturbance * r.rng.Float64()
	}
	return dynamo.Control{math.Max(0, math.Min(r.cfg.MaxThrust, u))}
}

func (r *Rocket) command(obs Observation, dt float64) float64 {
	switch r.phase {
	case dynamo.Ascent:
		u, _ := r.pid.Update(r.cfg.Target, obs.Altitude, dt)
		return u
	case dynamo.Orbit:
		return r.cfg.Gravity
	case dynamo.Descent:
		if obs.Altitude > r.BrakingDistance(obs.Velocity)+r.cfg.SafetyMargin {
			return 0
		}
		u, _ := r.pid.Update(0, obs.Altitude, dt)
		if obs.Altitude < r.cfg.LowAltitude && obs.Velocity < -r.cfg.ExtraBrakeVelocity {
			u += r.cfg.Gravity + r.cfg.ExtraBrakeGain*math.Abs(obs.Velocity)
		}
		return u
	default:
		return 0
	}
}

// BrakingDistance is the distance needed to stop a descent at full thrust.
// It is zero while climbing and unbounded when full thrust cannot beat
// gravity.
func (r *Rocket) BrakingDistance(v float64) float64 {
	if v >= 0 {
		return 0
	}
	decel := r.cfg.MaxThrust - r.cfg.Gravity
	if decel <= 0 {
		return math.Inf(1)
	}
	return v * v / (2 * decel)
}

func (r *Rocket) Phase() dynamo.Phase { return r.phase }

// Entries returns the phase history, oldest first.
func (r *Rocket) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Rocket) PID() *control.PID { return r.pid }

// Single runs one feedback law in the Tracking phase.
type Single struct {
	Law dynamo.Controller
}

func (s Single) Compute(x dynamo.State, t, dt float64) dynamo.Control {
	return s.Law.Compute(x, t, dt)
}

func (s Single) Phase() dynamo.Phase { return dynamo.Tracking }

// Supervise returns law unchanged when it already reports a phase, and
// otherwise runs it under Single.
func Supervise(law dynamo.Controller) dynamo.Controller {
	if _, ok := law.(dynamo.Phased); ok {
		return law
	}
	return Single{Law: law}
}
