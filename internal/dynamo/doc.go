// Package dynamo provides the core primitives shared by every closed-loop
// simulation in ctrlsim.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: vector representing plant state
//   - [Control]: actuator command vector
//   - [Plant]: interface for plant models (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [Controller]: feedback law or phase supervisor producing commands
//   - [Phase]: supervisory phase tag recorded alongside each sample
//
// Plants may additionally implement [Constrainer], [Gate] and [Crasher] to
// expose floor clamps, actuator gating and terminal conditions. These hooks
// are applied by the simulator so that Derive stays a pure function.
//
// # Example
//
//	oven := physics.NewOven()
//	law := control.NewSingleLoop(control.NewPID(gains), 0, 200, control.Limits{Max: 100})
//	s := sim.New(oven, integrators.NewEuler(), law)
//	rec, _ := s.Run(ctx, dynamo.State{25}, sim.Config{Dt: 0.1, Duration: 5000})
//
// # Thread Safety
//
// Plants are read-only during a run and may be shared. Controllers carry
// per-run state and must not be shared between concurrent runs.
package dynamo
