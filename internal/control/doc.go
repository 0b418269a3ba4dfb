// Package control provides the PID controller and the feedback laws built on
// it.
//
// [PID] is deliberately unsaturated: it returns the raw Kp·e + Ki·∫e + Kd·ė
// signal and leaves actuator limits to the law that owns the actuators. The
// laws implement [dynamo.Controller]:
//
//   - [SingleLoop]: one PID, one actuator channel (oven, vertical drone)
//   - [ValveSplit]: one PID routed to a big or a small valve (tank)
//   - [Differential]: altitude PID plus proportional attitude term split
//     across two motors (planar drone)
//   - [Constant]: open-loop command
//
// # Usage
//
//	pid := control.NewPID(control.Gains{Kp: 100, Ki: 0.04, Kd: 5})
//	law := control.NewSingleLoop(pid, 0, 200, control.Limits{Max: 100})
//	u := law.Compute(x, t, dt)
//
// A PID carries per-run state. Build a fresh one for every simulation.
package control
