// Package physics provides the plant models driven by the closed-loop
// simulations.
//
// Each model implements the [dynamo.Plant] interface, defining the
// differential equations governing the plant's evolution:
//
//   - [Integrator]: single (optionally leaky) integrator, x' = u - k*x
//   - [VerticalDrone]: 1-D altitude under a single thrust
//   - [Drone2D]: planar drone with two motors
//   - [Oven]: lumped thermal mass with a percentage heater
//   - [Tank]: leaking tank filled through two valves
//   - [Rocket]: vertical rocket burning propellant
//
// Derive never clamps state. Floor clamps, actuator gating and crash
// detection are exposed through [dynamo.Constrainer], [dynamo.Gate] and
// [dynamo.Crasher] and applied by the simulator after integration.
//
// Angles are not normalised. Large accumulated attitude angles are a
// limitation of the small-angle models, not something the plants correct.
//
// All models implement [dynamo.Configurable] for parameter overrides and a
// Validate method rejecting non-physical constants.
package physics
