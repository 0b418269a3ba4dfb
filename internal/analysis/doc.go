// Package analysis characterises recorded responses.
//
//   - [Step]: rise time, settling time, overshoot and steady-state error of
//     a setpoint step
//   - [DominantFrequency]: strongest oscillation in a uniformly sampled series
//
// Times that a response never reaches are reported as NaN.
package analysis
