// Package optim searches PID gains against a simulated cost.
package optim

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// CostFunc scores one full simulation at gains g. Lower is better.
type CostFunc func(ctx context.Context, g control.Gains) (float64, error)

// Iteration is one tuning step: the gains after the update and the cost of
// the gains it started from.
type Iteration struct {
	Index int
	Gains control.Gains
	Cost  float64
}

// GradientDescent is projected gradient descent with a one-sided finite
// difference gradient. Every iteration costs exactly four evaluations and
// the loop always runs the full budget; the cost is not guaranteed to fall
// monotonically.
type GradientDescent struct {
	Cost         CostFunc
	Bounds       control.GainBounds
	LearningRate float64
	Delta        float64

	// Parallel evaluates the four runs of an iteration concurrently. The
	// result is identical to sequential evaluation.
	Parallel bool

	LogEvery int
	Logger   *zap.Logger
}

func NewGradientDescent(cost CostFunc, bounds control.GainBounds) *GradientDescent {
	return &GradientDescent{
		Cost:         cost,
		Bounds:       bounds,
		LearningRate: 0.1,
		Delta:        0.1,
		LogEvery:     10,
		Logger:       zap.NewNop(),
	}
}

func (gd *GradientDescent) Validate() error {
	if gd.Cost == nil {
		return fmt.Errorf("%w: no cost function", dynamo.ErrInvalidConfig)
	}
	if err := dynamo.RequirePositive("learning_rate", gd.LearningRate); err != nil {
		return err
	}
	if err := dynamo.RequirePositive("delta", gd.Delta); err != nil {
		return err
	}
	return gd.Bounds.Validate()
}

// Tune runs maxIterations updates from initial and returns the last clamped
// gains with one history entry per iteration. With no iterations the
// initial gains come back untouched.
func (gd *GradientDescent) Tune(ctx context.Context, initial control.Gains, maxIterations int) (control.Gains, []Iteration, error) {
	if err := gd.Validate(); err != nil {
		return initial, nil, err
	}
	if maxIterations < 0 {
		return initial, nil, dynamo.Invalid("max_iterations", float64(maxIterations), "must not be negative")
	}

	logger := gd.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	g := initial.Vec()
	history := make([]Iteration, 0, maxIterations)
	grad := make([]float64, len(g))

	for i := 0; i < maxIterations; i++ {
		costs, err := gd.evaluate(ctx, g)
		if err != nil {
			return control.GainsFromVec(g), history, fmt.Errorf("iteration %d: %w", i, err)
		}

		base := costs[0]
		for k := range grad {
			grad[k] = (costs[k+1] - base) / gd.Delta
		}

		floats.AddScaled(g, -gd.LearningRate, grad)
		gains := gd.Bounds.Clamp(control.GainsFromVec(g))
		g = gains.Vec()

		history = append(history, Iteration{Index: i, Gains: gains, Cost: base})

		if gd.LogEvery > 0 && i%gd.LogEvery == 0 {
			logger.Info("tuning",
				zap.Int("iteration", i),
				zap.Float64("kp", gains.Kp),
				zap.Float64("ki", gains.Ki),
				zap.Float64("kd", gains.Kd),
				zap.Float64("cost", base),
			)
		}
	}

	return control.GainsFromVec(g), history, nil
}

// evaluate returns the cost at g followed by the cost with each gain in
// turn raised by Delta.
func (gd *GradientDescent) evaluate(ctx context.Context, g []float64) ([]float64, error) {
	points := make([]control.Gains, len(g)+1)
	points[0] = control.GainsFromVec(g)
	for k := range g {
		p := make([]float64, len(g))
		copy(p, g)
		p[k] += gd.Delta
		points[k+1] = control.GainsFromVec(p)
	}

	costs := make([]float64, len(points))
	errs := make([]error, len(points))

	if gd.Parallel {
		var wg sync.WaitGroup
		for i := range points {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				costs[idx], errs[idx] = gd.Cost(ctx, points[idx])
			}(i)
		}
		wg.Wait()
	} else {
		for i := range points {
			costs[i], errs[i] = gd.Cost(ctx, points[i])
			if errs[i] != nil {
				break
			}
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return costs, nil
}
