package optim

import (
	"context"
	"math"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// GridSearch evaluates every combination of the candidate gains.
type GridSearch struct {
	ranges [3][]float64
}

func NewGridSearch(kp, ki, kd []float64) *GridSearch {
	return &GridSearch{ranges: [3][]float64{kp, ki, kd}}
}

func (g *GridSearch) Size() int {
	return len(g.ranges[0]) * len(g.ranges[1]) * len(g.ranges[2])
}

// Search returns the cheapest combination and its cost. Ties keep the first
// combination in Kp, Ki, Kd order.
func (g *GridSearch) Search(ctx context.Context, cost CostFunc) (control.Gains, float64, error) {
	for i, name := range []string{"grid.kp", "grid.ki", "grid.kd"} {
		if len(g.ranges[i]) == 0 {
			return control.Gains{}, 0, dynamo.Invalid(name, 0, "no candidates")
		}
	}

	best := math.Inf(1)
	var bestGains control.Gains

	err := g.searchRecursive(ctx, 0, make([]float64, 0, 3), cost, &best, &bestGains)
	if err != nil {
		return control.Gains{}, 0, err
	}

	return bestGains, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current []float64,
	cost CostFunc,
	best *float64,
	bestGains *control.Gains,
) error {
	if depth == len(g.ranges) {
		if err := ctx.Err(); err != nil {
			return err
		}

		gains := control.GainsFromVec(current)
		val, err := cost(ctx, gains)
		if err != nil {
			return err
		}

		if val < *best {
			*best = val
			*bestGains = gains
		}
		return nil
	}

	for _, val := range g.ranges[depth] {
		next := append(current[:depth:depth], val)
		if err := g.searchRecursive(ctx, depth+1, next, cost, best, bestGains); err != nil {
			return err
		}
	}
	return nil
}
