package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

// Factory builds the i-th independent run: a fresh simulator and its initial
// state. Nothing built by one call may be shared with another.
type Factory func(i int) (*Simulator, dynamo.State, error)

// Batch runs n independent simulations, at most GOMAXPROCS at a time.
// Records come back in index order. A failing run does not cancel the
// others; the error of the lowest failing index is returned.
func Batch(ctx context.Context, n int, cfg Config, build Factory) ([]*Record, error) {
	records := make([]*Record, n)
	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range n {
		g.Go(func() error {
			s, x0, err := build(i)
			if err == nil {
				records[i], err = s.Run(ctx, x0, cfg)
			}
			if err != nil {
				errs[i] = fmt.Errorf("run %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}
