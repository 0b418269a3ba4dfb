package optim_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/experiment"
	"github.com/san-kum/ctrlsim/internal/optim"
)

// bowl is a separable quadratic with its minimum at (3, 1, 2).
func bowl(calls *int64) optim.CostFunc {
	return func(_ context.Context, g control.Gains) (float64, error) {
		if calls != nil {
			atomic.AddInt64(calls, 1)
		}
		return (g.Kp-3)*(g.Kp-3) + (g.Ki-1)*(g.Ki-1) + (g.Kd-2)*(g.Kd-2), nil
	}
}

var _ = Describe("GradientDescent", func() {
	var (
		ctx    context.Context
		bounds control.GainBounds
	)

	BeforeEach(func() {
		ctx = context.Background()
		bounds = control.DefaultGainBounds()
	})

	Context("with no iterations", func() {
		It("returns the initial gains and an empty history", func() {
			var calls int64
			gd := optim.NewGradientDescent(bowl(&calls), bounds)
			initial := control.Gains{Kp: 7, Ki: 0.5, Kd: 1}

			gains, history, err := gd.Tune(ctx, initial, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(gains).To(Equal(initial))
			Expect(history).NotTo(BeNil())
			Expect(history).To(BeEmpty())
			Expect(calls).To(BeZero())
		})
	})

	Context("with N iterations", func() {
		It("records exactly N entries inside the bounds", func() {
			var calls int64
			gd := optim.NewGradientDescent(bowl(&calls), bounds)

			_, history, err := gd.Tune(ctx, control.Gains{}, 25)

			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(25))
			for i, it := range history {
				Expect(it.Index).To(Equal(i))
				Expect(bounds.Contains(it.Gains)).To(BeTrue(), "iteration %d: %+v", i, it.Gains)
			}
			Expect(calls).To(Equal(int64(4 * 25)))
		})

		It("scores each iteration at the gains it started from", func() {
			cost := bowl(nil)
			gd := optim.NewGradientDescent(cost, bounds)
			initial := control.Gains{Kp: 10, Ki: 5, Kd: 5}

			_, history, err := gd.Tune(ctx, initial, 3)
			Expect(err).NotTo(HaveOccurred())

			c0, _ := cost(ctx, initial)
			Expect(history[0].Cost).To(Equal(c0))
			c1, _ := cost(ctx, history[0].Gains)
			Expect(history[1].Cost).To(Equal(c1))
		})

		It("settles half a step below the minimum of a quadratic", func() {
			gd := optim.NewGradientDescent(bowl(nil), bounds)

			gains, _, err := gd.Tune(ctx, control.Gains{Kp: 10, Ki: 5, Kd: 5}, 200)

			// the forward difference biases the gradient by delta
			Expect(err).NotTo(HaveOccurred())
			Expect(gains.Kp).To(BeNumerically("~", 2.95, 1e-6))
			Expect(gains.Ki).To(BeNumerically("~", 0.95, 1e-6))
			Expect(gains.Kd).To(BeNumerically("~", 1.95, 1e-6))
		})

		It("projects onto the box when the minimum lies outside", func() {
			tight := control.GainBounds{
				Kp: control.Limits{Min: 0, Max: 1},
				Ki: control.Limits{Min: 0, Max: 10},
				Kd: control.Limits{Min: 2.5, Max: 5},
			}
			gd := optim.NewGradientDescent(bowl(nil), tight)

			gains, _, err := gd.Tune(ctx, control.Gains{Kp: 0.5, Ki: 0, Kd: 4}, 200)

			Expect(err).NotTo(HaveOccurred())
			Expect(gains.Kp).To(Equal(1.0))
			Expect(gains.Kd).To(Equal(2.5))
		})

		It("does not promise a monotonically falling cost", func() {
			steep := func(_ context.Context, g control.Gains) (float64, error) {
				return 50 * g.Kp * g.Kp, nil
			}
			wide := control.GainBounds{
				Kp: control.Limits{Min: -100, Max: 100},
				Ki: control.Limits{Min: 0, Max: 1},
				Kd: control.Limits{Min: 0, Max: 1},
			}
			gd := optim.NewGradientDescent(steep, wide)

			_, history, err := gd.Tune(ctx, control.Gains{Kp: 1}, 10)

			Expect(err).NotTo(HaveOccurred())
			rose := false
			for i := 1; i < len(history); i++ {
				if history[i].Cost > history[i-1].Cost {
					rose = true
				}
			}
			Expect(rose).To(BeTrue())
		})
	})

	Context("when evaluating in parallel", func() {
		It("produces the same history as sequential evaluation", func() {
			cfg := config.GetPreset(config.SystemOven, "coarse")
			exp, err := experiment.New(cfg)
			Expect(err).NotTo(HaveOccurred())

			seq := optim.NewGradientDescent(exp.Cost, bounds)
			par := optim.NewGradientDescent(exp.Cost, bounds)
			par.Parallel = true

			initial := control.Gains{Kp: 50, Ki: 0.01, Kd: 1}
			g1, h1, err := seq.Tune(ctx, initial, 3)
			Expect(err).NotTo(HaveOccurred())
			g2, h2, err := par.Tune(ctx, initial, 3)
			Expect(err).NotTo(HaveOccurred())

			Expect(g2).To(Equal(g1))
			Expect(h2).To(Equal(h1))
		})
	})

	Context("with invalid settings", func() {
		DescribeTable("rejects the configuration before evaluating",
			func(edit func(*optim.GradientDescent), iterations int) {
				var calls int64
				gd := optim.NewGradientDescent(bowl(&calls), bounds)
				edit(gd)

				_, _, err := gd.Tune(ctx, control.Gains{}, iterations)

				Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue(), "got %v", err)
				Expect(calls).To(BeZero())
			},
			Entry("zero delta", func(gd *optim.GradientDescent) { gd.Delta = 0 }, 1),
			Entry("negative learning rate", func(gd *optim.GradientDescent) { gd.LearningRate = -1 }, 1),
			Entry("inverted bounds", func(gd *optim.GradientDescent) {
				gd.Bounds.Ki = control.Limits{Min: 1, Max: 0}
			}, 1),
			Entry("negative iterations", func(gd *optim.GradientDescent) {}, -1),
			Entry("missing cost", func(gd *optim.GradientDescent) { gd.Cost = nil }, 1),
		)
	})

	It("stops on the first failed run", func() {
		boom := errors.New("boom")
		failing := func(_ context.Context, g control.Gains) (float64, error) {
			if g.Kp > 0 {
				return 0, boom
			}
			return 1, nil
		}
		gd := optim.NewGradientDescent(failing, bounds)

		_, history, err := gd.Tune(ctx, control.Gains{}, 5)

		Expect(err).To(MatchError(boom))
		Expect(history).To(BeEmpty())
	})

	It("logs progress every LogEvery iterations", func() {
		core, logs := observer.New(zapcore.InfoLevel)
		gd := optim.NewGradientDescent(bowl(nil), bounds)
		gd.Logger = zap.New(core)

		_, _, err := gd.Tune(ctx, control.Gains{}, 25)

		Expect(err).NotTo(HaveOccurred())
		Expect(logs.FilterMessage("tuning").Len()).To(Equal(3))
	})

	It("improves the oven gains from an idle start", func() {
		cfg := config.GetPreset(config.SystemOven, "coarse")
		exp, err := experiment.New(cfg)
		Expect(err).NotTo(HaveOccurred())

		gd := optim.NewGradientDescent(exp.Cost, bounds)
		gains, history, err := gd.Tune(ctx, control.Gains{}, 5)

		Expect(err).NotTo(HaveOccurred())
		Expect(history).To(HaveLen(5))
		final, err := exp.Cost(ctx, gains)
		Expect(err).NotTo(HaveOccurred())
		Expect(final).To(BeNumerically("<", history[0].Cost))
		Expect(math.IsInf(final, 0)).To(BeFalse())
	})
})

var _ = Describe("GridSearch", func() {
	It("finds the cheapest combination", func() {
		var calls int64
		gs := optim.NewGridSearch([]float64{0, 3, 6}, []float64{0, 1}, []float64{1, 2, 3})

		best, cost, err := gs.Search(context.Background(), bowl(&calls))

		Expect(err).NotTo(HaveOccurred())
		Expect(best).To(Equal(control.Gains{Kp: 3, Ki: 1, Kd: 2}))
		Expect(cost).To(BeZero())
		Expect(calls).To(Equal(int64(gs.Size())))
		Expect(gs.Size()).To(Equal(18))
	})

	It("rejects an empty candidate list", func() {
		gs := optim.NewGridSearch([]float64{1}, nil, []float64{1})
		_, _, err := gs.Search(context.Background(), bowl(nil))
		Expect(errors.Is(err, dynamo.ErrInvalidConfig)).To(BeTrue())
	})

	It("honours cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		gs := optim.NewGridSearch([]float64{1}, []float64{1}, []float64{1})
		_, _, err := gs.Search(ctx, bowl(nil))
		Expect(err).To(MatchError(context.Canceled))
	})
})
