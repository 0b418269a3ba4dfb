package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.einride.tech/can"
	"go.uber.org/zap"

	"github.com/san-kum/ctrlsim/internal/automation"
	"github.com/san-kum/ctrlsim/internal/canbus"
	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/experiment"
	"github.com/san-kum/ctrlsim/internal/optim"
	"github.com/san-kum/ctrlsim/internal/plot"
	"github.com/san-kum/ctrlsim/internal/viz"
)

func (a *app) runCmd() *cobra.Command {
	var (
		showChart bool
		canIface  string
		canFactor float64
		canEvery  int
	)
	cmd := &cobra.Command{
		Use:   "run [system]",
		Short: "run one closed-loop simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.experiment(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var observers []dynamo.Observer
			var tap *canbus.Tap
			if canIface != "" {
				cfg := e.Config()
				n := 0
				tap = canbus.NewTap(canbus.NewCodec(canbus.IDFor(cfg.System), canFactor), func(t float64, f can.Frame) {
					if n%max(canEvery, 1) == 0 {
						fmt.Fprintln(out, canbus.Format(canIface, t, f))
					}
					n++
				})
				observers = append(observers, tap)
			}

			start := time.Now()
			rec, err := e.Run(cmd.Context(), observers...)
			if err != nil {
				return err
			}
			if tap != nil && tap.Err() != nil {
				a.log.Warn("can tap stopped", zap.Error(tap.Err()))
			}
			a.log.Info("run complete", zap.Duration("elapsed", time.Since(start)), zap.Int("steps", rec.Steps))

			r := report(e, e.Config().System)
			r.Record = rec
			fmt.Fprintln(out, r.Render(viz.GetTheme(a.theme)))
			if showChart {
				fmt.Fprintln(out, viz.TrackingChart(rec, r.Tracked, r.Reference, viz.ChartOptions{Width: 70, Height: 12}))
			}
			return nil
		},
	}
	a.simFlags(cmd)
	cmd.Flags().BoolVar(&showChart, "chart", true, "print an ascii chart of the tracked state")
	cmd.Flags().StringVar(&canIface, "can", "", "print each command as a candump line on this interface name")
	cmd.Flags().Float64Var(&canFactor, "can-factor", canbus.DefaultFactor, "physical value of one raw CAN unit")
	cmd.Flags().IntVar(&canEvery, "can-every", 1, "print every n-th frame")
	return cmd
}

func (a *app) tuneCmd() *cobra.Command {
	var (
		iterations int
		rate       float64
		delta      float64
		parallel   bool
		grid       bool
		savePath   string
	)
	cmd := &cobra.Command{
		Use:   "tune [system]",
		Short: "tune PID gains by finite-difference gradient descent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Tuning.Iterations = iterations
			}
			if cmd.Flags().Changed("rate") {
				cfg.Tuning.LearningRate = rate
			}
			if cmd.Flags().Changed("delta") {
				cfg.Tuning.Delta = delta
			}
			if cmd.Flags().Changed("parallel") {
				cfg.Tuning.Parallel = parallel
			}
			e, err := experiment.New(cfg, experiment.WithLogger(a.log))
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			startGains := cfg.Gains
			if grid {
				gs := optim.NewGridSearch(cfg.Tuning.Grid.Kp, cfg.Tuning.Grid.Ki, cfg.Tuning.Grid.Kd)
				best, cost, err := gs.Search(ctx, e.Cost)
				if err != nil {
					return err
				}
				a.log.Info("grid search", zap.Int("candidates", gs.Size()), zap.Stringer("gains", best), zap.Float64("cost", cost))
				startGains = cfg.Tuning.Bounds.Clamp(best)
			}

			gd := optim.NewGradientDescent(e.Cost, cfg.Tuning.Bounds)
			gd.LearningRate = cfg.Tuning.LearningRate
			gd.Delta = cfg.Tuning.Delta
			gd.Parallel = cfg.Tuning.Parallel
			gd.LogEvery = cfg.Tuning.LogEvery
			gd.Logger = a.log

			gains, history, err := gd.Tune(ctx, startGains, cfg.Tuning.Iterations)
			if err != nil {
				return err
			}
			rec, err := e.RunWith(ctx, gains)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := report(e, "tuned "+cfg.System)
			r.Record = rec
			r.Gains = gains
			r.History = history
			fmt.Fprintln(out, r.Render(viz.GetTheme(a.theme)))
			if len(history) > 1 {
				fmt.Fprintln(out, viz.CostChart(history, viz.ChartOptions{Width: 60, Height: 8}))
			}

			if savePath != "" {
				tuned := e.Config()
				tuned.Gains = gains
				if err := config.Save(savePath, tuned); err != nil {
					return err
				}
				fmt.Fprintf(out, "tuned config written to %s\n", savePath)
			}
			return nil
		},
	}
	a.simFlags(cmd)
	cmd.Flags().IntVar(&iterations, "iterations", 100, "gradient descent iterations")
	cmd.Flags().Float64Var(&rate, "rate", 0.1, "learning rate")
	cmd.Flags().Float64Var(&delta, "delta", 0.1, "finite difference step")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "evaluate the four runs of an iteration concurrently")
	cmd.Flags().BoolVar(&grid, "grid", false, "seed the descent with a grid search")
	cmd.Flags().StringVar(&savePath, "save", "", "write the tuned configuration to this yaml file")
	return cmd
}

func (a *app) plotCmd() *cobra.Command {
	var (
		output  string
		command bool
		dpi     int
	)
	cmd := &cobra.Command{
		Use:   "plot [system]",
		Short: "render the tracked state over time to an image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.experiment(cmd, args)
			if err != nil {
				return err
			}
			rec, err := e.Run(cmd.Context())
			if err != nil {
				return err
			}
			cfg := e.Config()
			index, ref, _ := e.Tracked()

			lines := []plot.Line{{Name: fmt.Sprintf("x[%d]", index), Ys: rec.Series(index)}}
			if command && len(rec.Samples) > 0 {
				for i := range rec.Samples[0].Command {
					lines = append(lines, plot.Line{Name: fmt.Sprintf("u[%d]", i), Ys: rec.CommandSeries(i)})
				}
			}
			opts := plot.Options{
				Title:  fmt.Sprintf("%s (%s)", cfg.System, cfg.Gains),
				YLabel: "value",
				DPI:    dpi,
			}
			p, err := plot.TimeSeries(rec, lines, ref, opts)
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.System + ".png"
			}
			if err := plot.Save(p, output, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plot written to %s\n", output)
			return nil
		},
	}
	a.simFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.png, .svg, .pdf, .eps)")
	cmd.Flags().BoolVar(&command, "command", false, "also plot the actuator commands")
	cmd.Flags().IntVar(&dpi, "dpi", 150, "raster resolution")
	return cmd
}

func (a *app) phaseCmd() *cobra.Command {
	var (
		output     string
		xAxis      int
		yAxis      int
		asciiWidth int
	)
	cmd := &cobra.Command{
		Use:   "phase [system]",
		Short: "phase plane of two state components",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.experiment(cmd, args)
			if err != nil {
				return err
			}
			rec, err := e.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if output == "" {
				if len(rec.Samples) == 0 {
					return plot.ErrEmptyRecord
				}
				dim := len(rec.Samples[0].State)
				if xAxis >= dim || yAxis >= dim || xAxis < 0 || yAxis < 0 {
					return fmt.Errorf("axes (%d, %d) outside state dimension %d", xAxis, yAxis, dim)
				}
				c := viz.NewCanvas(asciiWidth, asciiWidth/3)
				xs, ys := rec.Series(xAxis), rec.Series(yAxis)
				c.Path(viz.BoundsOf(xs, ys), xs, ys)
				fmt.Fprint(out, c.String())
				return nil
			}

			cfg := e.Config()
			opts := plot.Options{Title: fmt.Sprintf("%s phase plane", cfg.System)}
			p, err := plot.PhasePlane(rec, xAxis, yAxis, opts)
			if err != nil {
				return err
			}
			if err := plot.Save(p, output, opts); err != nil {
				return err
			}
			fmt.Fprintf(out, "phase plane written to %s\n", output)
			return nil
		},
	}
	a.simFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output image; prints a braille plot when empty")
	cmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	cmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	cmd.Flags().IntVar(&asciiWidth, "width", 60, "braille plot width in cells")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [system]",
		Short: "replay a simulation in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.experiment(cmd, args)
			if err != nil {
				return err
			}
			rec, err := e.Run(cmd.Context())
			if err != nil {
				return err
			}
			index, ref, _ := e.Tracked()
			m := viz.NewReplay(rec, e.Config().System, index, ref, viz.GetTheme(a.theme))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	a.simFlags(cmd)
	return cmd
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [system]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			systems := config.Systems()
			if len(args) > 0 {
				if config.ListPresets(args[0]) == nil {
					return fmt.Errorf("unknown system %q (available: %v)", args[0], systems)
				}
				systems = args
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYSTEM\tPRESET\tDT\tDURATION\tGAINS")
			for _, s := range systems {
				for _, name := range config.ListPresets(s) {
					c := config.GetPreset(s, name)
					fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%s\n", s, name, c.Dt, c.Duration, c.Gains)
				}
			}
			return w.Flush()
		},
	}
}

func (a *app) compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [system] [preset1] [preset2] ...",
		Short: "run several presets of a system side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			system := args[0]
			reports := make([]viz.Report, 0, len(args)-1)
			for _, name := range args[1:] {
				cfg := config.GetPreset(system, name)
				if cfg == nil {
					return fmt.Errorf("unknown preset %s/%s (available: %v)", system, name, config.ListPresets(system))
				}
				e, err := experiment.New(cfg, experiment.WithLogger(a.log))
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				rec, err := e.Run(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				r := report(e, name)
				r.Record = rec
				reports = append(reports, r)
			}
			fmt.Fprintln(cmd.OutOrStdout(), viz.Compare(viz.GetTheme(a.theme), reports...))
			return nil
		},
	}
	return cmd
}

func (a *app) sweepCmd() *cobra.Command {
	var (
		param string
		lo    float64
		hi    float64
		steps int
	)
	cmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "run one simulation per value of a parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			results, err := automation.RunSweep(cmd.Context(), automation.Sweep{
				Base: cfg, Param: param, Min: lo, Max: hi, Steps: steps,
			}, a.log)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tMSE\tFINAL ERROR\tPEAK\tSTATUS\n", strings.ToUpper(param))
			for _, r := range results {
				fmt.Fprintf(w, "%.4g\t%.5g\t%.5g\t%.5g\t%s\n", r.Value, r.Cost(),
					r.Record.Metrics["final_error"], r.Record.Metrics["peak"], status(r.Record.Halted))
			}
			return w.Flush()
		},
	}
	a.simFlags(cmd)
	cmd.Flags().StringVar(&param, "param", "kp", fmt.Sprintf("parameter to sweep %v", automation.ParamNames()))
	cmd.Flags().Float64Var(&lo, "min", 0, "first value")
	cmd.Flags().Float64Var(&hi, "max", 1, "last value")
	cmd.Flags().IntVar(&steps, "steps", 5, "number of values")
	return cmd
}

func (a *app) monteCarloCmd() *cobra.Command {
	var (
		trials       int
		perturbation float64
	)
	cmd := &cobra.Command{
		Use:   "montecarlo [system]",
		Short: "run trials with perturbed initial states and disturbance seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			results, err := automation.RunMonteCarlo(cmd.Context(), automation.MonteCarlo{
				Base: cfg, Trials: trials, Perturbation: perturbation, Seed: cfg.Seed,
			}, a.log)
			if err != nil {
				return err
			}
			st := automation.Summarize(results)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trials: %d  completed: %d  halted: %d\n", st.Trials, st.Completed, st.Halted)
			fmt.Fprintf(out, "mse: mean %.5g  std %.5g  min %.5g  max %.5g\n",
				st.Cost.Mean, st.Cost.StdDev, st.Cost.Min, st.Cost.Max)
			return nil
		},
	}
	a.simFlags(cmd)
	cmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	cmd.Flags().Float64Var(&perturbation, "perturbation", 0, "uniform initial state perturbation")
	return cmd
}

func (a *app) scenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted sequence of presets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			results, err := automation.RunScenario(cmd.Context(), sc, a.log)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "STEP\tSYSTEM\tSTEPS\tMSE\tSTATUS\n")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.5g\t%s\n", r.Label, r.Config.System, r.Record.Steps,
					r.Record.Metrics["mse"], status(r.Record.Halted))
			}
			return w.Flush()
		},
	}
}

func status(halted bool) string {
	if halted {
		return "halted"
	}
	return "ok"
}
