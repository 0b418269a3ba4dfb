package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/experiment"
	"github.com/san-kum/ctrlsim/internal/physics"
	"github.com/san-kum/ctrlsim/internal/viz"
)

// app carries the flag values shared by every command.
type app struct {
	configFile string
	preset     string
	logFormat  string
	logLevel   string
	theme      string

	dt         float64
	duration   float64
	stride     int
	seed       int64
	integrator string
	kp, ki, kd float64
	reference  float64

	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:          "ctrlsim",
		Short:        "closed-loop PID control simulator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(a.logFormat, a.logLevel)
			if err != nil {
				return err
			}
			a.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&a.preset, "preset", "default", "preset of the selected system")
	pf.StringVar(&a.logFormat, "log-format", "console", "log format: console or json")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&a.theme, "theme", viz.Themes[0].Name, fmt.Sprintf("terminal theme %v", viz.ThemeNames()))

	rootCmd.AddCommand(
		a.runCmd(),
		a.tuneCmd(),
		a.plotCmd(),
		a.phaseCmd(),
		a.watchCmd(),
		a.presetsCmd(),
		a.compareCmd(),
		a.sweepCmd(),
		a.monteCarloCmd(),
		a.scenarioCmd(),
	)
	return rootCmd
}

// newLogger builds a development logger for the console format and a
// production one for json.
func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid --log-format %q: want console or json", format)
	}
	cfg.Level = lvl
	return cfg.Build()
}

// simFlags registers the overrides shared by every simulating command.
func (a *app) simFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&a.dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&a.duration, "time", config.DefaultDuration, "duration")
	f.IntVar(&a.stride, "stride", 0, "record every n-th step")
	f.Int64Var(&a.seed, "seed", 0, "disturbance seed")
	f.StringVar(&a.integrator, "integrator", "euler", "integrator")
	f.Float64Var(&a.kp, "kp", 0, "proportional gain")
	f.Float64Var(&a.ki, "ki", 0, "integral gain")
	f.Float64Var(&a.kd, "kd", 0, "derivative gain")
	f.Float64Var(&a.reference, "target", 0, "reference")
}

// loadConfig resolves the configuration: a config file if given, else the
// preset of the system named by the first argument. Flags the user set
// override either.
func (a *app) loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	if a.configFile != "" {
		c, err := config.Load(a.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		a.log.Debug("config loaded", zap.String("path", a.configFile), zap.String("system", c.System))
		cfg = c
	} else {
		system := config.DefaultSystem
		if len(args) > 0 {
			system = args[0]
		}
		cfg = config.GetPreset(system, a.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s (systems: %v, presets: %v)",
				system, a.preset, config.Systems(), config.ListPresets(system))
		}
	}

	changed := cmd.Flags().Changed
	if changed("dt") {
		cfg.Dt = a.dt
	}
	if changed("time") {
		cfg.Duration = a.duration
	}
	if changed("stride") {
		cfg.Stride = a.stride
	}
	if changed("seed") {
		cfg.Seed = a.seed
	}
	if changed("integrator") {
		cfg.Integrator = a.integrator
	}
	if changed("kp") {
		cfg.Gains.Kp = a.kp
	}
	if changed("ki") {
		cfg.Gains.Ki = a.ki
	}
	if changed("kd") {
		cfg.Gains.Kd = a.kd
	}
	if changed("target") {
		cfg.Reference = a.reference
	}
	return cfg, nil
}

func (a *app) experiment(cmd *cobra.Command, args []string) (*experiment.Experiment, error) {
	cfg, err := a.loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	return experiment.New(cfg, experiment.WithLogger(a.log))
}

// report prepares a summary with the rocket's altitude and fuel rows where
// they apply.
func report(e *experiment.Experiment, title string) viz.Report {
	cfg := e.Config()
	index, ref, _ := e.Tracked()
	r := viz.Report{
		Title:     title,
		Tracked:   index,
		Reference: ref,
		FuelIndex: -1,
		Gains:     cfg.Gains,
	}
	if cfg.System == config.SystemRocket {
		r.PeakLabel = "Max altitude"
		r.FuelIndex = physics.RocketFuel
	}
	return r
}
