package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/experiment"
	"github.com/san-kum/biodyn/internal/storage"
	"github.com/san-kum/biodyn/internal/tui"
)

var (
	dataDir string
	verbose bool
	theme   string

	log      *zap.Logger
	registry = experiment.NewRegistry()
)

// simFlags are the run settings shared by every command that simulates.
// Flags win over the --config file, which wins over --preset, which wins
// over the model's registered defaults.
type simFlags struct {
	configFile  string
	preset      string
	integrator  string
	stimulus    string
	dt          float64
	duration    float64
	sampleEvery int
	adaptive    bool
	tolerance   float64
	maxNorm     float64
	params      map[string]string
	stimParams  map[string]string
	init        []float64
}

func (f *simFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.preset, "preset", "", "use preset configuration")
	fs.StringVar(&f.integrator, "integrator", "", "integrator (euler, rk4, rk45)")
	fs.StringVar(&f.stimulus, "stimulus", "", "input stimulus (none, constant, manual, meals, square, pid, pump, lqr)")
	fs.Float64Var(&f.dt, "dt", 0, "timestep")
	fs.Float64Var(&f.duration, "time", 0, "duration")
	fs.IntVar(&f.sampleEvery, "sample", 0, "record every n-th step")
	fs.BoolVar(&f.adaptive, "adaptive", false, "adaptive step size control")
	fs.Float64Var(&f.tolerance, "tol", 0, "local error tolerance for --adaptive and rk45 substeps")
	fs.Float64Var(&f.maxNorm, "max-norm", 0, "stop as unstable once the state norm exceeds this (0 = off)")
	fs.StringToStringVarP(&f.params, "param", "p", nil, "model parameters, name=value")
	fs.StringToStringVar(&f.stimParams, "stim-param", nil, "stimulus parameters, name=value")
	fs.Float64SliceVar(&f.init, "init", nil, "initial state")
}

// resolve layers the settings for model, which may be empty when the
// config file names it.
func (f *simFlags) resolve(model string) (*config.Config, error) {
	cfg := &config.Config{}
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	params, err := parseFloats(f.params)
	if err != nil {
		return nil, fmt.Errorf("--param: %w", err)
	}
	stimParams, err := parseFloats(f.stimParams)
	if err != nil {
		return nil, fmt.Errorf("--stim-param: %w", err)
	}
	cfg = cfg.Merge(&config.Config{
		Model:          model,
		Preset:         f.preset,
		Integrator:     f.integrator,
		Stimulus:       f.stimulus,
		Dt:             f.dt,
		Duration:       f.duration,
		SampleEvery:    f.sampleEvery,
		Adaptive:       f.adaptive,
		Tolerance:      f.tolerance,
		MaxNorm:        f.maxNorm,
		Params:         params,
		StimulusParams: stimParams,
		Init:           f.init,
	})
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(registry); err != nil {
		return nil, err
	}
	log.Debug("config resolved",
		zap.String("model", resolved.Model),
		zap.String("preset", resolved.Preset),
		zap.Any("params", resolved.Params),
	)
	return resolved, nil
}

// experiment resolves the settings and sets the experiment up.
func (f *simFlags) experiment(model string) (*experiment.Experiment, error) {
	cfg, err := f.resolve(model)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(registry, cfg.Experiment(), experiment.WithLogger(log))
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	return exp, nil
}

func parseFloats(in map[string]string) (map[string]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		f, err := parseFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func newLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.DisableStacktrace = true
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}

func store() (*storage.Store, error) {
	st := storage.New(dataDir, log)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// main registers every command and, without a subcommand, opens the model
// picker.
func main() {
	rootCmd := &cobra.Command{
		Use:           "biodyn",
		Short:         "dynamical systems lab for the life sciences",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger()
			if err != nil {
				return err
			}
			log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunMenu(registry, theme)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".biodyn", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "lab", "live view theme (lab, retro, minimal)")

	rootCmd.AddCommand(
		runCommand(),
		listCommand(),
		plotCommand(),
		renderCommand(),
		phaseCommand(),
		fixedPointsCommand(),
		stabilityMapCommand(),
		bifurcationCommand(),
		animateCommand(),
		liveCommand(),
		compareCommand(),
		sweepCommand(),
		basinCommand(),
		optimizeCommand(),
		scenarioCommand(),
		analyzeCommand(),
		lyapunovCommand(),
		cubicCommand(),
		newtonCommand(),
		exportCSVCommand(),
		exportJSONCommand(),
		presetsCommand(),
		modelsCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
