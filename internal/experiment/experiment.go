package experiment

import (
	"context"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/integrators"
	"github.com/san-kum/biodyn/internal/stimulus"
	"github.com/san-kum/biodyn/internal/storage"
)

// Config names the pieces of one simulation. Zero Dt, Duration or
// SampleEvery fall back to the model's registered defaults, an empty
// Integrator to euler and an empty Stimulus to the model's usual drive.
type Config struct {
	Model          string
	Preset         string
	Integrator     string
	Stimulus       string
	Params         map[string]float64
	StimulusParams map[string]float64
	Init           []float64
	Dt             float64
	Duration       float64
	SampleEvery    int
	Adaptive       bool
	Tolerance      float64
	// MaxNorm ends the run as unstable once the state norm exceeds it.
	MaxNorm float64
}

type Experiment struct {
	cfg       Config
	registry  *Registry
	simulator *dynamo.Simulator
	sys       dynamo.System
	log       *zap.Logger
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.log = l
		}
	}
}

func New(reg *Registry, cfg Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg, registry: reg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolved returns the configuration with registry defaults filled in.
func (e *Experiment) Resolved() (Config, error) {
	cfg := e.cfg
	info, err := e.registry.ModelInfo(cfg.Model)
	if err != nil {
		return cfg, err
	}
	if cfg.Integrator == "" {
		cfg.Integrator = "euler"
		if cfg.Adaptive {
			cfg.Integrator = "rk45"
		}
	}
	if cfg.Stimulus == "" {
		cfg.Stimulus = info.Stimulus
	}
	if cfg.Dt == 0 {
		cfg.Dt = info.Dt
	}
	if cfg.Duration == 0 {
		cfg.Duration = info.Duration
	}
	if cfg.SampleEvery == 0 {
		cfg.SampleEvery = info.SampleEvery
	}
	if cfg.Adaptive && cfg.Tolerance == 0 {
		cfg.Tolerance = 1e-6
	}
	return cfg, nil
}

// Build constructs a fresh system, integrator and stimulus. It matches
// [dynamo.Factory] so sweeps can build one member per goroutine.
func (e *Experiment) Build() (dynamo.System, dynamo.Integrator, dynamo.Stimulus, error) {
	cfg, err := e.Resolved()
	if err != nil {
		return nil, nil, nil, err
	}
	sys, err := e.registry.GetConfiguredModel(cfg.Model, cfg.Params)
	if err != nil {
		return nil, nil, nil, err
	}
	integ, err := e.registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, nil, nil, err
	}
	if rk, ok := integ.(*integrators.RK45); ok && cfg.Tolerance > 0 {
		rk.SetTolerance(cfg.Tolerance)
	}
	stim, err := e.registry.GetStimulus(cfg.Stimulus, sys.InputDim(), cfg.StimulusParams)
	if err != nil {
		return nil, nil, nil, err
	}
	if f, ok := stim.(stimulus.Fitter); ok {
		if err := f.Fit(sys.StateDim()); err != nil {
			return nil, nil, nil, fmt.Errorf("stimulus %s on %s: %w", cfg.Stimulus, cfg.Model, err)
		}
	}
	return sys, integ, stim, nil
}

// Setup builds the simulator and attaches the model's default metrics.
func (e *Experiment) Setup() error {
	sys, integ, stim, err := e.Build()
	if err != nil {
		return err
	}
	cfg, _ := e.Resolved()

	e.sys = sys
	e.simulator = dynamo.New(sys, integ, stim, dynamo.WithLogger(e.log))
	for _, m := range e.registry.DefaultMetrics(cfg.Model, sys, cfg.Duration) {
		e.simulator.AddMetric(m)
	}
	e.log.Debug("experiment set up",
		zap.String("model", cfg.Model),
		zap.String("integrator", cfg.Integrator),
		zap.String("stimulus", cfg.Stimulus),
		zap.Int("dim", sys.StateDim()),
	)
	return nil
}

// InitialState is the configured Init, or the model's default state.
func (e *Experiment) InitialState() (dynamo.State, error) {
	if e.sys == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if len(e.cfg.Init) == 0 {
		if d, ok := e.sys.(dynamo.Defaulted); ok {
			return d.DefaultState(), nil
		}
		return make(dynamo.State, e.sys.StateDim()), nil
	}
	if len(e.cfg.Init) != e.sys.StateDim() {
		return nil, fmt.Errorf("%w: init has %d values, %s needs %d",
			dynamo.ErrDimensionMismatch, len(e.cfg.Init), e.cfg.Model, e.sys.StateDim())
	}
	x0 := make(dynamo.State, len(e.cfg.Init))
	copy(x0, e.cfg.Init)
	return x0, nil
}

// SimConfig translates the experiment into simulator settings.
func (e *Experiment) SimConfig() (dynamo.Config, error) {
	cfg, err := e.Resolved()
	if err != nil {
		return dynamo.Config{}, err
	}
	sc := dynamo.DefaultConfig()
	sc.Dt = cfg.Dt
	sc.Duration = cfg.Duration
	sc.SampleEvery = cfg.SampleEvery
	sc.Adaptive = cfg.Adaptive
	sc.MaxNorm = cfg.MaxNorm
	if cfg.Adaptive {
		sc.Tolerance = cfg.Tolerance
		sc.MaxDt = cfg.Duration / 10
		sc.MinDt = 1e-10
	}
	return sc, nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	x0, err := e.InitialState()
	if err != nil {
		return nil, err
	}
	sc, err := e.SimConfig()
	if err != nil {
		return nil, err
	}
	res, err := e.simulator.Run(ctx, x0, sc)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", e.cfg.Model, err)
	}
	for _, rerr := range res.Errors {
		e.log.Warn("simulation error", zap.String("model", e.cfg.Model), zap.Error(rerr))
	}
	return res, nil
}

// Metadata describes the run for storage. Params holds the model's full
// parameter set after overrides.
func (e *Experiment) Metadata() storage.RunMetadata {
	cfg, _ := e.Resolved()
	meta := storage.RunMetadata{
		Model:       cfg.Model,
		Preset:      cfg.Preset,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		SampleEvery: cfg.SampleEvery,
		Integrator:  cfg.Integrator,
		Stimulus:    cfg.Stimulus,
	}
	if e.sys != nil {
		meta.Labels = dynamo.LabelsOf(e.sys)
		if c, ok := e.sys.(dynamo.Configurable); ok {
			meta.Params = maps.Clone(c.GetParams())
		}
	}
	return meta
}

// System returns the model built by Setup.
func (e *Experiment) System() dynamo.System {
	return e.sys
}

// GetSimulator returns the simulator built by Setup, nil before it.
func (e *Experiment) GetSimulator() *dynamo.Simulator {
	return e.simulator
}
