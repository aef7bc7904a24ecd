package automation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/experiment"
)

// ParameterSweep runs simulations across a range of parameter values
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Parallel  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalState dynamo.State
	Metrics    map[string]float64
	Errors     []error
}

// Values returns the NumSteps evenly spaced parameter values.
func (s *ParameterSweep) Values() ([]float64, error) {
	if s.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", s.NumSteps)
	}
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}, nil
	}
	return floats.Span(make([]float64, s.NumSteps), s.ParamMin, s.ParamMax), nil
}

// RunSweep executes a parameter sweep, one fresh model per value, with the
// model's default metrics attached to every run.
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	values, err := sweep.Values()
	if err != nil {
		return nil, err
	}
	cfg, err := sweep.Base.Resolve()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(r.registry); err != nil {
		return nil, err
	}

	exp := experiment.New(r.registry, cfg.Experiment(), experiment.WithLogger(r.log))
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	if _, ok := exp.System().(dynamo.Configurable); !ok {
		return nil, fmt.Errorf("model %s is not tunable", cfg.Model)
	}
	x0, err := exp.InitialState()
	if err != nil {
		return nil, err
	}
	simCfg, err := exp.SimConfig()
	if err != nil {
		return nil, err
	}
	resolved, _ := exp.Resolved()

	metricsFn := func(sys dynamo.System) []dynamo.Metric {
		return r.registry.DefaultMetrics(cfg.Model, sys, resolved.Duration)
	}

	sw := dynamo.NewSweep(exp.Build, sweep.ParamName, metricsFn)
	sw.SetParallelism(sweep.Parallel)

	r.log.Info("sweep",
		zap.String("model", cfg.Model),
		zap.String("param", sweep.ParamName),
		zap.Int("steps", len(values)),
	)
	runs, err := sw.Run(ctx, values, x0, simCfg)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(runs))
	for i, run := range runs {
		results[i] = SweepResult{
			ParamValue: run.Value,
			FinalState: run.Result.Final(),
			Metrics:    run.Result.Metrics,
			Errors:     run.Result.Errors,
		}
	}
	return results, nil
}
