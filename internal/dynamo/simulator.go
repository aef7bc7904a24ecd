package dynamo

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// maxAdaptiveSteps bounds an adaptive run whose step size collapses.
const maxAdaptiveSteps = 50_000_000

type Simulator struct {
	sys        System
	integrator Integrator
	stimulus   Stimulus
	metrics    []Metric
	observers  []Observer
	log        *zap.Logger
}

type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds a simulator. A nil stimulus drives the system with a zero input.
func New(sys System, integrator Integrator, stimulus Stimulus, opts ...Option) *Simulator {
	s := &Simulator{
		sys:        sys,
		integrator: integrator,
		stimulus:   stimulus,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) System() System { return s.sys }

func (s *Simulator) input(x State, t float64) Input {
	if s.stimulus == nil {
		return make(Input, s.sys.InputDim())
	}
	return s.stimulus.Compute(x, t)
}

func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("initial state has %d components, system wants %d: %w",
			len(x0), s.sys.StateDim(), ErrDimensionMismatch)
	}

	sample := cfg.SampleEvery
	if sample < 1 {
		sample = 1
	}
	fixedSteps := int(math.Round(cfg.Duration / cfg.Dt))

	result := &Result{
		States:  make([]State, 0, fixedSteps/sample+2),
		Inputs:  make([]Input, 0, fixedSteps/sample+2),
		Times:   make([]float64, 0, fixedSteps/sample+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	if r, ok := s.stimulus.(Resettable); ok {
		r.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt
	if proj, ok := s.sys.(Projector); ok {
		proj.Project(x)
	}

	record := func(x State, t float64) {
		result.States = append(result.States, x.Clone())
		result.Inputs = append(result.Inputs, s.input(x, t))
		result.Times = append(result.Times, t)
	}
	record(x, t)
	lastRecorded := 0

	initialInvariant, hasInvariant := s.invariant(x)
	maxDrift := 0.0

	for {
		if cfg.Adaptive {
			if t >= cfg.Duration*(1-1e-12) {
				break
			}
			if result.StepsTaken >= maxAdaptiveSteps {
				result.Errors = append(result.Errors, &SimulationError{
					Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: ErrStepTooSmall,
				})
				break
			}
		} else if result.StepsTaken >= fixedSteps {
			break
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.input(x, t)

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		var next State
		taken := dt

		if cfg.Adaptive {
			if t+dt > cfg.Duration {
				dt = cfg.Duration - t
			}
			var suggested float64
			var err error
			next, taken, suggested, err = s.adaptiveStep(x, u, t, dt, cfg)
			if err != nil {
				s.log.Debug("adaptive step failed", zap.Float64("t", t), zap.Float64("dt", dt), zap.Error(err))
				result.Errors = append(result.Errors, &SimulationError{
					Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: err,
				})
				break
			}
			dt = math.Min(math.Max(suggested, cfg.MinDt), cfg.MaxDt)
		} else {
			next = s.integrator.Step(s.sys, x, u, t, dt)
		}

		if proj, ok := s.sys.(Projector); ok {
			proj.Project(next)
		}

		if cfg.ValidateState && !next.IsValid() {
			s.log.Debug("invalid state", zap.Int("step", result.StepsTaken), zap.Float64("t", t))
			result.Errors = append(result.Errors, &SimulationError{
				Step: result.StepsTaken, Time: t, State: x.Clone(), Wrapped: ErrInvalidState,
			})
			break
		}
		if diverged(next, cfg) {
			s.log.Debug("state diverged", zap.Int("step", result.StepsTaken), zap.Float64("t", t), zap.Float64("norm", next.Norm()))
			result.Errors = append(result.Errors, &SimulationError{
				Step: result.StepsTaken, Time: t, State: next.Clone(), Wrapped: ErrUnstable,
			})
			break
		}

		x = next
		result.StepsTaken++
		if cfg.Adaptive {
			t += taken
		} else {
			t = float64(result.StepsTaken) * cfg.Dt
		}

		if hasInvariant && initialInvariant != 0 {
			cur, _ := s.invariant(x)
			maxDrift = math.Max(maxDrift, math.Abs(cur-initialInvariant)/math.Abs(initialInvariant))
		}

		if result.StepsTaken%sample == 0 {
			record(x, t)
			lastRecorded = result.StepsTaken
		}
	}

	if lastRecorded != result.StepsTaken {
		record(x, t)
	}

	final := s.input(x, t)
	for _, m := range s.metrics {
		m.Observe(x, final, t)
		result.Metrics[m.Name()] = m.Value()
	}
	result.InvariantDrift = maxDrift

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must be non-negative, got %d", cfg.SampleEvery)
	}
	if cfg.MaxNorm < 0 {
		return fmt.Errorf("max norm must be non-negative, got %g", cfg.MaxNorm)
	}
	if cfg.Adaptive {
		if cfg.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		if cfg.MinDt <= 0 || cfg.MaxDt < cfg.MinDt {
			return fmt.Errorf("adaptive step bounds invalid: min %g max %g", cfg.MinDt, cfg.MaxDt)
		}
	}
	return nil
}

func diverged(x State, cfg Config) bool {
	return cfg.MaxNorm > 0 && x.Norm() > cfg.MaxNorm
}

func (s *Simulator) invariant(x State) (float64, bool) {
	if c, ok := s.sys.(Conserved); ok {
		return c.Invariant(x), true
	}
	return 0, false
}

func (s *Simulator) adaptiveStep(x State, u Input, t, dt float64, cfg Config) (State, float64, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(s.sys, x, u, t, dt, cfg.Tolerance)
	}

	// step doubling for fixed-order integrators
	for {
		x1 := s.integrator.Step(s.sys, x, u, t, dt)
		xHalf := s.integrator.Step(s.sys, x, u, t, dt/2)
		x2 := s.integrator.Step(s.sys, xHalf, u, t+dt/2, dt/2)

		err := x1.Sub(x2).Norm()
		if err > cfg.Tolerance && dt > cfg.MinDt {
			s.log.Debug("step rejected", zap.Float64("t", t), zap.Float64("dt", dt), zap.Float64("err", err))
			dt /= 2
			continue
		}
		if err > cfg.Tolerance {
			return nil, dt, dt, ErrStepTooSmall
		}

		next := dt
		if err < cfg.Tolerance/10 {
			next = math.Min(dt*2, cfg.MaxDt)
		}
		return x2, dt, next, nil
	}
}

// RunWithCallback streams states to fn without recording them. It stops early
// when fn returns false. Streaming always uses fixed steps of cfg.Dt, so an
// adaptive config is rejected.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, fn func(State, Input, float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}
	if cfg.Adaptive {
		return fmt.Errorf("callback runs take fixed steps, adaptive stepping is not supported")
	}
	if len(x0) != s.sys.StateDim() {
		return fmt.Errorf("initial state has %d components, system wants %d: %w",
			len(x0), s.sys.StateDim(), ErrDimensionMismatch)
	}
	if r, ok := s.stimulus.(Resettable); ok {
		r.Reset()
	}

	x := x0.Clone()
	steps := int(math.Round(cfg.Duration / cfg.Dt))

	for i := 0; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		u := s.input(x, t)

		if !fn(x, u, t) || i == steps {
			return nil
		}

		x = s.integrator.Step(s.sys, x, u, t, cfg.Dt)
		if proj, ok := s.sys.(Projector); ok {
			proj.Project(x)
		}

		if cfg.ValidateState && !x.IsValid() {
			return &SimulationError{Step: i, Time: t, State: x, Wrapped: ErrInvalidState}
		}
		if diverged(x, cfg) {
			return &SimulationError{Step: i, Time: t, State: x, Wrapped: ErrUnstable}
		}
	}

	return nil
}
