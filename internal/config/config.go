package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/biodyn/internal/experiment"
)

const (
	DefaultModel      = "sir"
	DefaultIntegrator = "euler"
	DefaultTolerance  = 1e-6
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the YAML form of one simulation. Zero values mean "not set" so
// that a file, a preset and the model's registered defaults can be layered.
type Config struct {
	Model          string             `yaml:"model"`
	Preset         string             `yaml:"preset,omitempty"`
	Integrator     string             `yaml:"integrator,omitempty"`
	Stimulus       string             `yaml:"stimulus,omitempty"`
	Dt             float64            `yaml:"dt,omitempty"`
	Duration       float64            `yaml:"duration,omitempty"`
	SampleEvery    int                `yaml:"sample_every,omitempty"`
	Adaptive       bool               `yaml:"adaptive,omitempty"`
	Tolerance      float64            `yaml:"tolerance,omitempty"`
	MaxNorm        float64            `yaml:"max_norm,omitempty"`
	Params         map[string]float64 `yaml:"params,omitempty"`
	Init           []float64          `yaml:"init,omitempty"`
	StimulusParams map[string]float64 `yaml:"stimulus_params,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Params = maps.Clone(c.Params)
	cp.StimulusParams = maps.Clone(c.StimulusParams)
	cp.Init = slices.Clone(c.Init)
	return &cp
}

// Merge overlays the set fields of over onto a copy of c. Parameter maps
// merge key by key; Init is replaced as a whole.
func (c *Config) Merge(over *Config) *Config {
	out := c.Clone()
	if over == nil {
		return out
	}
	if over.Model != "" {
		out.Model = over.Model
	}
	if over.Preset != "" {
		out.Preset = over.Preset
	}
	if over.Integrator != "" {
		out.Integrator = over.Integrator
	}
	if over.Stimulus != "" {
		out.Stimulus = over.Stimulus
	}
	if over.Dt != 0 {
		out.Dt = over.Dt
	}
	if over.Duration != 0 {
		out.Duration = over.Duration
	}
	if over.SampleEvery != 0 {
		out.SampleEvery = over.SampleEvery
	}
	if over.Adaptive {
		out.Adaptive = true
	}
	if over.Tolerance != 0 {
		out.Tolerance = over.Tolerance
	}
	if over.MaxNorm != 0 {
		out.MaxNorm = over.MaxNorm
	}
	if len(over.Init) > 0 {
		out.Init = slices.Clone(over.Init)
	}
	out.Params = mergeParams(out.Params, over.Params)
	out.StimulusParams = mergeParams(out.StimulusParams, over.StimulusParams)
	return out
}

func mergeParams(base, over map[string]float64) map[string]float64 {
	if len(over) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]float64, len(over))
	}
	maps.Copy(base, over)
	return base
}

// Resolve layers c over the preset it names, if any. The model's
// registered defaults fill whatever is still unset when the experiment is
// built.
func (c *Config) Resolve() (*Config, error) {
	if c.Preset == "" {
		return c.Clone(), nil
	}
	p := GetPreset(c.Model, c.Preset)
	if p == nil {
		return nil, fmt.Errorf("%w: no preset %s/%s", ErrInvalidConfig, c.Model, c.Preset)
	}
	return p.Merge(c), nil
}

// Validate checks c against the registry's models, integrators and stimuli
// and rejects impossible numeric settings.
func (c *Config) Validate(reg *experiment.Registry) error {
	var errs []error
	if _, err := reg.ModelInfo(c.Model); err != nil {
		errs = append(errs, err)
	}
	if c.Integrator != "" && !slices.Contains(reg.ListIntegrators(), c.Integrator) {
		errs = append(errs, fmt.Errorf("unknown integrator: %s", c.Integrator))
	}
	if c.Stimulus != "" && !slices.Contains(reg.ListStimuli(), c.Stimulus) {
		errs = append(errs, fmt.Errorf("unknown stimulus: %s", c.Stimulus))
	}
	if c.Dt < 0 {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %g", c.Duration))
	}
	if c.Dt > 0 && c.Duration > 0 && c.Dt > c.Duration {
		errs = append(errs, fmt.Errorf("dt %g exceeds duration %g", c.Dt, c.Duration))
	}
	if c.SampleEvery < 0 {
		errs = append(errs, fmt.Errorf("sample_every must be non-negative, got %d", c.SampleEvery))
	}
	if c.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("tolerance must be positive, got %g", c.Tolerance))
	}
	if c.MaxNorm < 0 {
		errs = append(errs, fmt.Errorf("max_norm must be non-negative, got %g", c.MaxNorm))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Experiment converts c into the settings of one experiment.
func (c *Config) Experiment() experiment.Config {
	tol := c.Tolerance
	if c.Adaptive && tol == 0 {
		tol = DefaultTolerance
	}
	return experiment.Config{
		Model:          c.Model,
		Preset:         c.Preset,
		Integrator:     c.Integrator,
		Stimulus:       c.Stimulus,
		Params:         maps.Clone(c.Params),
		StimulusParams: maps.Clone(c.StimulusParams),
		Init:           slices.Clone(c.Init),
		Dt:             c.Dt,
		Duration:       c.Duration,
		SampleEvery:    c.SampleEvery,
		Adaptive:       c.Adaptive,
		Tolerance:      tol,
		MaxNorm:        c.MaxNorm,
	}
}
