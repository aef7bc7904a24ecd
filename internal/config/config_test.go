package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/biodyn/internal/experiment"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "sir" {
		t.Errorf("expected model sir, got %s", cfg.Model)
	}
	if err := cfg.Validate(experiment.NewRegistry()); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("turing_sat", "spot")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Params["c3"] != 0.01 {
		t.Errorf("expected c3 0.01, got %f", cfg.Params["c3"])
	}

	cfg.Params["c3"] = 5
	if GetPreset("turing_sat", "spot").Params["c3"] != 0.01 {
		t.Error("GetPreset returned a shared config")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("sir", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "baseline")
	if cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("glucose")
	if len(presets) != 7 {
		t.Errorf("expected 7 glucose presets, got %v", presets)
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestPresetsValid(t *testing.T) {
	reg := experiment.NewRegistry()
	for model, set := range Presets {
		for name, cfg := range set {
			if cfg.Model != model {
				t.Errorf("%s/%s: model field %q", model, name, cfg.Model)
			}
			if err := cfg.Validate(reg); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
			}
			if _, _, _, err := experiment.New(reg, cfg.Experiment()).Build(); err != nil {
				t.Errorf("%s/%s: build: %v", model, name, err)
			}
		}
	}
}

func TestMergePrecedence(t *testing.T) {
	base := &Config{
		Model: "glucose", Dt: 0.01, Duration: 100,
		Params:         map[string]float64{"a": 1, "b": 1},
		StimulusParams: map[string]float64{"amount": 1},
	}
	over := &Config{Duration: 50, Params: map[string]float64{"b": 0}}

	got := base.Merge(over)
	if got.Dt != 0.01 || got.Duration != 50 {
		t.Errorf("dt/duration = %g/%g", got.Dt, got.Duration)
	}
	if got.Params["a"] != 1 || got.Params["b"] != 0 {
		t.Errorf("params = %v", got.Params)
	}
	if base.Params["b"] != 1 {
		t.Error("merge modified its receiver")
	}
	if got.StimulusParams["amount"] != 1 {
		t.Errorf("stimulus params = %v", got.StimulusParams)
	}
}

func TestResolvePreset(t *testing.T) {
	cfg := &Config{Model: "glucose", Preset: "type1", Duration: 20}
	got, err := cfg.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if got.Stimulus != "meals" || got.Duration != 20 || got.Params["b"] != 0 {
		t.Errorf("resolved = %+v", got)
	}

	_, err = (&Config{Model: "glucose", Preset: "nope"}).Resolve()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestPumpPreset(t *testing.T) {
	cfg, err := (&Config{Model: "glucose", Preset: "type1_pump", Duration: 50}).Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(experiment.NewRegistry()); err != nil {
		t.Fatal(err)
	}
	e := experiment.New(experiment.NewRegistry(), cfg.Experiment())
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// with b = 0 and no pump, I would have decayed to e^-5 of its start
	if res.Final()[1] < 0.1 {
		t.Errorf("insulin = %g, want the pump to hold it up", res.Final()[1])
	}
}

func TestLQRPreset(t *testing.T) {
	cfg, err := (&Config{Model: "glucose", Preset: "type1_lqr", MaxNorm: 100}).Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Stimulus != "lqr" || cfg.StimulusParams["k1_0"] != -1 {
		t.Fatalf("resolved = %+v", cfg)
	}
	exp := cfg.Experiment()
	if exp.MaxNorm != 100 {
		t.Errorf("max norm = %g", exp.MaxNorm)
	}
	e := experiment.New(experiment.NewRegistry(), exp)
	if err := e.Setup(); err != nil {
		t.Fatal(err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("run errors: %v", res.Errors)
	}
	if res.Final()[1] < 0.1 {
		t.Errorf("insulin = %g, want the gain law to hold it up", res.Final()[1])
	}
}

func TestValidate(t *testing.T) {
	reg := experiment.NewRegistry()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown model", Config{Model: "pendulum"}},
		{"unknown integrator", Config{Model: "sir", Integrator: "verlet"}},
		{"unknown stimulus", Config{Model: "sir", Stimulus: "pwm"}},
		{"negative dt", Config{Model: "sir", Dt: -1}},
		{"dt beyond duration", Config{Model: "sir", Dt: 2, Duration: 1}},
		{"negative sampling", Config{Model: "sir", SampleEvery: -1}},
		{"negative max norm", Config{Model: "sir", MaxNorm: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(reg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := GetPreset("glucose", "type1_insulin")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Model != "glucose" || loaded.Stimulus != "meals" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.StimulusParams["insulin"] != 1 || loaded.Params["b"] != 0 {
		t.Errorf("params lost: %v %v", loaded.Params, loaded.StimulusParams)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
