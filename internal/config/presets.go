package config

import "sort"

var Presets = map[string]map[string]*Config{
	"production": {
		"accuracy": {
			Model: "production", Integrator: "euler", Dt: 0.5, Duration: 50,
		},
	},
	"haematopoiesis": {
		"baseline": {
			Model: "haematopoiesis", Integrator: "euler", Dt: 0.01, Duration: 300, SampleEvery: 10,
		},
	},
	"haematopoiesis5": {
		"lymphoid_turnover": {
			Model: "haematopoiesis5", Integrator: "euler", Dt: 0.01, Duration: 600, SampleEvery: 10,
			Params: map[string]float64{"d5": 0.1},
		},
	},
	"glucose": {
		"healthy": {
			Model: "glucose", Integrator: "euler", Stimulus: "meals", Dt: 0.01, Duration: 100,
			Params: map[string]float64{"a": 1, "b": 1},
		},
		"type1": {
			Model: "glucose", Integrator: "euler", Stimulus: "meals", Dt: 0.01, Duration: 100,
			Params: map[string]float64{"a": 1, "b": 0},
		},
		"type1_insulin": {
			Model: "glucose", Integrator: "euler", Stimulus: "meals", Dt: 0.01, Duration: 100,
			Params:         map[string]float64{"a": 1, "b": 0},
			StimulusParams: map[string]float64{"insulin": 1},
		},
		"type1_pump": {
			Model: "glucose", Integrator: "euler", Stimulus: "pump", Dt: 0.01, Duration: 100,
			Params:         map[string]float64{"a": 1, "b": 0},
			StimulusParams: map[string]float64{"kp": 1, "ki": 0.05, "target": 0.5},
		},
		"type1_lqr": {
			Model: "glucose", Integrator: "euler", Stimulus: "lqr", Dt: 0.01, Duration: 100,
			Params:         map[string]float64{"a": 1, "b": 0},
			StimulusParams: map[string]float64{"k1_0": -1, "k1_1": 0.05, "target0": 0.5},
		},
		"type2": {
			Model: "glucose", Integrator: "euler", Stimulus: "meals", Dt: 0.01, Duration: 100,
			Params: map[string]float64{"a": 0, "b": 1},
		},
		"diet": {
			Model: "glucose", Integrator: "euler", Stimulus: "meals", Dt: 0.01, Duration: 100,
			Params:         map[string]float64{"a": 0, "b": 1},
			StimulusParams: map[string]float64{"amount": 0.5},
		},
	},
	"sir": {
		"baseline": {
			Model: "sir", Integrator: "euler", Dt: 0.01, Duration: 100,
		},
		"vaccinated": {
			Model: "sir", Integrator: "euler", Dt: 0.01, Duration: 100,
			Init: []float64{49, 1, 50},
		},
	},
	"seir": {
		"baseline": {
			Model: "seir", Integrator: "rk4", Dt: 0.01, Duration: 100,
		},
	},
	"lotka_volterra": {
		"baseline": {
			Model: "lotka_volterra", Integrator: "euler", Dt: 0.01, Duration: 100,
		},
		"coarse": {
			Model: "lotka_volterra", Integrator: "euler", Dt: 0.1, Duration: 100,
		},
	},
	"fhn": {
		"oscillating": {
			Model: "fhn", Integrator: "rk4", Dt: 0.01, Duration: 50,
			Params: map[string]float64{"i": 1},
		},
		"resting": {
			Model: "fhn", Integrator: "rk4", Dt: 0.01, Duration: 50,
			Params: map[string]float64{"i": 0},
		},
	},
	"hodgkin_huxley": {
		"square": {
			Model: "hodgkin_huxley", Integrator: "rk4", Stimulus: "square", Dt: 0.01, Duration: 100,
			StimulusParams: map[string]float64{"amplitude": 30, "omega": 0.2},
		},
		"tonic": {
			Model: "hodgkin_huxley", Integrator: "rk4", Stimulus: "constant", Dt: 0.01, Duration: 100,
			StimulusParams: map[string]float64{"u0": 10},
		},
	},
	"toggle_switch": {
		"bistable": {
			Model: "toggle_switch", Integrator: "rk4", Dt: 0.01, Duration: 50,
			Params: map[string]float64{"a": 3},
		},
		"monostable": {
			Model: "toggle_switch", Integrator: "rk4", Dt: 0.01, Duration: 50,
			Params: map[string]float64{"a": 1.5},
		},
	},
	"selkov": {
		"limit_cycle": {
			Model: "selkov", Integrator: "rk4", Dt: 0.01, Duration: 100,
			Params: map[string]float64{"a": 0.01, "b": 0.3},
		},
		"steady": {
			Model: "selkov", Integrator: "rk4", Dt: 0.01, Duration: 100,
			Params: map[string]float64{"a": 0.01, "b": 1},
		},
	},
	"turing": {
		"spots": {
			Model: "turing", Integrator: "euler", Dt: 0.01, Duration: 5, SampleEvery: 10,
		},
	},
	"turing_sat": {
		"spot": {
			Model: "turing_sat", Integrator: "euler", Dt: 0.1, Duration: 500, SampleEvery: 50,
			Params: map[string]float64{"c3": 0.01},
		},
		"mesh": {
			Model: "turing_sat", Integrator: "euler", Dt: 0.1, Duration: 500, SampleEvery: 50,
			Params: map[string]float64{"c3": 0.2},
		},
	},
	"dpp_wg": {
		"receptor": {
			Model: "dpp_wg", Integrator: "euler", Dt: 0.1, Duration: 50, SampleEvery: 10,
			Params: map[string]float64{"receptor": 1},
		},
	},
	"heartbeat": {
		"pacemaker": {
			Model: "heartbeat", Integrator: "euler", Dt: 0.02, Duration: 100, SampleEvery: 25,
		},
	},
	"proneural4": {
		"egf_mutant": {
			Model: "proneural4", Integrator: "euler", Dt: 0.1, Duration: 30, SampleEvery: 10,
			Params: map[string]float64{"mutant": 1},
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names of one model, sorted.
func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListModels returns the models that have presets, sorted.
func ListModels() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
