package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/integrators"
	"github.com/san-kum/biodyn/internal/metrics"
	"github.com/san-kum/biodyn/internal/models"
	"github.com/san-kum/biodyn/internal/pattern"
	"github.com/san-kum/biodyn/internal/stimulus"
)

// ModelInfo describes a registered model and the run settings it is
// usually simulated with.
type ModelInfo struct {
	Name        string
	Description string
	Dt          float64
	Duration    float64
	SampleEvery int
	Stimulus    string
	Lattice     bool
	New         func() dynamo.System
}

type Registry struct {
	models      map[string]ModelInfo
	integrators map[string]func() dynamo.Integrator
	stimuli     map[string]func(dim int, params map[string]float64) (dynamo.Stimulus, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]ModelInfo),
		integrators: make(map[string]func() dynamo.Integrator),
		stimuli:     make(map[string]func(int, map[string]float64) (dynamo.Stimulus, error)),
	}

	ode := func(name, desc string, dt, duration float64, fn func() dynamo.System) {
		r.models[name] = ModelInfo{Name: name, Description: desc, Dt: dt, Duration: duration, SampleEvery: 1, Stimulus: "none", New: fn}
	}
	ode("production", "production and decay of one substance", 0.01, 50, func() dynamo.System { return models.NewProduction() })
	ode("haematopoiesis", "stem, progenitor and mature blood cells", 0.01, 300, func() dynamo.System { return models.NewHaematopoiesis() })
	ode("haematopoiesis_logistic", "haematopoiesis with carrying capacities", 0.01, 300, func() dynamo.System { return models.NewLogisticHaematopoiesis() })
	ode("haematopoiesis5", "haematopoiesis with a leukaemic lineage", 0.01, 600, func() dynamo.System { return models.NewLineage() })
	ode("sir", "mass-action SIR epidemic", 0.01, 100, func() dynamo.System { return models.NewSIR() })
	ode("seir", "SEIR epidemic with latency", 0.01, 100, func() dynamo.System { return models.NewSEIR() })
	ode("lotka_volterra", "predator-prey oscillations", 0.01, 100, func() dynamo.System { return models.NewLotkaVolterra() })
	ode("fhn", "FitzHugh-Nagumo excitable membrane", 0.01, 50, func() dynamo.System { return models.NewFitzHughNagumo() })
	ode("griffith", "Griffith positive feedback gene circuit", 0.01, 50, func() dynamo.System { return models.NewGriffith() })
	ode("toggle_switch", "mutually repressing gene pair", 0.01, 50, func() dynamo.System { return models.NewToggleSwitch() })
	ode("goodwin", "Goodwin repressor oscillator", 0.01, 200, func() dynamo.System { return models.NewGoodwin() })
	ode("selkov", "Sel'kov glycolysis oscillator", 0.01, 100, func() dynamo.System { return models.NewSelkov() })
	ode("damped_oscillator", "Lienard form damped oscillator", 0.01, 50, func() dynamo.System { return models.NewDampedOscillator() })
	ode("bvp", "Bonhoeffer-van der Pol relaxation oscillator", 0.01, 50, func() dynamo.System { return models.NewBVP() })
	ode("romance", "Strogatz's Romeo and Juliet", 0.01, 20, func() dynamo.System { return models.NewRomance() })

	r.models["glucose"] = ModelInfo{
		Name: "glucose", Description: "glucose-insulin regulation under a meal schedule",
		Dt: 0.01, Duration: 100, SampleEvery: 1, Stimulus: "meals",
		New: func() dynamo.System { return models.NewGlucose() },
	}
	r.models["hodgkin_huxley"] = ModelInfo{
		Name: "hodgkin_huxley", Description: "Hodgkin-Huxley squid axon under an injected current",
		Dt: 0.01, Duration: 100, SampleEvery: 1, Stimulus: "square",
		New: func() dynamo.System { return models.NewHodgkinHuxley() },
	}

	lattice := func(name, desc string, dt, duration float64, sample int, fn func() dynamo.System) {
		r.models[name] = ModelInfo{Name: name, Description: desc, Dt: dt, Duration: duration, SampleEvery: sample, Stimulus: "none", Lattice: true, New: fn}
	}
	lattice("diffusion", "free diffusion on a zero-flux lattice", 0.1, 10, 10, func() dynamo.System { return pattern.NewDiffusion() })
	lattice("dpp", "Dpp morphogen gradient from a stripe source", 0.1, 50, 10, func() dynamo.System { return pattern.NewDpp() })
	lattice("dpp_sal", "Dpp gradient with Sal target expression", 0.1, 50, 10, func() dynamo.System { return pattern.NewDppSal() })
	lattice("dpp_wg", "Dpp and Wg gradients with Dll target", 0.1, 50, 10, func() dynamo.System { return pattern.NewDppWg() })
	lattice("turing", "linear activator-inhibitor Turing pattern", 0.01, 5, 10, func() dynamo.System { return pattern.NewTuring() })
	lattice("turing_sat", "Turing pattern with saturating production", 0.1, 500, 50, func() dynamo.System { return pattern.NewSaturatingTuring() })
	lattice("heartbeat", "FitzHugh-Nagumo tissue with a pacemaker", 0.02, 100, 25, func() dynamo.System { return pattern.NewHeartbeat() })
	lattice("proneural", "proneural wave driven by EGF relay", 0.1, 30, 10, func() dynamo.System { return pattern.NewProneural() })
	lattice("proneural4", "proneural wave with Delta-Notch inhibition", 0.1, 30, 10, func() dynamo.System { return pattern.NewProneural4() })

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.stimuli["none"] = func(dim int, _ map[string]float64) (dynamo.Stimulus, error) {
		return stimulus.NewNone(dim), nil
	}
	r.stimuli["constant"] = func(dim int, params map[string]float64) (dynamo.Stimulus, error) {
		vals := make([]float64, dim)
		for i := range vals {
			key := fmt.Sprintf("u%d", i)
			vals[i] = params[key]
			delete(params, key)
		}
		if len(params) > 0 {
			return nil, fmt.Errorf("%w: constant stimulus takes u0..u%d", dynamo.ErrUnknownParam, dim-1)
		}
		return stimulus.NewConstant(vals...), nil
	}
	r.stimuli["manual"] = func(dim int, params map[string]float64) (dynamo.Stimulus, error) {
		m := stimulus.NewManual(dim)
		for i := 0; i < dim; i++ {
			m.Set(i, params[fmt.Sprintf("u%d", i)])
		}
		return m, nil
	}
	r.stimuli["meals"] = func(_ int, params map[string]float64) (dynamo.Stimulus, error) {
		s := stimulus.NewMealSchedule()
		return s, applyParams(s, params)
	}
	r.stimuli["square"] = func(_ int, params map[string]float64) (dynamo.Stimulus, error) {
		s := stimulus.NewSquareWave()
		return s, applyParams(s, params)
	}
	r.stimuli["pid"] = func(dim int, params map[string]float64) (dynamo.Stimulus, error) {
		if dim < 1 {
			return nil, fmt.Errorf("%w: pid needs an input channel, model has none", dynamo.ErrDimensionMismatch)
		}
		s := stimulus.NewFeedback(dim, 0, 0)
		if err := applyParams(s, params); err != nil {
			return nil, err
		}
		if s.Channel >= dim {
			return nil, fmt.Errorf("%w: pid channel %d, model has %d", dynamo.ErrDimensionMismatch, s.Channel, dim)
		}
		return s, nil
	}
	// meals with a pump dosing insulin (channel 1) from glucose (component 0)
	r.stimuli["pump"] = func(dim int, params map[string]float64) (dynamo.Stimulus, error) {
		if dim < 2 {
			return nil, fmt.Errorf("%w: pump needs diet and insulin channels, model has %d", dynamo.ErrDimensionMismatch, dim)
		}
		pump := stimulus.NewFeedback(dim, 0, 1)
		pump.Target = 0.5
		s := stimulus.NewSum(dim, stimulus.NewMealSchedule(), pump)
		return s, applyParams(s, params)
	}
	// meals with a fixed gain law on [G, I] dosing insulin
	r.stimuli["lqr"] = func(dim int, params map[string]float64) (dynamo.Stimulus, error) {
		if dim < 2 {
			return nil, fmt.Errorf("%w: lqr needs diet and insulin channels, model has %d", dynamo.ErrDimensionMismatch, dim)
		}
		law := stimulus.NewStateFeedback(dim, 2)
		law.K[1][0] = -1
		law.Target[0] = 0.5
		law.Lo = 0
		s := stimulus.NewSum(dim, stimulus.NewMealSchedule(), law)
		return s, applyParams(s, params)
	}

	return r
}

func applyParams(c dynamo.Configurable, params map[string]float64) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.SetParam(name, params[name]); err != nil {
			return err
		}
	}
	return nil
}

// ModelInfo looks up a model's registration.
func (r *Registry) ModelInfo(name string) (ModelInfo, error) {
	info, ok := r.models[name]
	if !ok {
		return ModelInfo{}, fmt.Errorf("unknown model: %s", name)
	}
	return info, nil
}

func (r *Registry) GetModel(name string) (dynamo.System, error) {
	info, err := r.ModelInfo(name)
	if err != nil {
		return nil, err
	}
	return info.New(), nil
}

// GetConfiguredModel builds a model and applies params on top of its
// defaults. Unknown parameter names are errors.
func (r *Registry) GetConfiguredModel(name string, params map[string]float64) (dynamo.System, error) {
	sys, err := r.GetModel(name)
	if err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return sys, nil
	}
	c, ok := sys.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("model %s has no parameters", name)
	}
	if err := applyParams(c, params); err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	return sys, nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// GetStimulus builds a stimulus producing dim input channels. params is
// not modified.
func (r *Registry) GetStimulus(name string, dim int, params map[string]float64) (dynamo.Stimulus, error) {
	fn, ok := r.stimuli[name]
	if !ok {
		return nil, fmt.Errorf("unknown stimulus: %s", name)
	}
	cp := make(map[string]float64, len(params))
	for k, v := range params {
		cp[k] = v
	}
	s, err := fn(dim, cp)
	if err != nil {
		return nil, fmt.Errorf("stimulus %s: %w", name, err)
	}
	return s, nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func (r *Registry) ListStimuli() []string {
	return sortedKeys(r.stimuli)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns the summary metrics reported for a model. Every
// system with a conserved quantity also reports its drift.
func (r *Registry) DefaultMetrics(model string, sys dynamo.System, duration float64) []dynamo.Metric {
	var ms []dynamo.Metric
	switch model {
	case "production":
		ms = append(ms, metrics.NewTailMean("mean_E", 0, duration/2))
	case "haematopoiesis", "haematopoiesis_logistic", "haematopoiesis5":
		ms = append(ms, metrics.NewTailMean("mean_M", 2, duration/2), metrics.NewPeak("peak_M", 2))
	case "glucose":
		ms = append(ms,
			metrics.NewTailMean("mean_glucose", 0, duration/2),
			metrics.NewPeak("peak_glucose", 0),
			metrics.NewInputLoad(),
		)
	case "sir":
		ms = append(ms, metrics.NewDepletion("total_infected", 0), metrics.NewPeak("peak_infected", 1))
	case "seir":
		ms = append(ms, metrics.NewDepletion("total_infected", 0), metrics.NewPeak("peak_infected", 2))
	case "lotka_volterra":
		ms = append(ms, metrics.NewPeak("peak_prey", 0), metrics.NewPeak("peak_predator", 1))
	case "fhn", "hodgkin_huxley":
		ms = append(ms, metrics.NewPeak("peak_V", 0))
		if model == "hodgkin_huxley" {
			ms = append(ms, metrics.NewInputLoad())
		}
	case "griffith", "toggle_switch", "goodwin", "selkov":
		ms = append(ms, metrics.NewTailMean("mean_x", 0, duration/2))
	case "damped_oscillator", "bvp", "romance":
		ms = append(ms, metrics.NewBounded("bounded", -10, 10))
	case "turing", "turing_sat":
		ms = append(ms, metrics.NewBounded("nonnegative", 0, 1e9))
	}
	if c, ok := sys.(dynamo.Conserved); ok {
		ms = append(ms, metrics.NewInvariantDrift(c))
	}
	return ms
}
