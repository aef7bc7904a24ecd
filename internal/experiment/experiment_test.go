package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/stimulus"
)

func TestRegistryModels(t *testing.T) {
	reg := NewRegistry()
	names := reg.ListModels()
	require.Len(t, names, 26)
	assert.IsIncreasing(t, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			info, err := reg.ModelInfo(name)
			require.NoError(t, err)
			assert.Positive(t, info.Dt)
			assert.Greater(t, info.Duration, info.Dt)
			assert.NotEmpty(t, info.Description)

			sys := info.New()
			d, ok := sys.(dynamo.Defaulted)
			require.True(t, ok)
			assert.Len(t, d.DefaultState(), sys.StateDim())
			assert.Len(t, dynamo.LabelsOf(sys), sys.StateDim())

			_, _, stim, err := New(reg, Config{Model: name}).Build()
			require.NoError(t, err)
			assert.Len(t, stim.Compute(d.DefaultState(), 0), sys.InputDim())
		})
	}
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.GetModel("pendulum")
	assert.Error(t, err)
	_, err = reg.GetIntegrator("verlet")
	assert.Error(t, err)
	_, err = reg.GetStimulus("pwm", 1, nil)
	assert.Error(t, err)
}

func TestFeedbackNeedsChannels(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.GetStimulus("pid", 0, nil)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
	_, err = reg.GetStimulus("pid", 2, map[string]float64{"channel": 3})
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
	_, err = reg.GetStimulus("lqr", 1, nil)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

	s, err := reg.GetStimulus("pid", 2, map[string]float64{"channel": 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.(dynamo.Configurable).GetParams()["channel"])

	// lotka_volterra has no input channels
	err = New(reg, Config{Model: "lotka_volterra", Stimulus: "pid"}).Setup()
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

	// glucose has two state components
	err = New(reg, Config{Model: "glucose", Stimulus: "pid", StimulusParams: map[string]float64{"component": 5}}).Setup()
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
	err = New(reg, Config{Model: "glucose", Stimulus: "lqr", StimulusParams: map[string]float64{"k1_1": 1}}).Setup()
	assert.NoError(t, err)
}

func TestGetConfiguredModel(t *testing.T) {
	reg := NewRegistry()
	sys, err := reg.GetConfiguredModel("sir", map[string]float64{"beta": 0.02})
	require.NoError(t, err)
	assert.Equal(t, 0.02, sys.(dynamo.Configurable).GetParams()["beta"])

	_, err = reg.GetConfiguredModel("sir", map[string]float64{"kappa": 1})
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)
}

func TestGetStimulus(t *testing.T) {
	reg := NewRegistry()

	params := map[string]float64{"u0": 10}
	s, err := reg.GetStimulus("constant", 1, params)
	require.NoError(t, err)
	assert.Equal(t, dynamo.Input{10}, s.Compute(nil, 0))
	assert.Len(t, params, 1)

	_, err = reg.GetStimulus("constant", 1, map[string]float64{"u3": 1})
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)

	s, err = reg.GetStimulus("meals", 2, map[string]float64{"insulin": 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.(*stimulus.MealSchedule).Insulin)

	_, err = reg.GetStimulus("square", 1, map[string]float64{"period": 2})
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)
}

func TestExperimentRun(t *testing.T) {
	e := New(NewRegistry(), Config{Model: "sir", Duration: 50})
	require.NoError(t, e.Setup())

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000, res.StepsTaken)

	total := res.Final()[0] + res.Final()[1] + res.Final()[2]
	assert.InDelta(t, 100, total, 1e-6)
	assert.InDelta(t, 99-res.Final()[0], res.Metrics["total_infected"], 1e-9)
	assert.Contains(t, res.Metrics, "invariant_drift")
	assert.Contains(t, res.Metrics, "peak_infected")
}

func TestExperimentNotSetup(t *testing.T) {
	_, err := New(NewRegistry(), Config{Model: "sir"}).Run(context.Background())
	assert.Error(t, err)
}

func TestExperimentInit(t *testing.T) {
	e := New(NewRegistry(), Config{Model: "sir", Init: []float64{50, 50, 0}, Duration: 1})
	require.NoError(t, e.Setup())
	x0, err := e.InitialState()
	require.NoError(t, err)
	assert.Equal(t, dynamo.State{50, 50, 0}, x0)

	e = New(NewRegistry(), Config{Model: "sir", Init: []float64{1, 2}})
	require.NoError(t, e.Setup())
	_, err = e.Run(context.Background())
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestExperimentResolved(t *testing.T) {
	e := New(NewRegistry(), Config{Model: "glucose", Adaptive: true})
	cfg, err := e.Resolved()
	require.NoError(t, err)
	assert.Equal(t, "rk45", cfg.Integrator)
	assert.Equal(t, "meals", cfg.Stimulus)
	assert.Equal(t, 0.01, cfg.Dt)
	assert.Equal(t, 1e-6, cfg.Tolerance)

	sc, err := e.SimConfig()
	require.NoError(t, err)
	assert.True(t, sc.Adaptive)
	assert.Equal(t, 10.0, sc.MaxDt)
}

func TestExperimentAdaptive(t *testing.T) {
	e := New(NewRegistry(), Config{Model: "production", Adaptive: true, Tolerance: 1e-8})
	require.NoError(t, e.Setup())
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.InDelta(t, 50, res.Times[len(res.Times)-1], 1e-9)
	// p/k + (0 - p/k) e^{-kt}
	assert.InDelta(t, 10*(1-0.006737947), res.Final()[0], 1e-4)
}

func TestFixedStepTolerance(t *testing.T) {
	run := func(tol float64) *dynamo.Result {
		e := New(NewRegistry(), Config{Model: "lotka_volterra", Integrator: "rk45", Dt: 1, Duration: 50, Tolerance: tol})
		require.NoError(t, e.Setup())
		res, err := e.Run(context.Background())
		require.NoError(t, err)
		require.Empty(t, res.Errors)
		return res
	}
	loose := run(1e-3)
	tight := run(1e-12)
	assert.NotEqual(t, loose.Final(), tight.Final())
	assert.Less(t, tight.InvariantDrift, loose.InvariantDrift)
}

func TestMaxNorm(t *testing.T) {
	e := New(NewRegistry(), Config{Model: "production", Duration: 50, MaxNorm: 5})
	sc, err := e.SimConfig()
	require.NoError(t, err)
	assert.Equal(t, 5.0, sc.MaxNorm)

	require.NoError(t, e.Setup())
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], dynamo.ErrUnstable)
	assert.LessOrEqual(t, res.Final().Norm(), 5.0)
	assert.Less(t, res.Times[len(res.Times)-1], 50.0)
}

func TestProgress(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := New(NewRegistry(), Config{Model: "production", Duration: 10})
	require.NoError(t, e.Setup())
	e.GetSimulator().AddObserver(NewProgress(zap.New(core), 10))

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	marks := logs.FilterMessage("progress").All()
	require.Len(t, marks, 9)
	assert.Equal(t, int64(10), marks[0].ContextMap()["percent"])
	assert.Equal(t, int64(90), marks[8].ContextMap()["percent"])

	// a second run reports again
	_, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, logs.FilterMessage("progress").All(), 18)
}

func TestMetadata(t *testing.T) {
	e := New(NewRegistry(), Config{Model: "glucose", Preset: "type1", Params: map[string]float64{"b": 0}})
	require.NoError(t, e.Setup())
	meta := e.Metadata()
	assert.Equal(t, "glucose", meta.Model)
	assert.Equal(t, "type1", meta.Preset)
	assert.Equal(t, "euler", meta.Integrator)
	assert.Equal(t, []string{"G", "I"}, meta.Labels)
	assert.Equal(t, 0.0, meta.Params["b"])
	assert.Equal(t, 0.1, meta.Params["k1"])
}

func TestBuildIsFactory(t *testing.T) {
	e := New(NewRegistry(), Config{Model: "production", Duration: 10})
	sw := dynamo.NewSweep(e.Build, "p", nil)
	runs, err := sw.Run(context.Background(), []float64{1, 2}, dynamo.State{0}, dynamo.Config{Dt: 0.01, Duration: 10})
	require.NoError(t, err)
	assert.InDelta(t, 2*runs[0].Result.Final()[0], runs[1].Result.Final()[0], 1e-9)
}

func TestInsulinPump(t *testing.T) {
	run := func(stim string, params map[string]float64) map[string]float64 {
		e := New(NewRegistry(), Config{
			Model:          "glucose",
			Stimulus:       stim,
			Params:         map[string]float64{"a": 1, "b": 0},
			StimulusParams: params,
		})
		require.NoError(t, e.Setup())
		res, err := e.Run(context.Background())
		require.NoError(t, err)
		return res.Metrics
	}
	untreated := run("meals", nil)
	pumped := run("pump", map[string]float64{"kp": 1, "ki": 0.05})
	assert.Less(t, pumped["mean_glucose"], untreated["mean_glucose"])
	assert.Greater(t, pumped["input_load"], untreated["input_load"])

	_, err := NewRegistry().GetStimulus("pump", 1, nil)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)

	s, err := NewRegistry().GetStimulus("pump", 2, map[string]float64{"amount": 2, "kp": 3})
	require.NoError(t, err)
	params := s.(dynamo.Configurable).GetParams()
	assert.Equal(t, 2.0, params["amount"])
	assert.Equal(t, 3.0, params["kp"])
	assert.Equal(t, 0.5, params["target"])
}

func TestStateFeedbackDosing(t *testing.T) {
	run := func(stim string) map[string]float64 {
		e := New(NewRegistry(), Config{
			Model:    "glucose",
			Stimulus: stim,
			Params:   map[string]float64{"a": 1, "b": 0},
		})
		require.NoError(t, e.Setup())
		res, err := e.Run(context.Background())
		require.NoError(t, err)
		return res.Metrics
	}
	untreated := run("meals")
	dosed := run("lqr")
	assert.Less(t, dosed["mean_glucose"], untreated["mean_glucose"])
	assert.Greater(t, dosed["input_load"], untreated["input_load"])

	s, err := NewRegistry().GetStimulus("lqr", 2, map[string]float64{"amount": 2, "k1_0": -3})
	require.NoError(t, err)
	params := s.(dynamo.Configurable).GetParams()
	assert.Equal(t, 2.0, params["amount"])
	assert.Equal(t, -3.0, params["k1_0"])
	assert.Equal(t, 0.5, params["target0"])
}
