package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decay struct{ rate float64 }

func (d *decay) Derive(x State, u Input, t float64) State {
	return State{-d.rate * x[0]}
}
func (d *decay) StateDim() int { return 1 }
func (d *decay) InputDim() int { return 0 }

func (d *decay) GetParams() map[string]float64 { return map[string]float64{"rate": d.rate} }
func (d *decay) SetParam(name string, v float64) error {
	if name != "rate" {
		return ErrUnknownParam
	}
	d.rate = v
	return nil
}

type eulerStep struct{}

func (eulerStep) Step(sys System, x State, u Input, t float64, dt float64) State {
	dx := sys.Derive(x, u, t)
	out := make(State, len(x))
	for i := range x {
		out[i] = x[i] + dt*dx[i]
	}
	return out
}

type rotation struct{}

func (rotation) Derive(x State, u Input, t float64) State { return State{-x[1], x[0]} }
func (rotation) StateDim() int                            { return 2 }
func (rotation) InputDim() int                            { return 0 }
func (rotation) Invariant(x State) float64                { return x[0]*x[0] + x[1]*x[1] }

type clamp struct{ decay }

func (c *clamp) Project(x State) {
	if x[0] < 0.5 {
		x[0] = 0.5
	}
}

type blowup struct{}

func (blowup) Derive(x State, u Input, t float64) State { return State{x[0] * x[0]} }
func (blowup) StateDim() int                            { return 1 }
func (blowup) InputDim() int                            { return 0 }

type countMetric struct {
	count int
	sum   float64
}

func (c *countMetric) Name() string { return "test" }
func (c *countMetric) Observe(x State, u Input, t float64) {
	c.count++
	c.sum += x[0]
}
func (c *countMetric) Value() float64 {
	if c.count == 0 {
		return 0
	}
	return c.sum / float64(c.count)
}
func (c *countMetric) Reset() { c.count, c.sum = 0, 0 }

func TestSimulatorRun(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0, SampleEvery: 1})
	require.NoError(t, err)

	require.Len(t, result.States, 11)
	require.Len(t, result.Times, 11)
	assert.Equal(t, 10, result.StepsTaken)
	assert.InDelta(t, 1.0, result.Times[10], 1e-12)

	// explicit Euler on dx/dt = -x gives (1 - dt)^n exactly
	assert.InDelta(t, math.Pow(0.9, 10), result.Final()[0], 1e-12)
	assert.InDelta(t, math.Exp(-1), result.Final()[0], 0.02)
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"adaptive without tolerance", Config{Dt: 0.1, Duration: 1.0, Adaptive: true, MinDt: 1e-6, MaxDt: 1}},
		{"negative sampling", Config{Dt: 0.1, Duration: 1.0, SampleEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), State{1.0}, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)
	_, err := sim.Run(context.Background(), State{1, 2}, Config{Dt: 0.1, Duration: 1})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)
	metric := &countMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	require.NoError(t, err)

	_, ok := result.Metrics["test"]
	assert.True(t, ok, "metric not found in result")
	// every step start plus the final state
	assert.Equal(t, 11, metric.count)
}

type countingStimulus struct{ calls, resets int }

func (c *countingStimulus) Compute(x State, t float64) Input {
	c.calls++
	return Input{}
}
func (c *countingStimulus) Reset() { c.calls, c.resets = 0, c.resets+1 }

func TestSimulatorResetsStimulus(t *testing.T) {
	stim := &countingStimulus{}
	sim := New(&decay{rate: 1}, eulerStep{}, stim)
	cfg := Config{Dt: 0.1, Duration: 1, SampleEvery: 1}

	_, err := sim.Run(context.Background(), State{1}, cfg)
	require.NoError(t, err)
	first := stim.calls

	_, err = sim.Run(context.Background(), State{1}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, stim.resets)
	assert.Equal(t, first, stim.calls)
}

func TestSimulatorSampling(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)

	result, err := sim.Run(context.Background(), State{1.0}, Config{Dt: 0.01, Duration: 1.05, SampleEvery: 10})
	require.NoError(t, err)

	// t=0, every 10th of 105 steps, plus the final state
	require.Len(t, result.States, 12)
	assert.InDelta(t, 1.05, result.Times[len(result.Times)-1], 1e-12)
	assert.InDelta(t, 0.1, result.Times[1], 1e-12)
}

func TestSimulatorInvariantDrift(t *testing.T) {
	sim := New(rotation{}, eulerStep{}, nil)

	result, err := sim.Run(context.Background(), State{1, 0}, Config{Dt: 0.01, Duration: 1})
	require.NoError(t, err)

	// Euler inflates the radius by (1+dt^2) per step
	expected := math.Pow(1+1e-4, 100) - 1
	assert.InDelta(t, expected, result.InvariantDrift, 1e-9)
}

func TestSimulatorProjector(t *testing.T) {
	sim := New(&clamp{decay{rate: 1}}, eulerStep{}, nil)

	result, err := sim.Run(context.Background(), State{1}, Config{Dt: 0.1, Duration: 5})
	require.NoError(t, err)
	for _, s := range result.States {
		assert.GreaterOrEqual(t, s[0], 0.5)
	}
}

func TestSimulatorInvalidStateStops(t *testing.T) {
	sim := New(blowup{}, eulerStep{}, nil)

	result, err := sim.Run(context.Background(), State{10}, Config{Dt: 0.5, Duration: 100, ValidateState: true})
	require.NoError(t, err)
	require.NotEmpty(t, result.Errors)
	assert.True(t, errors.Is(result.Errors[0], ErrInvalidState))
	assert.Less(t, result.StepsTaken, 200)
}

func TestSimulatorDivergenceStops(t *testing.T) {
	sim := New(blowup{}, eulerStep{}, nil)

	// 10 -> 60 -> 1860: the second step crosses the bound
	result, err := sim.Run(context.Background(), State{10}, Config{Dt: 0.5, Duration: 100, ValidateState: true, MaxNorm: 1000})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], ErrUnstable)
	assert.Equal(t, 1, result.StepsTaken)
	assert.Equal(t, 60.0, result.Final()[0])

	var serr *SimulationError
	require.ErrorAs(t, result.Errors[0], &serr)
	assert.Equal(t, 1860.0, serr.State[0])

	_, err = sim.Run(context.Background(), State{10}, Config{Dt: 0.5, Duration: 1, MaxNorm: -1})
	assert.Error(t, err)
}

func TestSimulatorAdaptiveStepDoubling(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)

	cfg := Config{Dt: 0.1, Duration: 1, Adaptive: true, Tolerance: 1e-5, MinDt: 1e-8, MaxDt: 0.2}
	result, err := sim.Run(context.Background(), State{1.0}, cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.InDelta(t, 1.0, result.Times[len(result.Times)-1], 1e-9)
	assert.InDelta(t, math.Exp(-1), result.Final()[0], 5e-3)
}

func TestSimulatorCancel(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, State{1.0}, Config{Dt: 0.1, Duration: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithCallback(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)

	var times []float64
	err := sim.RunWithCallback(context.Background(), State{1}, Config{Dt: 0.1, Duration: 1}, func(x State, u Input, t float64) bool {
		times = append(times, t)
		return t < 0.45
	})
	require.NoError(t, err)
	assert.Len(t, times, 6)
}

func TestRunWithCallbackResetsStimulus(t *testing.T) {
	stim := &countingStimulus{calls: 7}
	sim := New(&decay{rate: 1}, eulerStep{}, stim)

	err := sim.RunWithCallback(context.Background(), State{1}, Config{Dt: 0.1, Duration: 1}, func(State, Input, float64) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 1, stim.resets)
	assert.Equal(t, 11, stim.calls)
}

func TestRunWithCallbackFixedStepOnly(t *testing.T) {
	sim := New(&decay{rate: 1}, eulerStep{}, nil)
	called := false
	cfg := Config{Dt: 0.1, Duration: 1, Adaptive: true, Tolerance: 1e-6, MinDt: 1e-8, MaxDt: 0.2}

	err := sim.RunWithCallback(context.Background(), State{1}, cfg, func(State, Input, float64) bool {
		called = true
		return true
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestRunWithCallbackDivergence(t *testing.T) {
	sim := New(blowup{}, eulerStep{}, nil)
	err := sim.RunWithCallback(context.Background(), State{10}, Config{Dt: 0.5, Duration: 100, MaxNorm: 1000}, func(State, Input, float64) bool { return true })
	assert.ErrorIs(t, err, ErrUnstable)
}

func TestSweep(t *testing.T) {
	factory := func() (System, Integrator, Stimulus, error) {
		return &decay{rate: 1}, eulerStep{}, nil, nil
	}
	sw := NewSweep(factory, "rate", nil)
	sw.SetParallelism(2)

	runs, err := sw.Run(context.Background(), []float64{0.5, 1, 2}, State{1}, Config{Dt: 0.01, Duration: 1})
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, 0.5, runs[0].Value)
	assert.Greater(t, runs[0].Result.Final()[0], runs[1].Result.Final()[0])
	assert.Greater(t, runs[1].Result.Final()[0], runs[2].Result.Final()[0])
}

func TestSweepUnknownParam(t *testing.T) {
	factory := func() (System, Integrator, Stimulus, error) {
		return &decay{rate: 1}, eulerStep{}, nil, nil
	}
	_, err := NewSweep(factory, "nope", nil).Run(context.Background(), []float64{1}, State{1}, Config{Dt: 0.1, Duration: 1})
	assert.ErrorIs(t, err, ErrUnknownParam)
}

func TestParallelFor(t *testing.T) {
	seen := make([]int, 1000)
	ParallelFor(len(seen), 10, func(start, end int) {
		for i := start; i < end; i++ {
			seen[i]++
		}
	})
	for i, c := range seen {
		require.Equal(t, 1, c, "index %d", i)
	}
}
