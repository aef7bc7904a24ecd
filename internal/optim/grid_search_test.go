package optim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/biodyn/internal/experiment"
)

func TestNewGridSearchValidates(t *testing.T) {
	_, err := NewGridSearch([]string{"a"}, nil)
	assert.Error(t, err)
	_, err = NewGridSearch([]string{"a"}, [][]float64{{}})
	assert.Error(t, err)
}

func TestGridSearchGlucose(t *testing.T) {
	reg := experiment.NewRegistry()
	g, err := NewGridSearch([]string{"a", "b"}, [][]float64{{0, 1}, {0, 1}})
	require.NoError(t, err)

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		return experiment.New(reg, experiment.Config{Model: "glucose", Duration: 50, Params: params}), nil
	}
	best, val, err := g.Search(context.Background(), build, "mean_glucose")
	require.NoError(t, err)

	// insulin secretion with intact sensitivity keeps glucose lowest
	assert.Equal(t, map[string]float64{"a": 1, "b": 1}, best)
	assert.False(t, math.IsInf(val, 0))
	assert.Equal(t, 4, g.Evaluations)
}

func TestGridSearchSkipsFailures(t *testing.T) {
	reg := experiment.NewRegistry()
	g, err := NewGridSearch([]string{"beta"}, [][]float64{{0.005, 0.02}})
	require.NoError(t, err)

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		if params["beta"] > 0.01 {
			params["nope"] = 1
		}
		return experiment.New(reg, experiment.Config{Model: "sir", Duration: 20, Params: params}), nil
	}
	best, _, err := g.Search(context.Background(), build, "total_infected")
	require.NoError(t, err)
	assert.Equal(t, 0.005, best["beta"])
	assert.Equal(t, 1, g.Evaluations)
}

func TestGridSearchMissingMetric(t *testing.T) {
	reg := experiment.NewRegistry()
	g, err := NewGridSearch([]string{"beta"}, [][]float64{{0.01}})
	require.NoError(t, err)
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		return experiment.New(reg, experiment.Config{Model: "sir", Duration: 1, Params: params}), nil
	}
	_, _, err = g.Search(context.Background(), build, "nope")
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestGridSearchCancelled(t *testing.T) {
	reg := experiment.NewRegistry()
	g, err := NewGridSearch([]string{"beta"}, [][]float64{{0.01, 0.02}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		return experiment.New(reg, experiment.Config{Model: "sir", Duration: 1, Params: params}), nil
	}
	_, _, err = g.Search(ctx, build, "total_infected")
	assert.ErrorIs(t, err, context.Canceled)
}
