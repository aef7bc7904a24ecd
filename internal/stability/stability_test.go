package stability

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brusselator has no analytic Jacobian, so it exercises finite differences.
type brusselator struct{ a, b float64 }

func (m brusselator) StateDim() int { return 2 }
func (m brusselator) InputDim() int { return 0 }
func (m brusselator) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	return dynamo.State{m.a - (m.b+1)*x[0] + x[0]*x[0]*x[1], m.b*x[0] - x[0]*x[0]*x[1]}
}

type linear3 struct{}

func (linear3) StateDim() int { return 3 }
func (linear3) InputDim() int { return 0 }
func (linear3) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	return dynamo.State{-x[0] + 1, -2 * x[1], 3*x[2] - 3}
}

func TestAnalyzeEigenvalues(t *testing.T) {
	rep, err := Analyze([][]float64{{-2, 0}, {0, -3}})
	require.NoError(t, err)
	assert.Equal(t, StableNode, rep.Class)
	assert.InDelta(t, -5, rep.Trace, 1e-12)
	assert.InDelta(t, 6, rep.Det, 1e-12)
	assert.InDelta(t, 1, rep.Discriminant, 1e-12)

	re := []float64{real(rep.Eigenvalues[0]), real(rep.Eigenvalues[1])}
	assert.ElementsMatch(t, []float64{-2, -3}, roundAll(re))
}

func roundAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Round(x*1e9) / 1e9
	}
	return out
}

func TestAnalyzeHigherDimension(t *testing.T) {
	rep, err := Analyze([][]float64{{-1, 0, 0}, {0, -2, 0}, {0, 0, 3}})
	require.NoError(t, err)
	assert.Equal(t, Saddle, rep.Class)

	rep, err = Analyze([][]float64{{-1, -5, 0}, {5, -1, 0}, {0, 0, -2}})
	require.NoError(t, err)
	assert.Equal(t, StableSpiral, rep.Class)
}

func TestFiniteDifferenceJacobian(t *testing.T) {
	sys := brusselator{a: 1, b: 3}
	x := dynamo.State{1, 3}
	j := Jacobian(sys, x, 0)

	// analytic: [[-(b+1) + 2xy, x^2], [b - 2xy, -x^2]]
	assert.InDelta(t, 2, j[0][0], 1e-6)
	assert.InDelta(t, 1, j[0][1], 1e-6)
	assert.InDelta(t, -3, j[1][0], 1e-6)
	assert.InDelta(t, -1, j[1][1], 1e-6)
}

func TestFindFixedPoint(t *testing.T) {
	sys := brusselator{a: 1, b: 3}
	x, err := FindFixedPoint(sys, dynamo.State{0.5, 2}, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 1, x[0], 1e-8)
	assert.InDelta(t, 3, x[1], 1e-8)

	// b > 1 + a^2 puts the brusselator past its Hopf point
	rep, err := AnalyzeAt(sys, x)
	require.NoError(t, err)
	assert.Equal(t, UnstableSpiral, rep.Class)
}

func TestFindFixedPointDimension(t *testing.T) {
	_, err := FindFixedPoint(brusselator{1, 3}, dynamo.State{1}, DefaultOptions())
	assert.True(t, errors.Is(err, dynamo.ErrDimensionMismatch))
}

func TestFixedPointsDedupes(t *testing.T) {
	seeds := GridSeeds(3, -2, 2, -2, 2, 4)
	xs, err := FixedPoints(linear3{}, seeds, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, xs, 1)
	assert.InDelta(t, 1, xs[0][0], 1e-9)
	assert.InDelta(t, 1, xs[0][2], 1e-9)
}

func TestSurveyUsesClosedForm(t *testing.T) {
	points, err := Survey(models.NewGriffith(), nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, points, 3)

	// origin and the high state are stable, the middle one is a saddle
	assert.Equal(t, StableNode, points[0].Report.Class)
	assert.Equal(t, Saddle, points[1].Report.Class)
	assert.Equal(t, StableNode, points[2].Report.Class)
}

func TestSelkovStableAtDefaults(t *testing.T) {
	m := models.NewSelkov()
	points, err := Survey(m, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, points, 1)

	// the fixed point at a = 0.01, b = 0.3 repels, feeding a limit cycle
	assert.False(t, points[0].Report.Class.Stable())
}

func TestToggleSwitchBistable(t *testing.T) {
	points, err := Survey(models.NewToggleSwitch(), nil, DefaultOptions())
	require.NoError(t, err)

	var saddles, stable int
	for _, p := range points {
		switch {
		case p.Report.Class == Saddle:
			saddles++
		case p.Report.Class.Stable():
			stable++
		}
	}
	assert.Equal(t, 1, saddles)
	assert.Equal(t, 2, stable)
}
