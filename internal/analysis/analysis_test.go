package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/integrators"
	"github.com/san-kum/biodyn/internal/models"
	"github.com/san-kum/biodyn/internal/stability"
)

// spiral has eigenvalues a +- i.
type spiral struct{ a float64 }

func (s spiral) StateDim() int { return 2 }
func (s spiral) InputDim() int { return 0 }
func (s spiral) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	return dynamo.State{s.a*x[0] - x[1], x[0] + s.a*x[1]}
}

type decay2 struct{}

func (decay2) StateDim() int { return 2 }
func (decay2) InputDim() int { return 0 }
func (decay2) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	return dynamo.State{-x[0], -2 * x[1]}
}

// hopf is the supercritical Hopf normal form with a cycle of radius sqrt(mu).
type hopf struct{ mu float64 }

func (h *hopf) StateDim() int { return 2 }
func (h *hopf) InputDim() int { return 0 }
func (h *hopf) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	r2 := x[0]*x[0] + x[1]*x[1]
	return dynamo.State{(h.mu-r2)*x[0] - x[1], x[0] + (h.mu-r2)*x[1]}
}
func (h *hopf) GetParams() map[string]float64 { return map[string]float64{"mu": h.mu} }
func (h *hopf) SetParam(name string, v float64) error {
	if name != "mu" {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}
	h.mu = v
	return nil
}

func TestGeneratePhasePortrait(t *testing.T) {
	p, err := GeneratePhasePortrait(spiral{}, integrators.NewRK4(), dynamo.State{1, 0}, 0, 1, 0.01, 1)
	require.NoError(t, err)
	require.Len(t, p.Points, 101)

	last := p.Points[100]
	assert.InDelta(t, math.Cos(1), last.X, 1e-8)
	assert.InDelta(t, math.Sin(1), last.Y, 1e-8)

	_, err = GeneratePhasePortrait(spiral{}, integrators.NewRK4(), dynamo.State{1, 0}, 0, 2, 0.01, 1)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestPortraitOf(t *testing.T) {
	res := &dynamo.Result{States: []dynamo.State{{1, 2, 3}, {4, 5, 6}}}
	p, err := PortraitOf(res, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []Point{{3, 1}, {6, 4}}, p.Points)

	_, err = PortraitOf(&dynamo.Result{}, 0, 1)
	assert.Error(t, err)
}

func TestPhasePortraitToASCII(t *testing.T) {
	p, err := GeneratePhasePortrait(spiral{a: -0.1}, integrators.NewRK4(), dynamo.State{1, 0}, 0, 1, 0.05, 20)
	require.NoError(t, err)

	art := PhasePortraitToASCII(p, 40, 12)
	lines := strings.Split(strings.TrimSuffix(art, "\n"), "\n")
	assert.Len(t, lines, 12)
	assert.Contains(t, art, "•")
	assert.Empty(t, PhasePortraitToASCII(nil, 10, 10))
}

func TestPoincareSectionPeriod(t *testing.T) {
	sec, err := GeneratePoincareSection(spiral{}, integrators.NewRK4(), dynamo.State{1, 0}, 1, 0, 0, 1, 0.01, 20)
	require.NoError(t, err)

	require.Len(t, sec.Times, 3)
	assert.InDelta(t, 2*math.Pi, sec.Times[0], 1e-3)
	assert.InDelta(t, 2*math.Pi, sec.Period(0), 1e-3)
	for _, p := range sec.Points {
		assert.InDelta(t, 1.0, p.X, 1e-4)
		assert.InDelta(t, 0.0, p.Y, 1e-4)
	}
	assert.Zero(t, sec.Period(2))
}

func TestVectorField(t *testing.T) {
	arrows, err := VectorField(spiral{}, Window{-1, 1, -1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, arrows, 9)

	a := arrows[5]
	assert.Equal(t, Arrow{X: 1, Y: 0, DX: 0, DY: 1}, a)

	_, err = VectorField(models.NewGoodwin(), Window{0, 1, 0, 1}, 3)
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestNullclineGrid(t *testing.T) {
	nc, err := NullclineGrid(decay2{}, Window{-2, 2, -1, 1}, 5)
	require.NoError(t, err)
	require.Len(t, nc.DX, 5)

	for j, y := range nc.YS {
		for i, x := range nc.XS {
			assert.Equal(t, -x, nc.DX[j][i])
			assert.Equal(t, -2*y, nc.DY[j][i])
		}
	}
}

func TestAxis(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, Axis(0, 1, 3))
	assert.Equal(t, []float64{2}, Axis(2, 5, 1))
}

func TestStabilityMapSelkov(t *testing.T) {
	factory := func() dynamo.System { return models.NewSelkov() }
	m, err := StabilityMap(context.Background(), factory, "a", "b",
		[]float64{0.01, 0.05}, []float64{0.3, 2}, dynamo.State{1, 1}, stability.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, m.Cells, 2)

	for _, c := range m.Cells[0] {
		require.True(t, c.Found)
		assert.False(t, c.Class.Stable(), "b=0.3 lies inside the oscillatory region")
		assert.Greater(t, c.Trace, 0.0)
	}
	for _, c := range m.Cells[1] {
		assert.True(t, c.Class.Stable())
	}

	tr := m.Values(func(c Cell) float64 { return c.Trace })
	// trace = -1 + 2b^2/(a+b^2) - (a+b^2)
	assert.InDelta(t, 0.7, tr[0][0], 1e-9)

	total := 0
	for _, n := range m.Count() {
		total += n
	}
	assert.Equal(t, 4, total)
}

func TestStabilityMapUnknownParam(t *testing.T) {
	factory := func() dynamo.System { return models.NewSelkov() }
	_, err := StabilityMap(context.Background(), factory, "a", "nope",
		[]float64{0.01}, []float64{0.3}, dynamo.State{1, 1}, stability.DefaultOptions())
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)
}

func TestBifurcationDiagramHopf(t *testing.T) {
	h := &hopf{mu: 0.25}
	data, err := BifurcationDiagram(h, integrators.NewRK4(), "mu", -1, 1, 2, 0,
		dynamo.State{0.5, 0}, 0.01, 50, 20, 1e-3)
	require.NoError(t, err)
	require.Len(t, data, 2)

	require.Len(t, data[0].Values, 1)
	assert.InDelta(t, 0.0, data[0].Values[0], 1e-6)

	require.NotEmpty(t, data[1].Values)
	for _, v := range data[1].Values {
		assert.InDelta(t, 1.0, v, 1e-2)
	}

	assert.Equal(t, 0.25, h.mu, "parameter restored")
	assert.NotEmpty(t, BifurcationToASCII(data, 20, 8))
}

func TestBifurcationDiagramErrors(t *testing.T) {
	_, err := BifurcationDiagram(&hopf{}, integrators.NewRK4(), "nu", 0, 1, 3, 0, dynamo.State{1, 0}, 0.1, 1, 1, 0)
	assert.ErrorIs(t, err, dynamo.ErrUnknownParam)

	_, err = BifurcationDiagram(spiral{}, integrators.NewRK4(), "a", 0, 1, 3, 0, dynamo.State{1, 0}, 0.1, 1, 1, 0)
	assert.Error(t, err)
}

func TestDominantPeriod(t *testing.T) {
	dt := 0.1
	data := make([]float64, 1000)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*float64(i)*dt/5)
	}
	period, err := DominantPeriod(data, dt)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, period, 1e-9)

	ps := PowerSpectrum(data)
	assert.Len(t, ps, 501)
	assert.InDelta(t, 0.0, ps[0], 1e-6, "mean removed")

	_, err = DominantPeriod(make([]float64, 64), dt)
	assert.ErrorIs(t, err, ErrNoOscillation)
}

func TestLyapunovExponent(t *testing.T) {
	integ := integrators.NewRK4()

	lambda := LyapunovExponent(decay2{}, integ, dynamo.State{1, 1}, 0.01, 10, 1e-8)
	assert.InDelta(t, -1.0, lambda, 1e-3)

	spectrum := LyapunovSpectrum(decay2{}, integ, dynamo.State{1, 1}, 0.01, 10, 1e-8)
	assert.InDelta(t, -1.0, spectrum[0], 1e-3)
	assert.InDelta(t, -2.0, spectrum[1], 1e-3)

	// a neutral centre neither attracts nor repels
	assert.InDelta(t, 0.0, LyapunovExponent(spiral{}, integ, dynamo.State{1, 0}, 0.01, 20, 1e-8), 1e-3)
}

func TestNullclineZeroCrossings(t *testing.T) {
	// the x-nullcline of decay2 is the line x = 0
	nc, err := NullclineGrid(decay2{}, Window{-1.5, 1.5, -1, 1}, 4)
	require.NoError(t, err)

	zero := nc.ZeroCrossings(0)
	require.Len(t, zero, 4)
	for _, p := range zero {
		assert.InDelta(t, 0.0, p.X, 1e-12)
	}

	// y = 0 lies on the lattice for an odd count
	nc, err = NullclineGrid(decay2{}, Window{-1, 1, -1, 1}, 3)
	require.NoError(t, err)
	for _, p := range nc.ZeroCrossings(1) {
		assert.Equal(t, 0.0, p.Y)
	}
	assert.Len(t, nc.ZeroCrossings(1), 3)
}
