package models

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type model interface {
	dynamo.System
	dynamo.Labeled
	dynamo.Configurable
	dynamo.Defaulted
}

func allModels() map[string]model {
	return map[string]model{
		"production":        NewProduction(),
		"haematopoiesis":    NewHaematopoiesis(),
		"haematopoiesis5":   NewLineage(),
		"glucose":           NewGlucose(),
		"sir":               NewSIR(),
		"seir":              NewSEIR(),
		"lotka_volterra":    NewLotkaVolterra(),
		"fhn":               NewFitzHughNagumo(),
		"hodgkin_huxley":    NewHodgkinHuxley(),
		"griffith":          NewGriffith(),
		"toggle_switch":     NewToggleSwitch(),
		"selkov":            NewSelkov(),
		"goodwin":           NewGoodwin(),
		"damped_oscillator": NewDampedOscillator(),
		"bvp":               NewBVP(),
		"romance":           NewRomance(),
	}
}

func TestModelDimensions(t *testing.T) {
	for name, m := range allModels() {
		t.Run(name, func(t *testing.T) {
			x0 := m.DefaultState()
			require.Len(t, x0, m.StateDim())
			assert.Len(t, m.Labels(), m.StateDim())

			dx := m.Derive(x0, make(dynamo.Input, m.InputDim()), 0)
			require.Len(t, dx, m.StateDim())
			assert.True(t, dx.IsValid(), "derivative at default state: %v", dx)
		})
	}
}

func TestModelParams(t *testing.T) {
	for name, m := range allModels() {
		t.Run(name, func(t *testing.T) {
			for p := range m.GetParams() {
				if p == "saturating" {
					continue
				}
				require.NoError(t, m.SetParam(p, 0.5))
				assert.Equal(t, 0.5, m.GetParams()[p])
			}
			err := m.SetParam("no_such_param", 1)
			assert.True(t, errors.Is(err, dynamo.ErrUnknownParam))
		})
	}
}

func TestFixedPointsAreStationary(t *testing.T) {
	for name, m := range allModels() {
		fp, ok := m.(dynamo.FixedPointer)
		if !ok {
			continue
		}
		t.Run(name, func(t *testing.T) {
			points := fp.FixedPoints()
			require.NotEmpty(t, points)
			for _, x := range points {
				dx := m.Derive(x, make(dynamo.Input, m.InputDim()), 0)
				assert.Less(t, dx.Norm(), 1e-8, "fixed point %v moves with %v", x, dx)
			}
		})
	}
}

func TestJacobianMatchesDerivative(t *testing.T) {
	const h = 1e-6
	for name, m := range allModels() {
		planar, ok := m.(dynamo.Planar)
		if !ok {
			continue
		}
		t.Run(name, func(t *testing.T) {
			x := dynamo.State{0.7, 0.4}
			u := make(dynamo.Input, m.InputDim())
			j := planar.Jacobian(x)
			for col := 0; col < 2; col++ {
				xp, xm := x.Clone(), x.Clone()
				xp[col] += h
				xm[col] -= h
				fp, fm := m.Derive(xp, u, 0), m.Derive(xm, u, 0)
				for row := 0; row < 2; row++ {
					numeric := (fp[row] - fm[row]) / (2 * h)
					assert.InDelta(t, numeric, j[row][col], 1e-5, "J[%d][%d]", row, col)
				}
			}
		})
	}
}

func TestProductionAnalytic(t *testing.T) {
	m := NewProduction()
	assert.InDelta(t, 0, m.Analytic(0), 1e-12)
	assert.InDelta(t, 10*(1-math.Exp(-1)), m.Analytic(10), 1e-12)
	assert.InDelta(t, 10, m.Analytic(1e4), 1e-9)
}

func TestGriffithFixedPointCount(t *testing.T) {
	assert.Len(t, NewGriffith().FixedPoints(), 3)

	g := &Griffith{A: 1, B: 1}
	assert.Len(t, g.FixedPoints(), 1)

	g = &Griffith{A: 1, B: 0.5}
	assert.Len(t, g.FixedPoints(), 2)
}

func TestToggleSwitchBistability(t *testing.T) {
	assert.Len(t, NewToggleSwitch().FixedPoints(), 3)
	assert.Len(t, (&ToggleSwitch{A: 1.5}).FixedPoints(), 1)

	sym := (&ToggleSwitch{A: 1.5}).FixedPoints()[0]
	assert.InDelta(t, sym[0], sym[1], 1e-9)
}

func TestFitzHughNagumoSingleRestingState(t *testing.T) {
	fps := NewFitzHughNagumo().FixedPoints()
	require.Len(t, fps, 1)
	v := fps[0][0]
	assert.InDelta(t, 0, v*v*v+0.75*v-0.375, 1e-9)
}

func TestSIRConservesPopulation(t *testing.T) {
	m := NewSIR()
	dx := m.Derive(dynamo.State{50, 30, 20}, nil, 0)
	assert.InDelta(t, 0, dx[0]+dx[1]+dx[2], 1e-12)

	s := NewSEIR()
	dx = s.Derive(dynamo.State{50, 10, 30, 10}, nil, 0)
	assert.InDelta(t, 0, dx[0]+dx[1]+dx[2]+dx[3], 1e-12)
}

func TestLotkaVolterraInvariant(t *testing.T) {
	m := NewLotkaVolterra()
	x := dynamo.State{30, 10}
	dx := m.Derive(x, nil, 0)

	// the invariant has zero derivative along the flow
	h := 1e-7
	next := dynamo.State{x[0] + h*dx[0], x[1] + h*dx[1]}
	rate := (m.Invariant(next) - m.Invariant(x)) / h
	assert.InDelta(t, 0, rate, 1e-4)

	assert.True(t, math.IsNaN(m.Invariant(dynamo.State{0, 1})))
}

func TestHodgkinHuxleyRest(t *testing.T) {
	m := NewHodgkinHuxley()
	x := m.DefaultState()

	// gates sit at steady state, only V relaxes
	dx := m.Derive(x, dynamo.Input{0}, 0)
	assert.InDelta(t, 0, dx[1], 1e-12)
	assert.InDelta(t, 0, dx[2], 1e-12)
	assert.InDelta(t, 0, dx[3], 1e-12)
	assert.Less(t, math.Abs(dx[0]), 1.0)

	// removable singularities
	assert.InDelta(t, 1.0, alphaM(-40), 1e-9)
	assert.InDelta(t, 0.1, alphaN(-55), 1e-9)
	assert.InDelta(t, alphaM(-40+1e-4), alphaM(-40), 1e-4)
}

func TestHodgkinHuxleyCurrentDepolarises(t *testing.T) {
	m := NewHodgkinHuxley()
	x := m.DefaultState()
	rest := m.Derive(x, dynamo.Input{0}, 0)
	driven := m.Derive(x, dynamo.Input{30}, 0)
	assert.InDelta(t, 30, driven[0]-rest[0], 1e-9)
}

func TestGlucoseInputs(t *testing.T) {
	m := NewGlucose()
	x := dynamo.State{1, 1}

	base := m.Derive(x, dynamo.Input{0, 0}, 0)
	meal := m.Derive(x, dynamo.Input{1, 0}, 0)
	dose := m.Derive(x, dynamo.Input{0, 1}, 0)

	assert.InDelta(t, 1, meal[0]-base[0], 1e-12)
	assert.InDelta(t, 1, dose[1]-base[1], 1e-12)

	// type I: no insulin secretion
	require.NoError(t, m.SetParam("b", 0))
	assert.InDelta(t, 0, m.Derive(dynamo.State{5, 0}, nil, 0)[1], 1e-12)
}

func TestLineageFeedsProgenitors(t *testing.T) {
	m := NewLineage()
	dx := m.Derive(dynamo.State{1, 1, 1, 0, 0}, nil, 0)
	assert.InDelta(t, m.D3, dx[3], 1e-12)
	assert.InDelta(t, m.D4, dx[4], 1e-12)
}

func TestGoodwinSaturating(t *testing.T) {
	m := NewGoodwin()
	x := dynamo.State{0, 0, 2.5}
	linear := m.Derive(x, nil, 0)

	require.NoError(t, m.SetParam("saturating", 1))
	assert.Equal(t, 1.0, m.GetParams()["saturating"])
	sat := m.Derive(x, nil, 0)

	assert.InDelta(t, -0.25, linear[2], 1e-12)
	assert.InDelta(t, -0.1*2.5/2.6, sat[2], 1e-12)
}
