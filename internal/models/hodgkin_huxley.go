package models

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// HodgkinHuxley is the squid giant axon membrane model. Voltages are in mV,
// time in ms and currents in uA/cm^2. Input u[0] is the injected current.
type HodgkinHuxley struct {
	Cm  float64
	GNa float64
	GK  float64
	GL  float64
	ENa float64
	EK  float64
	EL  float64
	V0  float64
}

func NewHodgkinHuxley() *HodgkinHuxley {
	return &HodgkinHuxley{
		Cm:  1.0,
		GNa: 120.0,
		GK:  36.0,
		GL:  0.3,
		ENa: 50.0,
		EK:  -77.0,
		EL:  -54.387,
		V0:  -65.0,
	}
}

func (m *HodgkinHuxley) StateDim() int    { return 4 }
func (m *HodgkinHuxley) InputDim() int    { return 1 }
func (m *HodgkinHuxley) Labels() []string { return []string{"V", "m", "h", "n"} }

// DefaultState rests at V0 with every gate at its steady-state value.
func (m *HodgkinHuxley) DefaultState() dynamo.State {
	v := m.V0
	return dynamo.State{
		v,
		steady(alphaM(v), betaM(v)),
		steady(alphaH(v), betaH(v)),
		steady(alphaN(v), betaN(v)),
	}
}

func steady(a, b float64) float64 { return a / (a + b) }

// vtrap evaluates x / (1 - exp(-x/y)), which tends to y as x -> 0.
func vtrap(x, y float64) float64 {
	if math.Abs(x/y) < 1e-6 {
		return y * (1 + x/y/2)
	}
	return x / (1 - math.Exp(-x/y))
}

func alphaM(v float64) float64 { return 0.1 * vtrap(v+40, 10) }
func betaM(v float64) float64  { return 4.0 * math.Exp(-(v+65)/18) }
func alphaH(v float64) float64 { return 0.07 * math.Exp(-(v+65)/20) }
func betaH(v float64) float64  { return 1.0 / (1.0 + math.Exp(-(v+35)/10)) }
func alphaN(v float64) float64 { return 0.01 * vtrap(v+55, 10) }
func betaN(v float64) float64  { return 0.125 * math.Exp(-(v+65)/80) }

// Currents returns the sodium, potassium and leak currents at x.
func (m *HodgkinHuxley) Currents(x dynamo.State) (na, k, leak float64) {
	v, gm, gh, gn := x[0], x[1], x[2], x[3]
	na = m.GNa * gm * gm * gm * gh * (v - m.ENa)
	k = m.GK * gn * gn * gn * gn * (v - m.EK)
	leak = m.GL * (v - m.EL)
	return na, k, leak
}

func (m *HodgkinHuxley) Derive(x dynamo.State, u dynamo.Input, _ float64) dynamo.State {
	v, gm, gh, gn := x[0], x[1], x[2], x[3]
	na, k, leak := m.Currents(x)
	return dynamo.State{
		(input(u, 0) - na - k - leak) / m.Cm,
		alphaM(v)*(1-gm) - betaM(v)*gm,
		alphaH(v)*(1-gh) - betaH(v)*gh,
		alphaN(v)*(1-gn) - betaN(v)*gn,
	}
}

func (m *HodgkinHuxley) params() paramSet {
	return paramSet{
		"cm": &m.Cm, "gna": &m.GNa, "gk": &m.GK, "gl": &m.GL,
		"ena": &m.ENa, "ek": &m.EK, "el": &m.EL, "v0": &m.V0,
	}
}

func (m *HodgkinHuxley) GetParams() map[string]float64         { return m.params().values() }
func (m *HodgkinHuxley) SetParam(name string, v float64) error { return m.params().set(name, v) }
