package models

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/roots"
)

// Griffith is a positive feedback loop where protein y activates its own
// mRNA x cooperatively.
//
//	dx/dt = -a x + y
//	dy/dt = x^2 / (1 + x^2) - b y
type Griffith struct {
	A, B float64
}

func NewGriffith() *Griffith { return &Griffith{A: 0.8, B: 0.3} }

func (m *Griffith) StateDim() int              { return 2 }
func (m *Griffith) InputDim() int              { return 0 }
func (m *Griffith) Labels() []string           { return []string{"x", "y"} }
func (m *Griffith) DefaultState() dynamo.State { return dynamo.State{0.01, 0.8} }

func (m *Griffith) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	p, q := x[0], x[1]
	return dynamo.State{-m.A*p + q, p*p/(1+p*p) - m.B*q}
}

func (m *Griffith) Jacobian(x dynamo.State) [][]float64 {
	p := x[0]
	d := 1 + p*p
	return [][]float64{
		{-m.A, 1},
		{2 * p / (d * d), -m.B},
	}
}

// FixedPoints solves x (x^2 - x/(ab) + 1) = 0 with y = a x. The origin is
// always a fixed point; the quadratic adds two, one or none depending on
// the sign of 1 - 4a^2b^2.
func (m *Griffith) FixedPoints() []dynamo.State {
	out := []dynamo.State{{0, 0}}
	ab := m.A * m.B
	if ab == 0 {
		return out
	}
	for _, p := range roots.Quadratic(1, -1/ab, 1) {
		out = append(out, dynamo.State{p, m.A * p})
	}
	return out
}

func (m *Griffith) params() paramSet { return paramSet{"a": &m.A, "b": &m.B} }

func (m *Griffith) GetParams() map[string]float64         { return m.params().values() }
func (m *Griffith) SetParam(name string, v float64) error { return m.params().set(name, v) }

// ToggleSwitch is two mutually repressing genes.
//
//	dx/dt = a / (1 + y^2) - x
//	dy/dt = a / (1 + x^2) - y
type ToggleSwitch struct {
	A float64
}

func NewToggleSwitch() *ToggleSwitch { return &ToggleSwitch{A: 3.0} }

func (m *ToggleSwitch) StateDim() int              { return 2 }
func (m *ToggleSwitch) InputDim() int              { return 0 }
func (m *ToggleSwitch) Labels() []string           { return []string{"x", "y"} }
func (m *ToggleSwitch) DefaultState() dynamo.State { return dynamo.State{1.25, 1.25} }

func (m *ToggleSwitch) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	p, q := x[0], x[1]
	return dynamo.State{m.A/(1+q*q) - p, m.A/(1+p*p) - q}
}

func (m *ToggleSwitch) Jacobian(x dynamo.State) [][]float64 {
	p, q := x[0], x[1]
	dp, dq := 1+p*p, 1+q*q
	return [][]float64{
		{-1, -2 * m.A * q / (dq * dq)},
		{-2 * m.A * p / (dp * dp), -1},
	}
}

// FixedPoints factors the nullcline intersection as
// (x^3 + x - a)(x^2 - a x + 1) = 0. The cubic always has one real root, the
// symmetric state; for a > 2 the quadratic adds the two asymmetric states.
func (m *ToggleSwitch) FixedPoints() []dynamo.State {
	var out []dynamo.State
	for _, p := range roots.RealCubic(0, 1, -m.A) {
		out = append(out, dynamo.State{p, m.A / (1 + p*p)})
	}
	if m.A*m.A-4 > 0 {
		for _, p := range roots.Quadratic(1, -m.A, 1) {
			out = append(out, dynamo.State{p, m.A / (1 + p*p)})
		}
	}
	return out
}

func (m *ToggleSwitch) params() paramSet { return paramSet{"a": &m.A} }

func (m *ToggleSwitch) GetParams() map[string]float64         { return m.params().values() }
func (m *ToggleSwitch) SetParam(name string, v float64) error { return m.params().set(name, v) }

// Goodwin is the end-product repression loop: mRNA M, enzyme E and product P,
// where P represses transcription with Hill coefficient m. With Saturating
// set the product is cleared by Michaelis-Menten kinetics e P / (k + P)
// instead of linearly.
type Goodwin struct {
	V, D, Hill float64
	A, B, C    float64
	Dl, E, K   float64
	Saturating bool
}

func NewGoodwin() *Goodwin {
	return &Goodwin{V: 1, D: 1, Hill: 6.4, A: 0.1, B: 1, C: 0.1, Dl: 1, E: 0.1, K: 0.1}
}

func (m *Goodwin) StateDim() int              { return 3 }
func (m *Goodwin) InputDim() int              { return 0 }
func (m *Goodwin) Labels() []string           { return []string{"M", "E", "P"} }
func (m *Goodwin) DefaultState() dynamo.State { return dynamo.State{0, 0.2, 2.5} }

func (m *Goodwin) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	mr, en, p := x[0], x[1], x[2]
	clearance := m.E * p
	if m.Saturating {
		clearance = m.E * p / (m.K + p)
	}
	return dynamo.State{
		m.V/(m.D+math.Pow(math.Max(p, 0), m.Hill)) - m.A*mr,
		m.B*mr - m.C*en,
		m.Dl*en - clearance,
	}
}

func (m *Goodwin) GetParams() map[string]float64 {
	out := m.params().values()
	out["saturating"] = boolParam(m.Saturating)
	return out
}

func (m *Goodwin) SetParam(name string, v float64) error {
	if name == "saturating" {
		m.Saturating = v != 0
		return nil
	}
	return m.params().set(name, v)
}

func (m *Goodwin) params() paramSet {
	return paramSet{
		"v": &m.V, "d": &m.D, "m": &m.Hill,
		"a": &m.A, "b": &m.B, "c": &m.C,
		"dl": &m.Dl, "e": &m.E, "k": &m.K,
	}
}
