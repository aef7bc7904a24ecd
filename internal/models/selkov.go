package models

import "github.com/san-kum/biodyn/internal/dynamo"

// Selkov is the glycolysis oscillator with ADP x and F6P y. It undergoes a
// Hopf bifurcation as (a, b) cross the curve where the trace of the Jacobian
// at its unique fixed point vanishes.
//
//	dx/dt = -x + a y + x^2 y
//	dy/dt = b - a y - x^2 y
type Selkov struct {
	A, B float64
}

func NewSelkov() *Selkov { return &Selkov{A: 0.01, B: 0.3} }

func (m *Selkov) StateDim() int              { return 2 }
func (m *Selkov) InputDim() int              { return 0 }
func (m *Selkov) Labels() []string           { return []string{"x", "y"} }
func (m *Selkov) DefaultState() dynamo.State { return dynamo.State{0.4, 0.1} }

func (m *Selkov) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	p, q := x[0], x[1]
	return dynamo.State{-p + m.A*q + p*p*q, m.B - m.A*q - p*p*q}
}

func (m *Selkov) Jacobian(x dynamo.State) [][]float64 {
	p, q := x[0], x[1]
	return [][]float64{
		{-1 + 2*p*q, m.A + p*p},
		{-2 * p * q, -(m.A + p*p)},
	}
}

// FixedPoints returns (b, b/(a + b^2)), or the origin when a = b = 0.
func (m *Selkov) FixedPoints() []dynamo.State {
	if m.A*m.A+m.B*m.B == 0 {
		return []dynamo.State{{0, 0}}
	}
	return []dynamo.State{{m.B, m.B / (m.A + m.B*m.B)}}
}

func (m *Selkov) params() paramSet { return paramSet{"a": &m.A, "b": &m.B} }

func (m *Selkov) GetParams() map[string]float64         { return m.params().values() }
func (m *Selkov) SetParam(name string, v float64) error { return m.params().set(name, v) }
