package models

import (
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/roots"
)

// FitzHughNagumo reduces the Hodgkin-Huxley membrane to a fast voltage V
// and a slow recovery variable W.
//
//	dV/dt = c (V - V^3/3 - W + I)
//	dW/dt = (V - b W + a) / c
type FitzHughNagumo struct {
	I, A, B, C float64
}

func NewFitzHughNagumo() *FitzHughNagumo {
	return &FitzHughNagumo{I: 1.0, A: 0.7, B: 0.8, C: 10}
}

func (m *FitzHughNagumo) StateDim() int              { return 2 }
func (m *FitzHughNagumo) InputDim() int              { return 0 }
func (m *FitzHughNagumo) Labels() []string           { return []string{"V", "W"} }
func (m *FitzHughNagumo) DefaultState() dynamo.State { return dynamo.State{0, 0} }

func (m *FitzHughNagumo) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	v, w := x[0], x[1]
	return dynamo.State{
		m.C * (v - v*v*v/3 - w + m.I),
		(v - m.B*w + m.A) / m.C,
	}
}

func (m *FitzHughNagumo) Jacobian(x dynamo.State) [][]float64 {
	v := x[0]
	return [][]float64{
		{m.C * (1 - v*v), -m.C},
		{1 / m.C, -m.B / m.C},
	}
}

// FixedPoints intersects the cubic V-nullcline with the linear W-nullcline.
// Eliminating W gives V^3 + 3(1/b - 1) V + 3(a/b - I) = 0.
func (m *FitzHughNagumo) FixedPoints() []dynamo.State {
	vs := roots.RealCubic(0, 3*(1/m.B-1), 3*(m.A/m.B-m.I))
	out := make([]dynamo.State, 0, len(vs))
	for _, v := range vs {
		out = append(out, dynamo.State{v, (v + m.A) / m.B})
	}
	return out
}

func (m *FitzHughNagumo) params() paramSet {
	return paramSet{"i": &m.I, "a": &m.A, "b": &m.B, "c": &m.C}
}

func (m *FitzHughNagumo) GetParams() map[string]float64         { return m.params().values() }
func (m *FitzHughNagumo) SetParam(name string, v float64) error { return m.params().set(name, v) }
