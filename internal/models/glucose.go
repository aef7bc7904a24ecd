package models

import "github.com/san-kum/biodyn/internal/dynamo"

// Glucose is the minimal glucose-insulin feedback loop. Input u[0] is the
// dietary glucose intake and u[1] the administered insulin.
//
//	dG/dt = u0 - k1 (1 + a I) G
//	dI/dt = b G - k2 I + u1
//
// a = 0 removes insulin sensitivity (type II diabetes), b = 0 removes
// insulin secretion (type I).
type Glucose struct {
	A, B   float64
	K1, K2 float64
}

func NewGlucose() *Glucose {
	return &Glucose{A: 0, B: 1, K1: 0.1, K2: 0.1}
}

func (m *Glucose) StateDim() int              { return 2 }
func (m *Glucose) InputDim() int              { return 2 }
func (m *Glucose) Labels() []string           { return []string{"G", "I"} }
func (m *Glucose) DefaultState() dynamo.State { return dynamo.State{1, 1} }

func (m *Glucose) Derive(x dynamo.State, u dynamo.Input, _ float64) dynamo.State {
	g, ins := x[0], x[1]
	diet, dose := input(u, 0), input(u, 1)
	return dynamo.State{
		diet - m.K1*(1+m.A*ins)*g,
		m.B*g - m.K2*ins + dose,
	}
}

func (m *Glucose) Jacobian(x dynamo.State) [][]float64 {
	g, ins := x[0], x[1]
	return [][]float64{
		{-m.K1 * (1 + m.A*ins), -m.K1 * m.A * g},
		{m.B, -m.K2},
	}
}

func (m *Glucose) params() paramSet {
	return paramSet{"a": &m.A, "b": &m.B, "k1": &m.K1, "k2": &m.K2}
}

func (m *Glucose) GetParams() map[string]float64         { return m.params().values() }
func (m *Glucose) SetParam(name string, v float64) error { return m.params().set(name, v) }

// input reads u[i], treating a missing component as zero drive.
func input(u dynamo.Input, i int) float64 {
	if i < len(u) {
		return u[i]
	}
	return 0
}
