package models

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// Production is constant production with first-order decay:
//
//	dE/dt = p - k E
type Production struct {
	P  float64
	K  float64
	E0 float64
}

func NewProduction() *Production {
	return &Production{P: 1.0, K: 0.1, E0: 0}
}

func (m *Production) StateDim() int              { return 1 }
func (m *Production) InputDim() int              { return 0 }
func (m *Production) Labels() []string           { return []string{"E"} }
func (m *Production) DefaultState() dynamo.State { return dynamo.State{m.E0} }

func (m *Production) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	return dynamo.State{m.P - m.K*x[0]}
}

// Analytic is the exact solution p/k + (E0 - p/k) e^{-kt}.
func (m *Production) Analytic(t float64) float64 {
	eq := m.P / m.K
	return eq + (m.E0-eq)*math.Exp(-m.K*t)
}

func (m *Production) FixedPoints() []dynamo.State {
	if m.K == 0 {
		return nil
	}
	return []dynamo.State{{m.P / m.K}}
}

func (m *Production) params() paramSet {
	return paramSet{"p": &m.P, "k": &m.K, "e0": &m.E0}
}

func (m *Production) GetParams() map[string]float64         { return m.params().values() }
func (m *Production) SetParam(name string, v float64) error { return m.params().set(name, v) }
