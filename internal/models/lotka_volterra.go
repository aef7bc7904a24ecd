package models

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// LotkaVolterra is the classical predator-prey model with prey X and
// predator Y.
//
//	dX/dt = a X - b X Y
//	dY/dt = c X Y - d Y
type LotkaVolterra struct {
	A, B, C, D float64
	X0, Y0     float64
}

func NewLotkaVolterra() *LotkaVolterra {
	return &LotkaVolterra{A: 1, B: 0.2, C: 0.1, D: 1, X0: 30, Y0: 10}
}

func (m *LotkaVolterra) StateDim() int              { return 2 }
func (m *LotkaVolterra) InputDim() int              { return 0 }
func (m *LotkaVolterra) Labels() []string           { return []string{"X", "Y"} }
func (m *LotkaVolterra) DefaultState() dynamo.State { return dynamo.State{m.X0, m.Y0} }

func (m *LotkaVolterra) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	prey, pred := x[0], x[1]
	return dynamo.State{
		m.A*prey - m.B*prey*pred,
		m.C*prey*pred - m.D*pred,
	}
}

func (m *LotkaVolterra) Jacobian(x dynamo.State) [][]float64 {
	prey, pred := x[0], x[1]
	return [][]float64{
		{m.A - m.B*pred, -m.B * prey},
		{m.C * pred, m.C*prey - m.D},
	}
}

func (m *LotkaVolterra) FixedPoints() []dynamo.State {
	return []dynamo.State{{0, 0}, {m.D / m.C, m.A / m.B}}
}

// Invariant is the first integral c X - d ln X + b Y - a ln Y, constant
// along every orbit in the positive quadrant.
func (m *LotkaVolterra) Invariant(x dynamo.State) float64 {
	prey, pred := x[0], x[1]
	if prey <= 0 || pred <= 0 {
		return math.NaN()
	}
	return m.C*prey - m.D*math.Log(prey) + m.B*pred - m.A*math.Log(pred)
}

func (m *LotkaVolterra) params() paramSet {
	return paramSet{"a": &m.A, "b": &m.B, "c": &m.C, "d": &m.D, "x0": &m.X0, "y0": &m.Y0}
}

func (m *LotkaVolterra) GetParams() map[string]float64         { return m.params().values() }
func (m *LotkaVolterra) SetParam(name string, v float64) error { return m.params().set(name, v) }
