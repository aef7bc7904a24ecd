package models

import "github.com/san-kum/biodyn/internal/dynamo"

// DampedOscillator is v'' + k v' + v = 0 in Lienard form.
//
//	dv/dt = k (w - v)
//	dw/dt = -v / k
type DampedOscillator struct {
	K float64
}

func NewDampedOscillator() *DampedOscillator { return &DampedOscillator{K: 0.1} }

func (m *DampedOscillator) StateDim() int              { return 2 }
func (m *DampedOscillator) InputDim() int              { return 0 }
func (m *DampedOscillator) Labels() []string           { return []string{"v", "w"} }
func (m *DampedOscillator) DefaultState() dynamo.State { return dynamo.State{1, 0} }

func (m *DampedOscillator) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	return dynamo.State{m.K * (x[1] - x[0]), -x[0] / m.K}
}

func (m *DampedOscillator) Jacobian(dynamo.State) [][]float64 {
	return [][]float64{{-m.K, m.K}, {-1 / m.K, 0}}
}

func (m *DampedOscillator) FixedPoints() []dynamo.State { return []dynamo.State{{0, 0}} }

func (m *DampedOscillator) params() paramSet { return paramSet{"k": &m.K} }

func (m *DampedOscillator) GetParams() map[string]float64         { return m.params().values() }
func (m *DampedOscillator) SetParam(name string, v float64) error { return m.params().set(name, v) }

// BVP is the Bonhoeffer-van der Pol oscillator v'' + c (v^2 - 1) v' + v = 0,
// the unforced ancestor of FitzHugh-Nagumo.
//
//	dv/dt = c (w - v^3/3 + v)
//	dw/dt = -v / c
type BVP struct {
	C float64
}

func NewBVP() *BVP { return &BVP{C: 5.0} }

func (m *BVP) StateDim() int              { return 2 }
func (m *BVP) InputDim() int              { return 0 }
func (m *BVP) Labels() []string           { return []string{"v", "w"} }
func (m *BVP) DefaultState() dynamo.State { return dynamo.State{1, 0} }

func (m *BVP) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	v, w := x[0], x[1]
	return dynamo.State{m.C * (w - v*v*v/3 + v), -v / m.C}
}

func (m *BVP) Jacobian(x dynamo.State) [][]float64 {
	v := x[0]
	return [][]float64{{m.C * (1 - v*v), m.C}, {-1 / m.C, 0}}
}

func (m *BVP) FixedPoints() []dynamo.State { return []dynamo.State{{0, 0}} }

func (m *BVP) params() paramSet { return paramSet{"c": &m.C} }

func (m *BVP) GetParams() map[string]float64         { return m.params().values() }
func (m *BVP) SetParam(name string, v float64) error { return m.params().set(name, v) }

// Romance is Strogatz's Romeo and Juliet: Romeo's love x falls when Juliet
// loves him and Juliet's love y follows Romeo's. Orbits are circles.
//
//	dx/dt = -y
//	dy/dt =  x
type Romance struct{}

func NewRomance() *Romance { return &Romance{} }

func (m *Romance) StateDim() int              { return 2 }
func (m *Romance) InputDim() int              { return 0 }
func (m *Romance) Labels() []string           { return []string{"romeo", "juliet"} }
func (m *Romance) DefaultState() dynamo.State { return dynamo.State{1, 0} }

func (m *Romance) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	return dynamo.State{-x[1], x[0]}
}

func (m *Romance) Jacobian(dynamo.State) [][]float64 { return [][]float64{{0, -1}, {1, 0}} }
func (m *Romance) FixedPoints() []dynamo.State       { return []dynamo.State{{0, 0}} }
func (m *Romance) Invariant(x dynamo.State) float64  { return x[0]*x[0] + x[1]*x[1] }

func (m *Romance) GetParams() map[string]float64 { return map[string]float64{} }
func (m *Romance) SetParam(name string, _ float64) error {
	return paramSet{}.set(name, 0)
}
