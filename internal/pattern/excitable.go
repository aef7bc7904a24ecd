package pattern

import (
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/grid"
)

// pacemaker is the sinoatrial node, the only cells receiving current.
var pacemaker = grid.Rect{R0: 49, R1: 51, C0: 49, C1: 51}

// Heartbeat is FitzHugh-Nagumo tissue with diffusing membrane potential,
// paced by current I at the centre:
//
//	dV/dt = c (V - V^3/3 - W + I) + d Lap V
//	dW/dt = (V - b W + a) / c
type Heartbeat struct {
	lattice
	D, A, B, C float64
	I          float64
}

func NewHeartbeat() *Heartbeat {
	return &Heartbeat{lattice: newLattice(100, "V", "W"), D: 1, A: 0.7, B: 0.8, C: 10, I: 1}
}

func (m *Heartbeat) DefaultState() dynamo.State { return m.zero() }

func (m *Heartbeat) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	v, w := m.field(x, 0), m.field(x, 1)
	dv, dw := m.field(dx, 0), m.field(dx, 1)

	// dw holds the current until the recovery update overwrites it
	dw.FillRect(m.rect(pacemaker), m.I)
	grid.Laplacian(dv, v, m.dx)
	for k := range dv.Data {
		vk, wk := v.Data[k], w.Data[k]
		dv.Data[k] = m.C*(vk-vk*vk*vk/3-wk+dw.Data[k]) + m.D*dv.Data[k]
		dw.Data[k] = (vk - m.B*wk + m.A) / m.C
	}
	return dx
}

func (m *Heartbeat) params() latticeParams {
	return m.lattice.params(map[string]*float64{"d": &m.D, "a": &m.A, "b": &m.B, "c": &m.C, "i": &m.I})
}

func (m *Heartbeat) GetParams() map[string]float64         { return m.params().values() }
func (m *Heartbeat) SetParam(name string, v float64) error { return m.params().set(name, v) }

// Proneural is the two-variable proneural wave. A is the degree of
// differentiation (0 undifferentiated, 1 complete) and E the EGF signal
// released by differentiating cells:
//
//	dA/dt = ea (1 - A) E
//	dE/dt = de Lap E - ke E + ae A (1 - A)
type Proneural struct {
	lattice
	EA, DE, KE, AE float64
	A0             float64
}

func NewProneural() *Proneural {
	return &Proneural{lattice: newLattice(25, "A", "E"), EA: 10, DE: 1, KE: 1, AE: 1, A0: 0.5}
}

// DefaultState seeds the first column, where the wave starts.
func (m *Proneural) DefaultState() dynamo.State {
	x := m.zero()
	m.field(x, 0).FillRect(grid.Rect{R0: 0, R1: m.N, C0: 0, C1: 1}, m.A0)
	return x
}

func (m *Proneural) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	a, e := m.field(x, 0), m.field(x, 1)
	da, de := m.field(dx, 0), m.field(dx, 1)

	m.morphogen(de, e, m.DE, m.KE)
	for k := range da.Data {
		ak := a.Data[k]
		da.Data[k] = m.EA * (1 - ak) * e.Data[k]
		de.Data[k] += m.AE * ak * (1 - ak)
	}
	return dx
}

func (m *Proneural) params() latticeParams {
	return m.lattice.params(map[string]*float64{
		"ea": &m.EA, "de": &m.DE, "ke": &m.KE, "ae": &m.AE, "a0": &m.A0,
	})
}

func (m *Proneural) GetParams() map[string]float64         { return m.params().values() }
func (m *Proneural) SetParam(name string, v float64) error { return m.params().set(name, v) }

// egfClone is the mutant clone unable to release EGF.
var egfClone = grid.Rect{R0: 5, R1: 20, C0: 5, C1: 20}

// Proneural4 adds lateral inhibition by Delta (D) and Notch (N). Notch is
// trans-activated by Delta in the four neighbouring cells and cis-inhibited
// by Delta in the same cell, and it opposes EGF in driving differentiation:
//
//	dA/dt = ea (1 - A) max(E - N, 0)
//	dE/dt = de Lap E - ke E + ae A (1 - A) m
//	dD/dt = -kd D + ad A (1 - A)
//	dN/dt = -kn N + dn sum(D neighbours) - dc D
//
// m is 1 outside the EGF mutant clone and 1 - Mutant inside it.
type Proneural4 struct {
	lattice
	EA, DE, KE, AE float64
	KD, AD         float64
	KN, DN, DC     float64
	A0             float64
	Mutant         float64
}

func NewProneural4() *Proneural4 {
	return &Proneural4{
		lattice: newLattice(25, "A", "E", "D", "N"),
		EA:      10, DE: 1, KE: 1, AE: 1,
		KD:      1, AD: 1,
		KN:      1, DN: 0.25, DC: 0.25,
		A0:      0.5,
	}
}

func (m *Proneural4) DefaultState() dynamo.State {
	x := m.zero()
	m.field(x, 0).FillRect(grid.Rect{R0: 0, R1: m.N, C0: 0, C1: 1}, m.A0)
	return x
}

func (m *Proneural4) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	a, e, d, n := m.field(x, 0), m.field(x, 1), m.field(x, 2), m.field(x, 3)
	da, de, dd, dn := m.field(dx, 0), m.field(dx, 1), m.field(dx, 2), m.field(dx, 3)

	m.morphogen(de, e, m.DE, m.KE)
	grid.NeighborSum(dn, d)

	// da holds the EGF release mask until A is updated
	da.FillRect(grid.Rect{R0: 0, R1: m.N, C0: 0, C1: m.N}, 1)
	if m.Mutant != 0 {
		da.FillRect(m.rect(egfClone), 1-m.Mutant)
	}

	for k := range da.Data {
		ak := a.Data[k]
		growth := ak * (1 - ak)
		de.Data[k] += m.AE * growth * da.Data[k]
		da.Data[k] = m.EA * (1 - ak) * max(e.Data[k]-n.Data[k], 0)
		dd.Data[k] = -m.KD*d.Data[k] + m.AD*growth
		dn.Data[k] = -m.KN*n.Data[k] + m.DN*dn.Data[k] - m.DC*d.Data[k]
	}
	return dx
}

func (m *Proneural4) params() latticeParams {
	return m.lattice.params(map[string]*float64{
		"ea": &m.EA, "de": &m.DE, "ke": &m.KE, "ae": &m.AE,
		"kd": &m.KD, "ad": &m.AD, "kn": &m.KN, "dn": &m.DN, "dc": &m.DC,
		"a0": &m.A0, "mutant": &m.Mutant,
	})
}

func (m *Proneural4) GetParams() map[string]float64         { return m.params().values() }
func (m *Proneural4) SetParam(name string, v float64) error { return m.params().set(name, v) }
