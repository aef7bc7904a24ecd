package models

import "github.com/san-kum/biodyn/internal/dynamo"

// Haematopoiesis models long-term stem cells (L), short-term stem cells (S)
// and multipotent progenitors (M). Each compartment proliferates at rate p,
// differentiates into the next at rate d, and proliferation is optionally
// capped logistically by Lmax, Smax, Mmax (a cap of 0 disables it).
//
//	dL/dt = p1 L (1 - L/Lmax) - d1 L
//	dS/dt = d1 L + p2 S (1 - S/Smax) - d2 S
//	dM/dt = d2 S + p3 M (1 - M/Mmax) - d3 M
type Haematopoiesis struct {
	P1, P2, P3       float64
	D1, D2, D3       float64
	Lmax, Smax, Mmax float64
}

func NewHaematopoiesis() *Haematopoiesis {
	return &Haematopoiesis{
		P1: 0.009, P2: 0.042, P3: 4.0,
		D1: 0.009, D2: 0.045, D3: 4.014,
	}
}

// NewLogisticHaematopoiesis returns the variant with carrying capacities.
func NewLogisticHaematopoiesis() *Haematopoiesis {
	return &Haematopoiesis{
		P1: 0.02, P2: 0.06, P3: 4.01,
		D1: 0.01, D2: 0.05, D3: 4.0,
		Lmax: 5, Smax: 5, Mmax: 5,
	}
}

func (m *Haematopoiesis) StateDim() int              { return 3 }
func (m *Haematopoiesis) InputDim() int              { return 0 }
func (m *Haematopoiesis) Labels() []string           { return []string{"L", "S", "M"} }
func (m *Haematopoiesis) DefaultState() dynamo.State { return dynamo.State{1, 0, 0} }

func logistic(x, limit float64) float64 {
	if limit <= 0 {
		return 1
	}
	return 1 - x/limit
}

func (m *Haematopoiesis) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	l, s, mp := x[0], x[1], x[2]
	return dynamo.State{
		m.P1*l*logistic(l, m.Lmax) - m.D1*l,
		m.D1*l + m.P2*s*logistic(s, m.Smax) - m.D2*s,
		m.D2*s + m.P3*mp*logistic(mp, m.Mmax) - m.D3*mp,
	}
}

func (m *Haematopoiesis) params() paramSet {
	return paramSet{
		"p1": &m.P1, "p2": &m.P2, "p3": &m.P3,
		"d1": &m.D1, "d2": &m.D2, "d3": &m.D3,
		"lmax": &m.Lmax, "smax": &m.Smax, "mmax": &m.Mmax,
	}
}

func (m *Haematopoiesis) GetParams() map[string]float64         { return m.params().values() }
func (m *Haematopoiesis) SetParam(name string, v float64) error { return m.params().set(name, v) }

// Lineage extends the stem cell cascade with two committed progenitor
// pools fed by M: common lymphoid (Cl) and common myeloid (Cm).
//
//	dM/dt  = d2 S + (p3 - d3 - d4) M
//	dCl/dt = d3 M - d5 Cl
//	dCm/dt = d4 M - d6 Cm
type Lineage struct {
	P1, P2, P3     float64
	D1, D2, D3, D4 float64
	D5, D6         float64
}

func NewLineage() *Lineage {
	return &Lineage{
		P1: 0.009, P2: 0.042, P3: 4.0,
		D1: 0.009, D2: 0.045, D3: 0.022, D4: 3.992,
		D5: 0, D6: 0.5,
	}
}

func (m *Lineage) StateDim() int              { return 5 }
func (m *Lineage) InputDim() int              { return 0 }
func (m *Lineage) Labels() []string           { return []string{"L", "S", "M", "Cl", "Cm"} }
func (m *Lineage) DefaultState() dynamo.State { return dynamo.State{1, 0, 0, 0, 0} }

func (m *Lineage) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	l, s, mp, cl, cm := x[0], x[1], x[2], x[3], x[4]
	return dynamo.State{
		(m.P1 - m.D1) * l,
		m.D1*l + (m.P2-m.D2)*s,
		m.D2*s + (m.P3-m.D3-m.D4)*mp,
		m.D3*mp - m.D5*cl,
		m.D4*mp - m.D6*cm,
	}
}

func (m *Lineage) params() paramSet {
	return paramSet{
		"p1": &m.P1, "p2": &m.P2, "p3": &m.P3,
		"d1": &m.D1, "d2": &m.D2, "d3": &m.D3, "d4": &m.D4, "d5": &m.D5, "d6": &m.D6,
	}
}

func (m *Lineage) GetParams() map[string]float64         { return m.params().values() }
func (m *Lineage) SetParam(name string, v float64) error { return m.params().set(name, v) }
