package pattern

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/grid"
)

// Diffusion is free diffusion dE/dt = d Lap E from a square initial patch.
// With Noise > 0 the patch is replaced by Gaussian noise of that amplitude
// in a band at the top edge, drawn from Seed.
type Diffusion struct {
	lattice
	D     float64
	Noise float64
	Seed  float64
}

func NewDiffusion() *Diffusion {
	return &Diffusion{lattice: newLattice(100, "E"), D: 1}
}

func (m *Diffusion) DefaultState() dynamo.State {
	x := m.zero()
	e := m.field(x, 0)
	if m.Noise > 0 {
		rng := rand.New(rand.NewPCG(uint64(m.Seed), 0x9e3779b97f4a7c15))
		band := m.rect(grid.Rect{R0: 0, R1: 20, C0: 40, C1: 60})
		for i := band.R0; i < band.R1; i++ {
			for j := band.C0; j < band.C1; j++ {
				e.Set(i, j, m.Noise*rng.NormFloat64())
			}
		}
		return x
	}
	e.FillRect(m.rect(grid.Rect{R0: 40, R1: 60, C0: 40, C1: 60}), 1)
	return x
}

func (m *Diffusion) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	out := m.field(dx, 0)
	grid.Laplacian(out, m.field(x, 0), m.dx)
	scale(out, m.D)
	return dx
}

// Invariant is the total amount of E, which zero-flux diffusion conserves.
func (m *Diffusion) Invariant(x dynamo.State) float64 { return m.field(x, 0).Sum() }

func (m *Diffusion) params() latticeParams {
	return m.lattice.params(map[string]*float64{"d": &m.D, "noise": &m.Noise, "seed": &m.Seed})
}

func (m *Diffusion) GetParams() map[string]float64         { return m.params().values() }
func (m *Diffusion) SetParam(name string, v float64) error { return m.params().set(name, v) }

func scale(f grid.Field, k float64) {
	for i := range f.Data {
		f.Data[i] *= k
	}
}

// morphogen accumulates d Lap U - k U + source for one diffusing field.
func (l *lattice) morphogen(dst, u grid.Field, d, k float64) {
	grid.Laplacian(dst, u, l.dx)
	for i, v := range u.Data {
		dst.Data[i] = d*dst.Data[i] - k*v
	}
}

// dppStripe is the Dpp-producing stripe along the anterior-posterior
// compartment boundary.
var dppStripe = grid.Rect{R0: 0, R1: 100, C0: 47, C1: 53}

// Dpp is a morphogen B secreted from a stripe, diffusing and degrading:
//
//	dB/dt = d Lap B - k B + c
type Dpp struct {
	lattice
	D, K, C float64
}

func NewDpp() *Dpp {
	return &Dpp{lattice: newLattice(100, "B"), D: 1, K: 0.1, C: 0.5}
}

func (m *Dpp) DefaultState() dynamo.State { return m.zero() }

func (m *Dpp) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	db := m.field(dx, 0)
	m.morphogen(db, m.field(x, 0), m.D, m.K)
	db.AddRect(m.rect(dppStripe), m.C)
	return dx
}

// DecayLength is the length scale sqrt(d/k) of the steady gradient away
// from the stripe, in lattice units.
func (m *Dpp) DecayLength() float64 { return math.Sqrt(m.D/m.K) / m.dx }

func (m *Dpp) params() latticeParams {
	return m.lattice.params(map[string]*float64{"d": &m.D, "k": &m.K, "c": &m.C})
}

func (m *Dpp) GetParams() map[string]float64         { return m.params().values() }
func (m *Dpp) SetParam(name string, v float64) error { return m.params().set(name, v) }

// DppSal adds the Spalt readout S, induced by B and not diffusing:
//
//	dS/dt = a B - k S
type DppSal struct {
	lattice
	D, K, C, A float64
}

func NewDppSal() *DppSal {
	return &DppSal{lattice: newLattice(100, "B", "S"), D: 1, K: 0.1, C: 0.5, A: 1}
}

func (m *DppSal) DefaultState() dynamo.State { return m.zero() }

func (m *DppSal) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	b, s := m.field(x, 0), m.field(x, 1)
	db, ds := m.field(dx, 0), m.field(dx, 1)

	m.morphogen(db, b, m.D, m.K)
	db.AddRect(m.rect(dppStripe), m.C)
	for i := range ds.Data {
		ds.Data[i] = m.A*b.Data[i] - m.K*s.Data[i]
	}
	return dx
}

func (m *DppSal) params() latticeParams {
	return m.lattice.params(map[string]*float64{"d": &m.D, "k": &m.K, "c": &m.C, "a": &m.A})
}

func (m *DppSal) GetParams() map[string]float64         { return m.params().values() }
func (m *DppSal) SetParam(name string, v float64) error { return m.params().set(name, v) }

var (
	// Dpp from the posterior half of the stripe, Wg from the anterior half.
	dppSource = grid.Rect{R0: 50, R1: 99, C0: 40, C1: 59}
	wgSource  = grid.Rect{R0: 0, R1: 49, C0: 40, C1: 59}

	// activated Dpp receptor clones
	receptorPatches = []grid.Rect{
		{R0: 30, R1: 35, C0: 2, C1: 7},
		{R0: 30, R1: 35, C0: 22, C1: 27},
		{R0: 30, R1: 35, C0: 42, C1: 47},
		{R0: 30, R1: 35, C0: 62, C1: 67},
	}
)

// DppWg models Dpp (B) and Wingless (W) secreted from orthogonal sources and
// a target D (Distal-less) induced where both signals overlap. Receptor > 0
// adds clones of constitutively active Dpp receptor R of that strength.
//
//	dB/dt = d Lap B - k B + cb
//	dW/dt = d Lap W - k W + cw
//	dD/dt = a (B + R) W - k D
type DppWg struct {
	lattice
	D, K, A  float64
	CB, CW   float64
	Receptor float64
}

func NewDppWg() *DppWg {
	return &DppWg{lattice: newLattice(100, "B", "W", "D"), D: 1, K: 0.1, A: 1, CB: 0.5, CW: 0.5}
}

func (m *DppWg) DefaultState() dynamo.State { return m.zero() }

func (m *DppWg) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	b, w, d := m.field(x, 0), m.field(x, 1), m.field(x, 2)
	db, dw, dd := m.field(dx, 0), m.field(dx, 1), m.field(dx, 2)

	m.morphogen(db, b, m.D, m.K)
	db.AddRect(m.rect(dppSource), m.CB)
	m.morphogen(dw, w, m.D, m.K)
	dw.AddRect(m.rect(wgSource), m.CW)

	// R is folded into dd first, then scaled by W with B
	if m.Receptor != 0 {
		for _, r := range receptorPatches {
			dd.AddRect(m.rect(r), m.Receptor)
		}
	}
	for i := range dd.Data {
		dd.Data[i] = m.A*(b.Data[i]+dd.Data[i])*w.Data[i] - m.K*d.Data[i]
	}
	return dx
}

func (m *DppWg) params() latticeParams {
	return m.lattice.params(map[string]*float64{
		"d": &m.D, "k": &m.K, "a": &m.A, "cb": &m.CB, "cw": &m.CW, "receptor": &m.Receptor,
	})
}

func (m *DppWg) GetParams() map[string]float64         { return m.params().values() }
func (m *DppWg) SetParam(name string, v float64) error { return m.params().set(name, v) }
