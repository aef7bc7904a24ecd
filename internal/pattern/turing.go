package pattern

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/grid"
)

var seedBlock = grid.Rect{R0: 47, R1: 52, C0: 47, C1: 52}

// Turing is a linear activator (A) inhibitor (I) pair:
//
//	dA/dt = da Lap A + aa A + ia I + c
//	dI/dt = di Lap I + ai A + ii I
//
// Without bounds the unstable modes grow without limit, so both fields are
// clipped to [0, AMax] and [0, IMax] after each step. A bound <= 0 disables
// that clip. Source c is applied on the seed block.
type Turing struct {
	lattice
	DA, DI     float64
	AA, IA     float64
	AI, II     float64
	Source     float64
	AMax, IMax float64
}

func NewTuring() *Turing {
	return &Turing{
		lattice: newLattice(100, "A", "I"),
		DA:      20, DI: 0.1,
		AA:      6, IA: -30,
		AI:      0.5, II: -2,
		AMax:    2, IMax: 2,
	}
}

func (m *Turing) DefaultState() dynamo.State {
	x := m.zero()
	m.field(x, 0).FillRect(m.rect(seedBlock), 1)
	return x
}

func (m *Turing) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	a, i := m.field(x, 0), m.field(x, 1)
	da, di := m.field(dx, 0), m.field(dx, 1)

	grid.Laplacian(da, a, m.dx)
	grid.Laplacian(di, i, m.dx)
	for k := range da.Data {
		da.Data[k] = m.DA*da.Data[k] + m.AA*a.Data[k] + m.IA*i.Data[k]
		di.Data[k] = m.DI*di.Data[k] + m.AI*a.Data[k] + m.II*i.Data[k]
	}
	if m.Source != 0 {
		da.AddRect(m.rect(seedBlock), m.Source)
	}
	return dx
}

func (m *Turing) Project(x dynamo.State) {
	if m.AMax > 0 {
		m.field(x, 0).Clip(0, m.AMax)
	}
	if m.IMax > 0 {
		m.field(x, 1).Clip(0, m.IMax)
	}
}

// Reaction is the Jacobian of the reaction terms about the homogeneous state.
func (m *Turing) Reaction() [][]float64 {
	return [][]float64{{m.AA, m.IA}, {m.AI, m.II}}
}

// TuringUnstable reports whether the reaction matrix {{aa, ia}, {ai, ii}}
// is stable on its own but destabilised by diffusion with coefficients da, di.
func TuringUnstable(aa, ia, ai, ii, da, di float64) bool {
	tr, det := aa+ii, aa*ii-ia*ai
	if tr >= 0 || det <= 0 {
		return false
	}
	h := di*aa + da*ii
	return h > 0 && h*h > 4*da*di*det
}

func (m *Turing) params() latticeParams {
	return m.lattice.params(map[string]*float64{
		"da": &m.DA, "di": &m.DI,
		"aa": &m.AA, "ia": &m.IA, "ai": &m.AI, "ii": &m.II,
		"source": &m.Source, "amax": &m.AMax, "imax": &m.IMax,
	})
}

func (m *Turing) GetParams() map[string]float64         { return m.params().values() }
func (m *Turing) SetParam(name string, v float64) error { return m.params().set(name, v) }

// SaturatingTuring bounds the reaction production rather than the state:
//
//	Ap = clip(c1 A + c2 I + c3, 0, apMax)
//	Ip = clip(c4 A + c5 I + c6, 0, ipMax)
//	dA/dt = da Lap A + Ap - ka A
//	dI/dt = di Lap I + Ip - ki I
//
// C3 selects the pattern: 0.01 gives spots, 0.1 labyrinths, 0.2 a mesh.
type SaturatingTuring struct {
	lattice
	DA, DI       float64
	KA, KI       float64
	C1, C2, C3   float64
	C4, C5, C6   float64
	APMax, IPMax float64
}

var turingPatches = []grid.Rect{
	{R0: 45, R1: 55, C0: 25, C1: 35},
	{R0: 75, R1: 80, C0: 65, C1: 70},
	{R0: 25, R1: 30, C0: 85, C1: 90},
}

func NewSaturatingTuring() *SaturatingTuring {
	return &SaturatingTuring{
		lattice: newLattice(100, "A", "I"),
		DA:      0.02, DI: 0.5,
		KA:      0.03, KI: 0.06,
		C1:      0.08, C2: -0.08, C3: 0.1,
		C4:      0.11, C5: 0, C6: -0.15,
		APMax:   0.2, IPMax: 0.5,
	}
}

func (m *SaturatingTuring) DefaultState() dynamo.State {
	x := m.zero()
	a := m.field(x, 0)
	for _, r := range turingPatches {
		a.FillRect(m.rect(r), 1)
	}
	return x
}

func (m *SaturatingTuring) Derive(x dynamo.State, _ dynamo.Input, _ float64) dynamo.State {
	dx := m.zero()
	a, i := m.field(x, 0), m.field(x, 1)
	da, di := m.field(dx, 0), m.field(dx, 1)

	grid.Laplacian(da, a, m.dx)
	grid.Laplacian(di, i, m.dx)
	for k := range da.Data {
		ap := clip(m.C1*a.Data[k]+m.C2*i.Data[k]+m.C3, 0, m.APMax)
		ip := clip(m.C4*a.Data[k]+m.C5*i.Data[k]+m.C6, 0, m.IPMax)
		da.Data[k] = m.DA*da.Data[k] + ap - m.KA*a.Data[k]
		di.Data[k] = m.DI*di.Data[k] + ip - m.KI*i.Data[k]
	}
	return dx
}

func (m *SaturatingTuring) params() latticeParams {
	return m.lattice.params(map[string]*float64{
		"da": &m.DA, "di": &m.DI, "ka": &m.KA, "ki": &m.KI,
		"c1": &m.C1, "c2": &m.C2, "c3": &m.C3,
		"c4": &m.C4, "c5": &m.C5, "c6": &m.C6,
		"apmax": &m.APMax, "ipmax": &m.IPMax,
	})
}

func (m *SaturatingTuring) GetParams() map[string]float64         { return m.params().values() }
func (m *SaturatingTuring) SetParam(name string, v float64) error { return m.params().set(name, v) }

func clip(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
