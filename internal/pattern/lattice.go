package pattern

import (
	"fmt"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/grid"
)

// Lattice is a system laid out as one or more square fields.
type Lattice interface {
	dynamo.System
	Shape() (nx, ny int)
	Fields() []string
}

// Frame returns a view of field k of state x.
func Frame(l Lattice, x dynamo.State, k int) grid.Field {
	nx, ny := l.Shape()
	cells := nx * ny
	return grid.View(x[k*cells:(k+1)*cells], nx, ny)
}

// FieldIndex looks a field up by name.
func FieldIndex(l Lattice, name string) (int, error) {
	for i, f := range l.Fields() {
		if f == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("pattern: no field %q in %v", name, l.Fields())
}

// lattice carries the layout shared by every model. Regions are drawn on a
// ref x ref lattice and rescaled when N differs.
type lattice struct {
	N      int
	ref    int
	dx     float64
	fields []string
}

func newLattice(n int, fields ...string) lattice {
	return lattice{N: n, ref: n, dx: 1, fields: fields}
}

func (l *lattice) Shape() (int, int) { return l.N, l.N }
func (l *lattice) Fields() []string  { return l.fields }
func (l *lattice) StateDim() int     { return len(l.fields) * l.N * l.N }
func (l *lattice) InputDim() int     { return 0 }

func (l *lattice) cells() int { return l.N * l.N }

func (l *lattice) field(x []float64, k int) grid.Field {
	c := l.cells()
	return grid.View(x[k*c:(k+1)*c], l.N, l.N)
}

func (l *lattice) rect(r grid.Rect) grid.Rect { return r.Scale(l.N, l.ref) }

func (l *lattice) zero() dynamo.State { return make(dynamo.State, l.StateDim()) }

// Labels names each component field_row_col.
func (l *lattice) Labels() []string {
	out := make([]string, 0, l.StateDim())
	for _, f := range l.fields {
		for i := 0; i < l.N; i++ {
			for j := 0; j < l.N; j++ {
				out = append(out, fmt.Sprintf("%s_%d_%d", f, i, j))
			}
		}
	}
	return out
}

// params exposes the lattice size and spacing next to the model constants.
func (l *lattice) params(extra map[string]*float64) latticeParams {
	return latticeParams{l: l, extra: extra}
}

type latticeParams struct {
	l     *lattice
	extra map[string]*float64
}

func (p latticeParams) values() map[string]float64 {
	out := map[string]float64{"n": float64(p.l.N), "dx": p.l.dx}
	for k, v := range p.extra {
		out[k] = *v
	}
	return out
}

func (p latticeParams) set(name string, v float64) error {
	switch name {
	case "n":
		if v < 3 {
			return fmt.Errorf("%w: lattice size %g", dynamo.ErrParameterBounds, v)
		}
		p.l.N = int(v)
		return nil
	case "dx":
		if v <= 0 {
			return fmt.Errorf("%w: spacing %g", dynamo.ErrParameterBounds, v)
		}
		p.l.dx = v
		return nil
	}
	ptr, ok := p.extra[name]
	if !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
	}
	*ptr = v
	return nil
}
