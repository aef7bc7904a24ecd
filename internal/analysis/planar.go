package analysis

import (
	"fmt"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// Window is a rectangle of the (x0, x1) plane.
type Window struct {
	XMin, XMax, YMin, YMax float64
}

// Axis returns n evenly spaced values from lo to hi inclusive.
func Axis(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Arrow is the flow (DX, DY) at (X, Y).
type Arrow struct {
	X, Y, DX, DY float64
}

func planar(sys dynamo.System) error {
	if sys.StateDim() != 2 {
		return fmt.Errorf("analysis: planar system required, got dimension %d: %w", sys.StateDim(), dynamo.ErrDimensionMismatch)
	}
	return nil
}

// VectorField samples the flow on an n x n lattice over w with a zero input.
func VectorField(sys dynamo.System, w Window, n int) ([]Arrow, error) {
	if err := planar(sys); err != nil {
		return nil, err
	}
	u := make(dynamo.Input, sys.InputDim())
	out := make([]Arrow, 0, n*n)
	for _, y := range Axis(w.YMin, w.YMax, n) {
		for _, x := range Axis(w.XMin, w.XMax, n) {
			d := sys.Derive(dynamo.State{x, y}, u, 0)
			out = append(out, Arrow{X: x, Y: y, DX: d[0], DY: d[1]})
		}
	}
	return out, nil
}

// Nullclines holds both derivative components on a lattice. The zero
// contour of DX is the x-nullcline and that of DY the y-nullcline.
type Nullclines struct {
	XS, YS []float64
	// DX[j][i] is dx/dt at (XS[i], YS[j]).
	DX, DY [][]float64
}

func NullclineGrid(sys dynamo.System, w Window, n int) (*Nullclines, error) {
	if err := planar(sys); err != nil {
		return nil, err
	}
	nc := &Nullclines{XS: Axis(w.XMin, w.XMax, n), YS: Axis(w.YMin, w.YMax, n)}
	u := make(dynamo.Input, sys.InputDim())
	for _, y := range nc.YS {
		dx, dy := make([]float64, len(nc.XS)), make([]float64, len(nc.XS))
		for i, x := range nc.XS {
			d := sys.Derive(dynamo.State{x, y}, u, 0)
			dx[i], dy[i] = d[0], d[1]
		}
		nc.DX = append(nc.DX, dx)
		nc.DY = append(nc.DY, dy)
	}
	return nc, nil
}

// ZeroCrossings traces the zero contour of DX (k = 0) or DY (k = 1) by
// linear interpolation along every lattice edge whose endpoints differ in
// sign.
func (nc *Nullclines) ZeroCrossings(k int) []Point {
	z := nc.DX
	if k == 1 {
		z = nc.DY
	}
	var out []Point
	for j := range nc.YS {
		for i := range nc.XS {
			v := z[j][i]
			if v == 0 {
				out = append(out, Point{nc.XS[i], nc.YS[j]})
				continue
			}
			if i+1 < len(nc.XS) && v*z[j][i+1] < 0 {
				f := v / (v - z[j][i+1])
				out = append(out, Point{nc.XS[i] + f*(nc.XS[i+1]-nc.XS[i]), nc.YS[j]})
			}
			if j+1 < len(nc.YS) && v*z[j+1][i] < 0 {
				f := v / (v - z[j+1][i])
				out = append(out, Point{nc.XS[i], nc.YS[j] + f*(nc.YS[j+1]-nc.YS[j])})
			}
		}
	}
	return out
}
