package render

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"github.com/san-kum/biodyn/internal/analysis"
	"github.com/san-kum/biodyn/internal/grid"
)

const paletteSize = 255

// tableXYZ adapts a row-major table to plotter.GridXYZ, z[r][c] sitting at
// (xs[c], ys[r]).
type tableXYZ struct {
	xs, ys []float64
	z      [][]float64
}

func (g *tableXYZ) Dims() (c, r int)   { return len(g.xs), len(g.ys) }
func (g *tableXYZ) Z(c, r int) float64 { return g.z[r][c] }
func (g *tableXYZ) X(c int) float64    { return g.xs[c] }
func (g *tableXYZ) Y(r int) float64    { return g.ys[r] }

// fieldXYZ shows row 0 of a field at the top, as an image would.
type fieldXYZ struct{ f grid.Field }

func (g fieldXYZ) Dims() (c, r int)   { return g.f.NX, g.f.NY }
func (g fieldXYZ) Z(c, r int) float64 { return g.f.At(g.f.NY-1-r, c) }
func (g fieldXYZ) X(c int) float64    { return float64(c) }
func (g fieldXYZ) Y(r int) float64    { return float64(r) }

// finiteRange returns the range of the finite values, widened when flat.
func finiteRange(rows ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// FieldFrame draws one field as a heat map with the colour range fixed to
// [lo, hi], so successive frames of a run are comparable.
func FieldFrame(f grid.Field, lo, hi float64, title string) *plot.Plot {
	if hi <= lo {
		hi = lo + 1
	}
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	h := plotter.NewHeatMap(fieldXYZ{f}, moreland.ExtendedBlackBody().Palette(paletteSize))
	h.Min, h.Max = lo, hi
	p.Add(h)
	return p
}

// StabilityHeatMap colours a stability map by value (trace, det or
// discriminant). Cells without a fixed point are left blank.
func StabilityHeatMap(m *analysis.Map, value string) (*plot.Plot, error) {
	var pick func(analysis.Cell) float64
	switch value {
	case "trace":
		pick = func(c analysis.Cell) float64 { return c.Trace }
	case "det":
		pick = func(c analysis.Cell) float64 { return c.Det }
	case "disc", "discriminant":
		pick = func(c analysis.Cell) float64 { return c.Discriminant }
	default:
		return nil, fmt.Errorf("render: unknown stability value %q", value)
	}
	if len(m.XS) < 2 || len(m.YS) < 2 {
		return nil, fmt.Errorf("render: stability map needs at least 2x2 cells")
	}

	z := m.Values(pick)
	p := plot.New()
	p.Title.Text = value
	p.X.Label.Text = m.XParam
	p.Y.Label.Text = m.YParam

	h := plotter.NewHeatMap(&tableXYZ{xs: m.XS, ys: m.YS, z: z}, moreland.SmoothBlueRed().Palette(paletteSize))
	h.Min, h.Max = finiteRange(z...)
	// centre diverging colours on zero, where the class changes
	if h.Min < 0 && h.Max > 0 {
		r := math.Max(-h.Min, h.Max)
		h.Min, h.Max = -r, r
	}
	p.Add(h)
	return p, nil
}
