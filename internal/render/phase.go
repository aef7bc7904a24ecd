package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/biodyn/internal/analysis"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/stability"
)

// PhaseLayers are the optional overlays of a phase plot.
type PhaseLayers struct {
	Trajectories []*analysis.PhasePortrait2D
	Arrows       []analysis.Arrow
	Nullclines   *analysis.Nullclines
	// Fixed points are drawn filled when stable, hollow otherwise.
	Fixed   []dynamo.State
	Classes []stability.Class
}

// Phase draws a phase plane with labelled axes.
func Phase(layers PhaseLayers, xLabel, yLabel, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	if len(layers.Arrows) > 0 {
		p.Add(plotter.NewField(newArrowField(layers.Arrows)))
	}

	if nc := layers.Nullclines; nc != nil {
		for k := 0; k < 2; k++ {
			zero := nc.ZeroCrossings(k)
			if len(zero) == 0 {
				continue
			}
			sc, err := plotter.NewScatter(points(zero))
			if err != nil {
				return nil, err
			}
			sc.GlyphStyle = draw.GlyphStyle{Color: plotutil.Color(k + 2), Radius: vg.Points(1), Shape: draw.CircleGlyph{}}
			p.Legend.Add(fmt.Sprintf("d%s/dt = 0", []string{xLabel, yLabel}[k]), sc)
			p.Add(sc)
		}
	}

	for i, tr := range layers.Trajectories {
		line, err := plotter.NewLine(points(tr.Points))
		if err != nil {
			return nil, err
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
	}

	if len(layers.Fixed) > 0 {
		pts := make(plotter.XYs, len(layers.Fixed))
		for k, x := range layers.Fixed {
			pts[k].X, pts[k].Y = x[0], x[1]
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyleFunc = func(k int) draw.GlyphStyle {
			gs := draw.GlyphStyle{Color: color.Black, Radius: vg.Points(4), Shape: draw.RingGlyph{}}
			if k < len(layers.Classes) && layers.Classes[k].Stable() {
				gs.Shape = draw.CircleGlyph{}
			}
			return gs
		}
		p.Add(sc)
	}

	return p, nil
}

func points(ps []analysis.Point) plotter.XYs {
	out := make(plotter.XYs, len(ps))
	for k, pt := range ps {
		out[k].X, out[k].Y = pt.X, pt.Y
	}
	return out
}

// arrowField adapts sampled arrows to plotter.FieldXY. Arrows are scaled to
// unit length so the slowest regions stay visible.
type arrowField struct {
	xs, ys []float64
	vec    [][]plotter.XY
}

func newArrowField(arrows []analysis.Arrow) *arrowField {
	n := int(math.Round(math.Sqrt(float64(len(arrows)))))
	f := &arrowField{xs: make([]float64, n), ys: make([]float64, n), vec: make([][]plotter.XY, n)}
	for r := 0; r < n; r++ {
		f.vec[r] = make([]plotter.XY, n)
		for c := 0; c < n; c++ {
			a := arrows[r*n+c]
			f.xs[c], f.ys[r] = a.X, a.Y
			norm := math.Hypot(a.DX, a.DY)
			if norm > 0 {
				f.vec[r][c] = plotter.XY{X: a.DX / norm, Y: a.DY / norm}
			}
		}
	}
	return f
}

func (f *arrowField) Dims() (c, r int)           { return len(f.xs), len(f.ys) }
func (f *arrowField) Vector(c, r int) plotter.XY { return f.vec[r][c] }
func (f *arrowField) X(c int) float64            { return f.xs[c] }
func (f *arrowField) Y(r int) float64            { return f.ys[r] }
