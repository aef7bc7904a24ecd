package render

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// TimeSeries plots the chosen components of a run against time, one line
// per component named after labels.
func TimeSeries(res *dynamo.Result, labels []string, indices []int, title string) (*plot.Plot, error) {
	if res == nil || len(res.States) == 0 {
		return nil, fmt.Errorf("render: empty result")
	}
	dim := len(res.States[0])

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Legend.Top = true

	var lines []interface{}
	for _, i := range indices {
		if i < 0 || i >= dim {
			return nil, fmt.Errorf("render: component %d out of range [0, %d): %w", i, dim, dynamo.ErrDimensionMismatch)
		}
		pts := make(plotter.XYs, len(res.Times))
		for k, t := range res.Times {
			pts[k].X = t
			pts[k].Y = res.States[k][i]
		}
		name := fmt.Sprintf("x%d", i)
		if i < len(labels) {
			name = labels[i]
		}
		lines = append(lines, name, pts)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, err
	}
	return p, nil
}

// SavePNG rasterises p at the given size in inches and resolution.
func SavePNG(p *plot.Plot, widthIn, heightIn float64, dpi int, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// Save writes p in the format named by the file extension (.png, .svg,
// .pdf, .eps, .jpg, .tif).
func Save(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	return p.Save(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch, filename)
}
