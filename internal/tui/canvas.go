package tui

import (
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates. The canvas size in
// sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the pixel at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Viewport maps model coordinates onto the canvas, y pointing up.
type Viewport struct {
	XMin, XMax, YMin, YMax float64
}

// Fit returns a viewport enclosing all points with a 5% margin.
func Fit(xs, ys []float64) Viewport {
	v := Viewport{XMin: xs[0], XMax: xs[0], YMin: ys[0], YMax: ys[0]}
	for i := range xs {
		v.XMin, v.XMax = min(v.XMin, xs[i]), max(v.XMax, xs[i])
		v.YMin, v.YMax = min(v.YMin, ys[i]), max(v.YMax, ys[i])
	}
	pad := func(lo, hi float64) (float64, float64) {
		if hi-lo < 1e-12 {
			return lo - 1, hi + 1
		}
		m := 0.05 * (hi - lo)
		return lo - m, hi + m
	}
	v.XMin, v.XMax = pad(v.XMin, v.XMax)
	v.YMin, v.YMax = pad(v.YMin, v.YMax)
	return v
}

// Pixel converts a model point to sub-pixel coordinates of c.
func (c *Canvas) Pixel(v Viewport, x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - v.XMin) / (v.XMax - v.XMin) * w
	py := (v.YMax - y) / (v.YMax - v.YMin) * h
	return int(px + 0.5), int(py + 0.5)
}

// Trajectory draws the polyline through (xs[i], ys[i]).
func (c *Canvas) Trajectory(v Viewport, xs, ys []float64) {
	for i := range xs {
		x1, y1 := c.Pixel(v, xs[i], ys[i])
		if i == 0 {
			c.Set(x1, y1)
			continue
		}
		x0, y0 := c.Pixel(v, xs[i-1], ys[i-1])
		c.DrawLine(x0, y0, x1, y1)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
