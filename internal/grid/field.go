// Package grid holds square lattices of cell concentrations and the discrete
// operators used by the reaction-diffusion models.
package grid

import (
	"fmt"
	"math"
)

// Field is a row-major lattice with NY rows and NX columns. A Field may be a
// view into a larger state vector; writes go through to the backing slice.
type Field struct {
	NX, NY int
	Data   []float64
}

func New(nx, ny int) Field {
	return Field{NX: nx, NY: ny, Data: make([]float64, nx*ny)}
}

// View wraps data without copying. It panics if data is too short.
func View(data []float64, nx, ny int) Field {
	if len(data) < nx*ny {
		panic(fmt.Sprintf("grid: view of %d values over %dx%d lattice", len(data), nx, ny))
	}
	return Field{NX: nx, NY: ny, Data: data[:nx*ny]}
}

func (f Field) Len() int { return f.NX * f.NY }

func (f Field) At(row, col int) float64     { return f.Data[row*f.NX+col] }
func (f Field) Set(row, col int, v float64) { f.Data[row*f.NX+col] = v }

func (f Field) Clone() Field {
	c := New(f.NX, f.NY)
	copy(c.Data, f.Data)
	return c
}

// Rect is a half-open block of rows [R0, R1) and columns [C0, C1).
type Rect struct {
	R0, R1, C0, C1 int
}

// Scale maps a rectangle drawn on a ref x ref lattice onto an n x n one.
func (r Rect) Scale(n, ref int) Rect {
	if n == ref || ref <= 0 {
		return r
	}
	s := func(v int) int { return int(math.Round(float64(v) * float64(n) / float64(ref))) }
	return Rect{s(r.R0), s(r.R1), s(r.C0), s(r.C1)}
}

func (f Field) clamp(r Rect) Rect {
	lim := func(v, hi int) int { return max(0, min(v, hi)) }
	return Rect{lim(r.R0, f.NY), lim(r.R1, f.NY), lim(r.C0, f.NX), lim(r.C1, f.NX)}
}

// FillRect sets every cell of r to v, ignoring the part outside the field.
func (f Field) FillRect(r Rect, v float64) {
	r = f.clamp(r)
	for i := r.R0; i < r.R1; i++ {
		row := f.Data[i*f.NX : (i+1)*f.NX]
		for j := r.C0; j < r.C1; j++ {
			row[j] = v
		}
	}
}

// AddRect adds v to every cell of r.
func (f Field) AddRect(r Rect, v float64) {
	r = f.clamp(r)
	for i := r.R0; i < r.R1; i++ {
		row := f.Data[i*f.NX : (i+1)*f.NX]
		for j := r.C0; j < r.C1; j++ {
			row[j] += v
		}
	}
}

// Clip limits every value to [lo, hi].
func (f Field) Clip(lo, hi float64) {
	for i, v := range f.Data {
		f.Data[i] = math.Min(math.Max(v, lo), hi)
	}
}

func (f Field) Min() float64 {
	m := math.Inf(1)
	for _, v := range f.Data {
		m = math.Min(m, v)
	}
	return m
}

func (f Field) Max() float64 {
	m := math.Inf(-1)
	for _, v := range f.Data {
		m = math.Max(m, v)
	}
	return m
}

func (f Field) Sum() float64 {
	s := 0.0
	for _, v := range f.Data {
		s += v
	}
	return s
}

// Column extracts one column top to bottom, e.g. a gradient profile.
func (f Field) Column(col int) []float64 {
	out := make([]float64, f.NY)
	for i := range out {
		out[i] = f.At(i, col)
	}
	return out
}

// Row extracts one row left to right.
func (f Field) Row(row int) []float64 {
	out := make([]float64, f.NX)
	copy(out, f.Data[row*f.NX:(row+1)*f.NX])
	return out
}
