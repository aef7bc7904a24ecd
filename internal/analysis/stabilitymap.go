package analysis

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/stability"
)

// Cell is the linearisation at the fixed point found for one parameter pair.
type Cell struct {
	Found bool
	Fixed dynamo.State
	stability.Report
}

// Map is the fixed-point class across two parameters. Cells[j][i] belongs
// to (XS[i], YS[j]).
type Map struct {
	XParam, YParam string
	XS, YS         []float64
	Cells          [][]Cell
}

// StabilityMap sets (xParam, yParam) on a fresh system for every pair,
// locates a fixed point starting from seed and classifies it. Each row is
// computed concurrently.
func StabilityMap(
	ctx context.Context,
	factory func() dynamo.System,
	xParam, yParam string,
	xs, ys []float64,
	seed dynamo.State,
	opts stability.Options,
) (*Map, error) {
	m := &Map{XParam: xParam, YParam: yParam, XS: xs, YS: ys, Cells: make([][]Cell, len(ys))}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for j, y := range ys {
		g.Go(func() error {
			row := make([]Cell, len(xs))
			for i, x := range xs {
				if err := ctx.Err(); err != nil {
					return err
				}
				sys := factory()
				tunable, ok := sys.(dynamo.Configurable)
				if !ok {
					return fmt.Errorf("analysis: stability map needs a configurable system")
				}
				if err := tunable.SetParam(xParam, x); err != nil {
					return err
				}
				if err := tunable.SetParam(yParam, y); err != nil {
					return err
				}
				row[i] = cellAt(sys, seed, opts)
			}
			m.Cells[j] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

func cellAt(sys dynamo.System, seed dynamo.State, opts stability.Options) Cell {
	points, err := stability.FixedPoints(sys, []dynamo.State{seed}, opts)
	if err != nil || len(points) == 0 {
		return Cell{}
	}
	rep, err := stability.AnalyzeAt(sys, points[0])
	if err != nil {
		return Cell{}
	}
	return Cell{Found: true, Fixed: points[0], Report: rep}
}

// Values extracts one scalar per cell, NaN where no fixed point was found.
func (m *Map) Values(f func(Cell) float64) [][]float64 {
	out := make([][]float64, len(m.Cells))
	for j, row := range m.Cells {
		out[j] = make([]float64, len(row))
		for i, c := range row {
			if c.Found {
				out[j][i] = f(c)
			} else {
				out[j][i] = math.NaN()
			}
		}
	}
	return out
}

// Count tallies the classes across the map.
func (m *Map) Count() map[stability.Class]int {
	out := make(map[stability.Class]int)
	for _, row := range m.Cells {
		for _, c := range row {
			if c.Found {
				out[c.Class]++
			}
		}
	}
	return out
}
