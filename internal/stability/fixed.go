package stability

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

type Options struct {
	Tol     float64
	MaxIter int
}

func DefaultOptions() Options {
	return Options{Tol: 1e-10, MaxIter: 100}
}

// FindFixedPoint solves f(x) = 0 by Newton's method from guess, solving
// J dx = -f at each iteration.
func FindFixedPoint(sys dynamo.System, guess dynamo.State, opts Options) (dynamo.State, error) {
	if opts.MaxIter <= 0 {
		opts = DefaultOptions()
	}
	n := sys.StateDim()
	if len(guess) != n {
		return nil, fmt.Errorf("guess has %d components: %w", len(guess), dynamo.ErrDimensionMismatch)
	}
	u := make(dynamo.Input, sys.InputDim())
	x := guess.Clone()

	for i := 0; i < opts.MaxIter; i++ {
		f := sys.Derive(x, u, 0)
		if f.Norm() < opts.Tol {
			return x, nil
		}

		j := Jacobian(sys, x, 0)
		data := make([]float64, 0, n*n)
		for _, row := range j {
			data = append(data, row...)
		}

		rhs := mat.NewVecDense(n, f.Scale(-1))
		var dx mat.VecDense
		if err := dx.SolveVec(mat.NewDense(n, n, data), rhs); err != nil {
			// an ill-conditioned but solvable system still yields a step
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				return x, fmt.Errorf("at %v: %w", x, ErrSingular)
			}
		}

		for k := 0; k < n; k++ {
			x[k] += dx.AtVec(k)
		}
		if !x.IsValid() {
			break
		}
		if mat.Norm(&dx, 2) < opts.Tol*(1+x.Norm()) {
			return x, nil
		}
	}
	return x, fmt.Errorf("from %v: %w", guess, ErrNoConvergence)
}

// FixedPoints returns the fixed points of sys: the closed form when the
// system provides one, otherwise the distinct Newton limits of the seeds.
func FixedPoints(sys dynamo.System, seeds []dynamo.State, opts Options) ([]dynamo.State, error) {
	if fp, ok := sys.(dynamo.FixedPointer); ok {
		return fp.FixedPoints(), nil
	}

	var found []dynamo.State
	var lastErr error
	for _, s := range seeds {
		x, err := FindFixedPoint(sys, s, opts)
		if err != nil {
			lastErr = err
			continue
		}
		if !contains(found, x) {
			found = append(found, x)
		}
	}
	if len(found) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return found, nil
}

func contains(points []dynamo.State, x dynamo.State) bool {
	for _, p := range points {
		if p.Sub(x).Norm() < 1e-6*(1+x.Norm()) {
			return true
		}
	}
	return false
}

// Point is a fixed point with its linearisation.
type Point struct {
	X      dynamo.State
	Report Report
}

// Survey locates and classifies every fixed point of sys.
func Survey(sys dynamo.System, seeds []dynamo.State, opts Options) ([]Point, error) {
	xs, err := FixedPoints(sys, seeds, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, len(xs))
	for _, x := range xs {
		rep, err := AnalyzeAt(sys, x)
		if err != nil {
			return nil, err
		}
		out = append(out, Point{X: x, Report: rep})
	}
	return out, nil
}

// GridSeeds spreads n x n Newton seeds over a rectangle of the first two
// components; other components start at zero.
func GridSeeds(dim int, xmin, xmax, ymin, ymax float64, n int) []dynamo.State {
	if n < 2 {
		n = 2
	}
	seeds := make([]dynamo.State, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := make(dynamo.State, dim)
			s[0] = xmin + (xmax-xmin)*float64(i)/float64(n-1)
			if dim > 1 {
				s[1] = ymin + (ymax-ymin)*float64(j)/float64(n-1)
			}
			seeds = append(seeds, s)
		}
	}
	return seeds
}
