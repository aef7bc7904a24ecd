package stability

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotSquare     = errors.New("stability: jacobian is not square")
	ErrNoConvergence = errors.New("stability: newton iteration did not converge")
	ErrSingular      = errors.New("stability: singular jacobian")
)

// Report summarises the linearisation at one point.
type Report struct {
	Trace        float64
	Det          float64
	Discriminant float64
	Eigenvalues  []complex128
	Class        Class
}

// Analyze classifies a Jacobian. Planar systems use the trace/determinant
// table; higher dimensions are classified from the eigenvalue real parts.
func Analyze(j [][]float64) (Report, error) {
	n := len(j)
	if n == 0 {
		return Report{}, ErrNotSquare
	}
	data := make([]float64, 0, n*n)
	for _, row := range j {
		if len(row) != n {
			return Report{}, fmt.Errorf("row of length %d in %dx%d matrix: %w", len(row), n, n, ErrNotSquare)
		}
		data = append(data, row...)
	}
	a := mat.NewDense(n, n, data)

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenNone); !ok {
		return Report{}, fmt.Errorf("stability: eigen decomposition failed")
	}

	rep := Report{
		Trace:       mat.Trace(a),
		Det:         mat.Det(a),
		Eigenvalues: eig.Values(nil),
	}
	rep.Discriminant = rep.Trace*rep.Trace - 4*rep.Det

	switch n {
	case 2:
		rep.Class = Classify(rep.Trace, rep.Det)
	default:
		rep.Class = classifySpectrum(rep.Eigenvalues)
	}
	return rep, nil
}

func classifySpectrum(ev []complex128) Class {
	var pos, neg, oscillating bool
	for _, v := range ev {
		re := real(v)
		switch {
		case re > ZeroTol:
			pos = true
		case re < -ZeroTol:
			neg = true
		}
		if math.Abs(imag(v)) > ZeroTol {
			oscillating = true
		}
	}
	switch {
	case pos && neg:
		return Saddle
	case pos:
		if oscillating {
			return UnstableSpiral
		}
		return UnstableNode
	case neg:
		if oscillating {
			return StableSpiral
		}
		return StableNode
	default:
		return Center
	}
}

// Jacobian returns the Jacobian of sys at x. Planar systems supply it
// analytically; others are differentiated with central finite differences.
func Jacobian(sys dynamo.System, x dynamo.State, t float64) [][]float64 {
	if p, ok := sys.(dynamo.Planar); ok {
		return p.Jacobian(x)
	}

	n := sys.StateDim()
	u := make(dynamo.Input, sys.InputDim())
	dst := mat.NewDense(n, n, nil)
	fd.Jacobian(dst, func(y, xs []float64) {
		copy(y, sys.Derive(dynamo.State(xs), u, t))
	}, x, &fd.JacobianSettings{Formula: fd.Central})

	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, dst)
	}
	return out
}

// AnalyzeAt linearises sys at x and classifies the result.
func AnalyzeAt(sys dynamo.System, x dynamo.State) (Report, error) {
	return Analyze(Jacobian(sys, x, 0))
}
