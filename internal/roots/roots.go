// Package roots solves the low-order polynomial equations that locate fixed
// points of the planar models, and provides a scalar Newton iteration.
package roots

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

var (
	ErrZeroDerivative = errors.New("roots: derivative vanished")
	ErrNoConvergence  = errors.New("roots: iteration did not converge")
)

// imagTol decides when a cubic root counts as real.
const imagTol = 1e-6

// omega is a primitive cube root of unity.
var omega = complex(-0.5, math.Sqrt(3)/2)

// Cubic returns the three roots of x^3 + a x^2 + b x + c = 0.
//
// The cubic is reduced to y^3 + p y + q = 0 with x = y - a/3 and solved with
// Cardano's formula: y = u + v, u^3 = -q/2 + sqrt(q^2/4 + p^3/27), v = -p/(3u),
// the other two roots follow by rotating u and v with the cube roots of unity.
func Cubic(a, b, c float64) [3]complex128 {
	shift := a / 3
	p := b - a*a/3
	q := 2*a*a*a/27 - a*b/3 + c

	disc := complex(q*q/4+p*p*p/27, 0)
	u3 := complex(-q/2, 0) + cmplx.Sqrt(disc)
	if cmplx.Abs(u3) < 1e-300 {
		u3 = complex(-q/2, 0) - cmplx.Sqrt(disc)
	}

	var out [3]complex128
	if cmplx.Abs(u3) < 1e-300 {
		// p = q = 0: triple root
		for i := range out {
			out[i] = complex(-shift, 0)
		}
		return out
	}

	u := cbrt(u3)
	v := complex(-p/3, 0) / u

	w2 := omega * omega
	out[0] = u + v
	out[1] = u*omega + v*w2
	out[2] = u*w2 + v*omega
	for i := range out {
		out[i] -= complex(shift, 0)
	}
	return out
}

// cbrt is the principal complex cube root, using the real cube root on the
// real axis so that real inputs give exactly real outputs.
func cbrt(z complex128) complex128 {
	if imag(z) == 0 {
		return complex(math.Cbrt(real(z)), 0)
	}
	return cmplx.Pow(z, complex(1.0/3.0, 0))
}

// RealCubic returns the distinct real roots of x^3 + a x^2 + b x + c = 0 in
// ascending order.
func RealCubic(a, b, c float64) []float64 {
	all := Cubic(a, b, c)
	out := make([]float64, 0, 3)
	for _, r := range all {
		scale := math.Max(1, math.Abs(real(r)))
		if math.Abs(imag(r)) > imagTol*scale {
			continue
		}
		out = append(out, polish(a, b, c, real(r)))
	}
	sort.Float64s(out)
	return dedupe(out)
}

// polish applies a few Newton steps to a root from the closed form.
func polish(a, b, c, x float64) float64 {
	for i := 0; i < 3; i++ {
		f := ((x+a)*x+b)*x + c
		df := (3*x+2*a)*x + b
		if df == 0 {
			break
		}
		next := x - f/df
		if math.IsNaN(next) || math.Abs(next-x) > 1e-6*math.Max(1, math.Abs(x)) {
			break
		}
		x = next
	}
	return x
}

func dedupe(sorted []float64) []float64 {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		last := out[len(out)-1]
		if math.Abs(v-last) > 1e-7*math.Max(1, math.Abs(v)) {
			out = append(out, v)
		}
	}
	return out
}

// Quadratic returns the real roots of a x^2 + b x + c = 0 in ascending order.
// A double root is returned once. With a = 0 the linear root is returned.
func Quadratic(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	d := b*b - 4*a*c
	switch {
	case d < 0:
		return nil
	case d == 0:
		return []float64{-b / (2 * a)}
	}

	// avoids cancellation between -b and sqrt(d)
	q := -0.5 * (b + math.Copysign(math.Sqrt(d), b))
	x1, x2 := q/a, c/q
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	return []float64{x1, x2}
}

// Newton iterates x <- x - f(x)/df(x) from x0 until the relative change
// |x_new - x| / |x| drops below relTol. It returns the root and the number of
// iterations used.
func Newton(f, df func(float64) float64, x0, relTol float64, maxIter int) (float64, int, error) {
	x := x0
	for i := 1; i <= maxIter; i++ {
		d := df(x)
		if d == 0 {
			return x, i, fmt.Errorf("at x=%g: %w", x, ErrZeroDerivative)
		}
		next := x - f(x)/d
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return x, i, fmt.Errorf("diverged at x=%g: %w", x, ErrNoConvergence)
		}

		change := math.Abs(next - x)
		if x != 0 {
			change /= math.Abs(x)
		}
		x = next
		if change < relTol {
			return x, i, nil
		}
	}
	return x, maxIter, fmt.Errorf("after %d iterations: %w", maxIter, ErrNoConvergence)
}
