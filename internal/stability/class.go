// Package stability classifies fixed points of ODE systems from the trace and
// determinant of the Jacobian, and locates fixed points numerically.
package stability

import "math"

type Class int

const (
	StableNode Class = iota
	UnstableNode
	StableSpiral
	UnstableSpiral
	Center
	Saddle
)

var classNames = [...]string{
	StableNode:     "stable node",
	UnstableNode:   "unstable node",
	StableSpiral:   "stable spiral",
	UnstableSpiral: "unstable spiral",
	Center:         "center",
	Saddle:         "saddle",
}

func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// Phrase returns the class with its indefinite article, "a saddle" or
// "an unstable node".
func (c Class) Phrase() string {
	s := c.String()
	switch s[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + s
	}
	return "a " + s
}

// Stable reports whether nearby trajectories converge to the point.
func (c Class) Stable() bool { return c == StableNode || c == StableSpiral }

// ZeroTol is the magnitude below which trace, determinant and discriminant
// count as zero.
const ZeroTol = 1e-10

func isZero(v float64) bool { return math.Abs(v) < ZeroTol }

// Classify applies the second-order decision table to the trace and
// determinant of a 2x2 Jacobian, using the discriminant tr^2 - 4 det.
//
// Complex eigenvalues (D < 0) give spirals, or a center on tr = 0. A repeated
// eigenvalue (D = 0) gives a node. Real distinct eigenvalues give a saddle
// when det < 0 or when det = 0 with tr > 0, and a node otherwise.
func Classify(tr, det float64) Class {
	d := tr*tr - 4*det
	switch {
	case isZero(d):
		if tr > 0 && !isZero(tr) {
			return UnstableNode
		}
		return StableNode
	case d < 0:
		switch {
		case isZero(tr):
			return Center
		case tr > 0:
			return UnstableSpiral
		default:
			return StableSpiral
		}
	default:
		switch {
		case det < 0 && !isZero(det):
			return Saddle
		case tr > 0:
			if isZero(det) {
				return Saddle
			}
			return UnstableNode
		default:
			return StableNode
		}
	}
}
