package metrics

import (
	"github.com/san-kum/biodyn/internal/dynamo"
)

// Bounded is the fraction of observations whose components all stay
// within [lo, hi]. A blood glucose model staying in its normal range
// scores 1.
type Bounded struct {
	name       string
	lo, hi     float64
	indices    []int
	violations int
	samples    int
}

// NewBounded checks the given components, or all of them when none are
// named.
func NewBounded(name string, lo, hi float64, indices ...int) *Bounded {
	return &Bounded{
		name:    name,
		lo:      lo,
		hi:      hi,
		indices: indices,
	}
}

func (b *Bounded) Name() string {
	return b.name
}

func (b *Bounded) Observe(x dynamo.State, u dynamo.Input, t float64) {
	b.samples++
	if len(b.indices) == 0 {
		for _, val := range x {
			if val < b.lo || val > b.hi {
				b.violations++
				return
			}
		}
		return
	}
	for _, i := range b.indices {
		if i < len(x) && (x[i] < b.lo || x[i] > b.hi) {
			b.violations++
			return
		}
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}
