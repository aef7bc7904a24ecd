package metrics

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// InvariantDrift tracks the largest relative departure of a conserved
// quantity (total population, total morphogen) from its first observed
// value.
type InvariantDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
	sys      dynamo.Conserved
}

func NewInvariantDrift(sys dynamo.Conserved) *InvariantDrift {
	return &InvariantDrift{
		name: "invariant_drift",
		sys:  sys,
	}
}

func (d *InvariantDrift) Name() string { return d.name }

func (d *InvariantDrift) Observe(x dynamo.State, u dynamo.Input, t float64) {
	v := d.sys.Invariant(x)
	if d.samples == 0 {
		d.initial = v
	}
	d.samples++

	if d.initial != 0 {
		drift := math.Abs(v-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *InvariantDrift) Value() float64 { return d.maxDrift }

func (d *InvariantDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
