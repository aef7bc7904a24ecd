package metrics

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// TailMean averages one component over the observations at or after a
// start time, e.g. the mean blood glucose once meals have settled into a
// rhythm.
type TailMean struct {
	name    string
	index   int
	after   float64
	sum     float64
	samples int
}

func NewTailMean(name string, index int, after float64) *TailMean {
	return &TailMean{name: name, index: index, after: after}
}

func (m *TailMean) Name() string { return m.name }

func (m *TailMean) Observe(x dynamo.State, u dynamo.Input, t float64) {
	if t < m.after || m.index >= len(x) {
		return
	}
	m.sum += x[m.index]
	m.samples++
}

func (m *TailMean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *TailMean) Reset() {
	m.sum = 0
	m.samples = 0
}

// Peak records the maximum of one component and when it occurred.
type Peak struct {
	name  string
	index int
	max   float64
	at    float64
}

func NewPeak(name string, index int) *Peak {
	return &Peak{name: name, index: index, max: math.Inf(-1)}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, u dynamo.Input, t float64) {
	if p.index < len(x) && x[p.index] > p.max {
		p.max, p.at = x[p.index], t
	}
}

// Value is the peak, or NaN before any observation.
func (p *Peak) Value() float64 {
	if math.IsInf(p.max, -1) {
		return math.NaN()
	}
	return p.max
}

// Time is when the peak was reached.
func (p *Peak) Time() float64 { return p.at }

func (p *Peak) Reset() {
	p.max = math.Inf(-1)
	p.at = 0
}

// Depletion is the first observed value of a component minus the latest
// one. For the susceptible compartment it is the number ever infected.
type Depletion struct {
	name     string
	index    int
	first    float64
	last     float64
	observed bool
}

func NewDepletion(name string, index int) *Depletion {
	return &Depletion{name: name, index: index}
}

func (d *Depletion) Name() string { return d.name }

func (d *Depletion) Observe(x dynamo.State, u dynamo.Input, t float64) {
	if d.index >= len(x) {
		return
	}
	if !d.observed {
		d.first = x[d.index]
		d.observed = true
	}
	d.last = x[d.index]
}

func (d *Depletion) Value() float64 { return d.first - d.last }

func (d *Depletion) Reset() {
	d.first, d.last = 0, 0
	d.observed = false
}
