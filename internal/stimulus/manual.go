package stimulus

import (
	"sync"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// Manual passes an input vector set from outside the simulation loop, such
// as a current injected from a key press in the live view.
type Manual struct {
	mu sync.RWMutex
	u  dynamo.Input
}

func NewManual(dim int) *Manual {
	return &Manual{u: make(dynamo.Input, dim)}
}

// Set updates one input component. Out of range components are ignored.
func (m *Manual) Set(i int, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= 0 && i < len(m.u) {
		m.u[i] = v
	}
}

func (m *Manual) Get(i int) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i >= 0 && i < len(m.u) {
		return m.u[i]
	}
	return 0
}

func (m *Manual) Compute(x dynamo.State, t float64) dynamo.Input {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(dynamo.Input, len(m.u))
	copy(out, m.u)
	return out
}
