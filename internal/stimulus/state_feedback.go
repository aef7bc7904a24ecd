package stimulus

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// StateFeedback is a static gain law u = -K(x - Target), each channel
// clamped to [Lo, Hi]. Row i of K drives input channel i; a short row or
// a short Target treats the missing entries as zero.
type StateFeedback struct {
	K      [][]float64
	Target dynamo.State
	Lo, Hi float64
}

// NewStateFeedback returns a zero-gain law over dim channels reading
// n state components.
func NewStateFeedback(dim, n int) *StateFeedback {
	k := make([][]float64, dim)
	for i := range k {
		k[i] = make([]float64, n)
	}
	return &StateFeedback{
		K:      k,
		Target: make(dynamo.State, n),
		Lo:     math.Inf(-1),
		Hi:     math.Inf(1),
	}
}

func (f *StateFeedback) Compute(x dynamo.State, _ float64) dynamo.Input {
	u := make(dynamo.Input, len(f.K))
	for i := range u {
		for j := range x {
			if j >= len(f.K[i]) {
				break
			}
			target := 0.0
			if j < len(f.Target) {
				target = f.Target[j]
			}
			u[i] -= f.K[i][j] * (x[j] - target)
		}
		u[i] = math.Min(math.Max(u[i], f.Lo), f.Hi)
	}
	return u
}

// Fit rejects gains that read components the model does not have.
func (f *StateFeedback) Fit(stateDim int) error {
	for i, row := range f.K {
		for j := stateDim; j < len(row); j++ {
			if row[j] != 0 {
				return fmt.Errorf("%w: gain k%d_%d reads component %d, model has %d", dynamo.ErrDimensionMismatch, i, j, j, stateDim)
			}
		}
	}
	return nil
}

// GetParams flattens the gains to k<channel>_<component> and the set
// point to target<component>.
func (f *StateFeedback) GetParams() map[string]float64 {
	out := map[string]float64{"lo": f.Lo, "hi": f.Hi}
	for i, row := range f.K {
		for j, v := range row {
			out[fmt.Sprintf("k%d_%d", i, j)] = v
		}
	}
	for j, v := range f.Target {
		out[fmt.Sprintf("target%d", j)] = v
	}
	return out
}

func (f *StateFeedback) SetParam(name string, v float64) error {
	switch {
	case name == "lo":
		f.Lo = v
	case name == "hi":
		f.Hi = v
	case strings.HasPrefix(name, "target"):
		j, err := strconv.Atoi(strings.TrimPrefix(name, "target"))
		if err != nil || j < 0 || j >= len(f.Target) {
			return fmt.Errorf("%w: state feedback has no %q", dynamo.ErrUnknownParam, name)
		}
		f.Target[j] = v
	case strings.HasPrefix(name, "k"):
		var i, j int
		if _, err := fmt.Sscanf(name, "k%d_%d", &i, &j); err != nil || fmt.Sprintf("k%d_%d", i, j) != name ||
			i < 0 || i >= len(f.K) || j < 0 || j >= len(f.K[i]) {
			return fmt.Errorf("%w: state feedback has no %q", dynamo.ErrUnknownParam, name)
		}
		f.K[i][j] = v
	default:
		return fmt.Errorf("%w: state feedback has no %q", dynamo.ErrUnknownParam, name)
	}
	return nil
}
