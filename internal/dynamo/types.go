package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Input is the external drive applied to a system at a given instant:
// a meal, an injected current, an insulin dose.
type Input []float64

type System interface {
	Derive(x State, u Input, t float64) State
	StateDim() int
	InputDim() int
}

// Labeled systems name their state components.
type Labeled interface {
	Labels() []string
}

// Conserved systems carry a quantity that the exact flow keeps constant.
type Conserved interface {
	Invariant(x State) float64
}

// Projector systems constrain the state after every accepted step.
type Projector interface {
	Project(x State)
}

// Planar systems provide an analytic Jacobian.
type Planar interface {
	Jacobian(x State) [][]float64
}

// FixedPointer systems know their fixed points in closed form.
type FixedPointer interface {
	FixedPoints() []State
}

type Defaulted interface {
	DefaultState() State
}

type Integrator interface {
	Step(sys System, x State, u Input, t float64, dt float64) State
}

// AdaptiveIntegrator advances by an error-controlled step. It returns the new
// state, the step actually taken and the suggested next step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, u Input, t, dt, tol float64) (State, float64, float64, error)
}

type Stimulus interface {
	Compute(x State, t float64) Input
}

// Resettable stimuli carry history, such as a controller's integral, that
// is cleared when a run starts.
type Resettable interface {
	Reset()
}

type Metric interface {
	Name() string
	Observe(x State, u Input, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Input, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Config struct {
	Dt            float64
	Duration      float64
	Tolerance     float64
	MaxDt         float64
	MinDt         float64
	Adaptive      bool
	ValidateState bool
	// SampleEvery records every n-th step; the final state is always kept.
	SampleEvery int
	// MaxNorm stops a run with ErrUnstable once the state norm exceeds it.
	// Zero disables the check.
	MaxNorm float64
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Tolerance:     1e-6,
		MaxDt:         1.0,
		MinDt:         1e-10,
		Adaptive:      false,
		ValidateState: true,
		SampleEvery:   1,
	}
}

type Result struct {
	States         []State
	Inputs         []Input
	Times          []float64
	Metrics        map[string]float64
	InvariantDrift float64
	StepsTaken     int
	Errors         []error
}

// Final returns the last recorded state, or nil for an empty result.
func (r *Result) Final() State {
	if r == nil || len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Component extracts one state component across all recorded samples.
func (r *Result) Component(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

// LabelsOf returns the component names of sys, falling back to x0, x1, ...
func LabelsOf(sys System) []string {
	if l, ok := sys.(Labeled); ok {
		return l.Labels()
	}
	labels := make([]string, sys.StateDim())
	for i := range labels {
		labels[i] = fmt.Sprintf("x%d", i)
	}
	return labels
}
