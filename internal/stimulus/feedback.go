package stimulus

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// Fitter is a stimulus that reads particular state components or drives
// particular channels and can check them against a model before a run.
type Fitter interface {
	Fit(stateDim int) error
}

// Feedback is a PID controller closing the loop from one state component to
// one input channel. The error is x[Component] - Target, so a positive Kp
// pushes harder the further the component sits above target, the way an
// insulin pump answers high glucose. The output is clamped to [Lo, Hi] and
// the integral is frozen while the output saturates.
type Feedback struct {
	Kp        float64
	Ki        float64
	Kd        float64
	Target    float64
	Component int
	Channel   int
	Lo, Hi    float64

	dim      int
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

// NewFeedback drives channel of a dim-channel input from component.
func NewFeedback(dim, component, channel int) *Feedback {
	return &Feedback{
		Kp:        1,
		Component: component,
		Channel:   channel,
		Lo:        0,
		Hi:        math.Inf(1),
		dim:       dim,
		first:     true,
	}
}

func (p *Feedback) Compute(x dynamo.State, t float64) dynamo.Input {
	u := make(dynamo.Input, p.dim)
	if p.Component >= len(x) || p.Channel < 0 || p.Channel >= p.dim {
		return u
	}
	err := x[p.Component] - p.Target

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		u[p.Channel] = p.clamp(p.Kp*err + p.Ki*p.integral)
		return u
	}

	dt := t - p.prevT
	if dt <= 0 {
		// repeated or rejected step: no new history to fold in
		u[p.Channel] = p.clamp(p.Kp*err + p.Ki*p.integral)
		return u
	}

	integral := p.integral + err*dt
	derivative := (err - p.prevErr) / dt
	raw := p.Kp*err + p.Ki*integral + p.Kd*derivative
	if raw >= p.Lo && raw <= p.Hi {
		p.integral = integral
	}
	p.prevErr = err
	p.prevT = t

	u[p.Channel] = p.clamp(raw)
	return u
}

func (p *Feedback) clamp(v float64) float64 {
	return math.Min(math.Max(v, p.Lo), p.Hi)
}

// Reset clears integral and derivative state.
func (p *Feedback) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.prevT = 0
	p.first = true
}

func (p *Feedback) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":        p.Kp,
		"ki":        p.Ki,
		"kd":        p.Kd,
		"target":    p.Target,
		"lo":        p.Lo,
		"hi":        p.Hi,
		"component": float64(p.Component),
		"channel":   float64(p.Channel),
	}
}

// Fit reports whether the loop can close on a model with stateDim
// components and the controller's input width.
func (p *Feedback) Fit(stateDim int) error {
	if p.Channel >= p.dim {
		return fmt.Errorf("%w: feedback channel %d, model has %d input channels", dynamo.ErrDimensionMismatch, p.Channel, p.dim)
	}
	if p.Component >= stateDim {
		return fmt.Errorf("%w: feedback component %d, model has %d state components", dynamo.ErrDimensionMismatch, p.Component, stateDim)
	}
	return nil
}

func (p *Feedback) SetParam(name string, v float64) error {
	switch name {
	case "kp":
		p.Kp = v
	case "ki":
		p.Ki = v
	case "kd":
		p.Kd = v
	case "target":
		p.Target = v
	case "lo":
		p.Lo = v
	case "hi":
		p.Hi = v
	case "component", "channel":
		if v != math.Trunc(v) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative index, got %g", dynamo.ErrParameterBounds, name, v)
		}
		if name == "component" {
			p.Component = int(v)
		} else {
			p.Channel = int(v)
		}
	default:
		return fmt.Errorf("%w: feedback has no %q", dynamo.ErrUnknownParam, name)
	}
	return nil
}

// Sum adds the inputs of several stimuli channel by channel, so a controller
// can act on top of a schedule.
type Sum struct {
	dim   int
	parts []dynamo.Stimulus
}

func NewSum(dim int, parts ...dynamo.Stimulus) *Sum {
	return &Sum{dim: dim, parts: parts}
}

func (s *Sum) Compute(x dynamo.State, t float64) dynamo.Input {
	u := make(dynamo.Input, s.dim)
	for _, p := range s.parts {
		for i, v := range p.Compute(x, t) {
			if i < len(u) {
				u[i] += v
			}
		}
	}
	return u
}

func (s *Sum) Reset() {
	for _, p := range s.parts {
		if r, ok := p.(dynamo.Resettable); ok {
			r.Reset()
		}
	}
}

func (s *Sum) GetParams() map[string]float64 {
	out := make(map[string]float64)
	for _, p := range s.parts {
		if c, ok := p.(dynamo.Configurable); ok {
			for k, v := range c.GetParams() {
				out[k] = v
			}
		}
	}
	return out
}

func (s *Sum) Fit(stateDim int) error {
	for _, p := range s.parts {
		if f, ok := p.(Fitter); ok {
			if err := f.Fit(stateDim); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetParam hands the parameter to the first part that knows it.
func (s *Sum) SetParam(name string, v float64) error {
	for _, p := range s.parts {
		c, ok := p.(dynamo.Configurable)
		if !ok {
			continue
		}
		err := c.SetParam(name, v)
		if !errors.Is(err, dynamo.ErrUnknownParam) {
			return err
		}
	}
	return fmt.Errorf("%w: %q", dynamo.ErrUnknownParam, name)
}
