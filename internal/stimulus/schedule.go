package stimulus

import (
	"fmt"
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// MealSchedule feeds Amount of glucose during the last Duration of every
// Period, and Insulin units over the same window. It produces the two-channel
// input of the glucose model: [diet, insulin].
type MealSchedule struct {
	Period   float64
	Duration float64
	Amount   float64
	Insulin  float64
}

func NewMealSchedule() *MealSchedule {
	return &MealSchedule{Period: 10, Duration: 1, Amount: 1, Insulin: 0}
}

// Eating reports whether t falls inside a meal window.
func (m *MealSchedule) Eating(t float64) bool {
	if m.Period <= 0 {
		return false
	}
	phase := math.Mod(t, m.Period)
	return phase >= m.Period-m.Duration
}

func (m *MealSchedule) Compute(x dynamo.State, t float64) dynamo.Input {
	if !m.Eating(t) {
		return dynamo.Input{0, 0}
	}
	return dynamo.Input{m.Amount, m.Insulin}
}

func (m *MealSchedule) GetParams() map[string]float64 {
	return map[string]float64{
		"period":   m.Period,
		"duration": m.Duration,
		"amount":   m.Amount,
		"insulin":  m.Insulin,
	}
}

func (m *MealSchedule) SetParam(name string, v float64) error {
	switch name {
	case "period":
		m.Period = v
	case "duration":
		m.Duration = v
	case "amount":
		m.Amount = v
	case "insulin":
		m.Insulin = v
	default:
		return fmt.Errorf("%w: meal schedule has no %q", dynamo.ErrUnknownParam, name)
	}
	return nil
}

// SquareWave injects Amplitude while sin(Omega t) > 0 and nothing otherwise.
type SquareWave struct {
	Amplitude float64
	Omega     float64
	Phase     float64
}

func NewSquareWave() *SquareWave {
	return &SquareWave{Amplitude: 30, Omega: 0.2}
}

func (s *SquareWave) Compute(x dynamo.State, t float64) dynamo.Input {
	if math.Sin(s.Omega*t+s.Phase) > 0 {
		return dynamo.Input{s.Amplitude}
	}
	return dynamo.Input{0}
}

func (s *SquareWave) GetParams() map[string]float64 {
	return map[string]float64{"amplitude": s.Amplitude, "omega": s.Omega, "phase": s.Phase}
}

func (s *SquareWave) SetParam(name string, v float64) error {
	switch name {
	case "amplitude":
		s.Amplitude = v
	case "omega":
		s.Omega = v
	case "phase":
		s.Phase = v
	default:
		return fmt.Errorf("%w: square wave has no %q", dynamo.ErrUnknownParam, name)
	}
	return nil
}
