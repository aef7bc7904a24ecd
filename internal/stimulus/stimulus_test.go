package stimulus

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNone(t *testing.T) {
	u := NewNone(3).Compute(nil, 5)
	assert.Equal(t, dynamo.Input{0, 0, 0}, u)
}

func TestConstantCopies(t *testing.T) {
	c := NewConstant(1, 2)
	u := c.Compute(nil, 0)
	u[0] = 99
	assert.Equal(t, dynamo.Input{1, 2}, c.Compute(nil, 1))
}

func TestMealSchedule(t *testing.T) {
	m := NewMealSchedule()
	m.Insulin = 0.5

	tests := []struct {
		t      float64
		eating bool
	}{
		{0, false},
		{5, false},
		{8.99, false},
		{9.0, true},
		{9.5, true},
		{10.5, false},
		{19.5, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.eating, m.Eating(tt.t), "t=%g", tt.t)
	}

	assert.Equal(t, dynamo.Input{1, 0.5}, m.Compute(nil, 9.5))
	assert.Equal(t, dynamo.Input{0, 0}, m.Compute(nil, 3))
}

func TestMealScheduleParams(t *testing.T) {
	m := NewMealSchedule()
	require.NoError(t, m.SetParam("amount", 0.5))
	assert.Equal(t, 0.5, m.GetParams()["amount"])
	assert.True(t, errors.Is(m.SetParam("calories", 1), dynamo.ErrUnknownParam))
}

func TestSquareWave(t *testing.T) {
	s := NewSquareWave()

	// sin(t/5) is positive on (0, 5 pi)
	assert.Equal(t, dynamo.Input{30}, s.Compute(nil, 1))
	assert.Equal(t, dynamo.Input{30}, s.Compute(nil, 15))
	assert.Equal(t, dynamo.Input{0}, s.Compute(nil, 16))
	assert.Equal(t, dynamo.Input{0}, s.Compute(nil, 0))

	require.NoError(t, s.SetParam("amplitude", 10))
	assert.Equal(t, dynamo.Input{10}, s.Compute(nil, 1))
	assert.Error(t, s.SetParam("duty", 0.5))
}

func TestManual(t *testing.T) {
	m := NewManual(2)
	m.Set(1, 4)
	m.Set(5, 1)
	assert.Equal(t, dynamo.Input{0, 4}, m.Compute(nil, 0))
	assert.Equal(t, 4.0, m.Get(1))
	assert.Equal(t, 0.0, m.Get(7))
}

func TestFeedback(t *testing.T) {
	p := NewFeedback(2, 0, 1)
	p.Kp, p.Ki, p.Target = 2, 1, 1

	// first call is proportional only
	assert.Equal(t, dynamo.Input{0, 4}, p.Compute(dynamo.State{3, 0}, 0))
	// error 2 over dt 0.5 integrates to 1
	assert.InDelta(t, 2*2+1*1, p.Compute(dynamo.State{3, 0}, 0.5)[1], 1e-12)
	// same time again: no new history
	assert.InDelta(t, 2*2+1*1, p.Compute(dynamo.State{3, 0}, 0.5)[1], 1e-12)

	// below target the dose clamps at zero and the integral holds
	assert.Equal(t, dynamo.Input{0, 0}, p.Compute(dynamo.State{-10, 0}, 1))
	assert.InDelta(t, 1.0, p.integral, 1e-12)

	p.Reset()
	assert.Equal(t, dynamo.Input{0, 4}, p.Compute(dynamo.State{3, 0}, 7))
}

func TestFeedbackDerivative(t *testing.T) {
	p := NewFeedback(1, 0, 0)
	p.Kp, p.Kd = 0, 1
	p.Lo = math.Inf(-1)
	p.Compute(dynamo.State{0}, 0)
	assert.InDelta(t, 4.0, p.Compute(dynamo.State{2}, 0.5)[0], 1e-12)
	assert.InDelta(t, -2.0, p.Compute(dynamo.State{1}, 1)[0], 1e-12)
}

func TestFeedbackParams(t *testing.T) {
	p := NewFeedback(2, 0, 0)
	require.NoError(t, p.SetParam("channel", 1))
	require.NoError(t, p.SetParam("target", 0.5))
	assert.Equal(t, 1, p.Channel)
	assert.Equal(t, 0.5, p.GetParams()["target"])
	assert.Equal(t, 1.0, p.GetParams()["channel"])
	assert.Equal(t, 0.0, p.GetParams()["component"])
	assert.ErrorIs(t, p.SetParam("channel", 0.5), dynamo.ErrParameterBounds)
	assert.ErrorIs(t, p.SetParam("gain", 1), dynamo.ErrUnknownParam)

	// out of range channel produces no drive
	require.NoError(t, p.SetParam("channel", 4))
	assert.Equal(t, dynamo.Input{0, 0}, p.Compute(dynamo.State{9}, 0))
}

func TestSum(t *testing.T) {
	meals := NewMealSchedule()
	pump := NewFeedback(2, 0, 1)
	s := NewSum(2, meals, pump, NewConstant(0.5))

	assert.Equal(t, dynamo.Input{1.5, 2}, s.Compute(dynamo.State{2, 0}, 9.5))

	require.NoError(t, s.SetParam("amount", 3))
	require.NoError(t, s.SetParam("kp", 2))
	assert.Equal(t, 3.0, meals.Amount)
	assert.Equal(t, 2.0, pump.Kp)
	assert.ErrorIs(t, s.SetParam("volume", 1), dynamo.ErrUnknownParam)
	assert.Contains(t, s.GetParams(), "period")
	assert.Contains(t, s.GetParams(), "target")
}

func TestFeedbackFit(t *testing.T) {
	p := NewFeedback(2, 0, 1)
	require.NoError(t, p.Fit(2))

	p.Component = 2
	assert.ErrorIs(t, p.Fit(2), dynamo.ErrDimensionMismatch)

	p.Component, p.Channel = 0, 2
	assert.ErrorIs(t, p.Fit(2), dynamo.ErrDimensionMismatch)

	// a sum checks every part
	s := NewSum(2, NewMealSchedule(), p)
	assert.ErrorIs(t, s.Fit(2), dynamo.ErrDimensionMismatch)
	p.Channel = 1
	assert.NoError(t, s.Fit(2))
}

func TestStateFeedback(t *testing.T) {
	f := NewStateFeedback(2, 2)
	f.K[1][0], f.K[1][1] = -1, 0.5
	f.Target[0] = 0.5
	f.Lo = 0

	// u1 = (G - 0.5) - 0.5*I
	u := f.Compute(dynamo.State{2, 1}, 0)
	assert.Equal(t, 0.0, u[0])
	assert.InDelta(t, 1.0, u[1], 1e-12)

	// below target the dose clamps at zero
	assert.Equal(t, dynamo.Input{0, 0}, f.Compute(dynamo.State{0, 1}, 0))

	f.Hi = 0.25
	assert.Equal(t, 0.25, f.Compute(dynamo.State{2, 1}, 0)[1])
}

func TestStateFeedbackParams(t *testing.T) {
	f := NewStateFeedback(2, 2)
	require.NoError(t, f.SetParam("k1_0", -2))
	require.NoError(t, f.SetParam("target0", 0.5))
	require.NoError(t, f.SetParam("lo", 0))
	assert.Equal(t, -2.0, f.K[1][0])
	assert.Equal(t, 0.5, f.Target[0])

	params := f.GetParams()
	assert.Equal(t, -2.0, params["k1_0"])
	assert.Equal(t, 0.5, params["target0"])
	assert.Contains(t, params, "k0_1")

	for _, name := range []string{"k2_0", "k0_5", "k1_0x", "kp", "target9", "gain"} {
		assert.ErrorIs(t, f.SetParam(name, 1), dynamo.ErrUnknownParam, name)
	}

	require.NoError(t, f.Fit(2))
	require.NoError(t, f.Fit(3))
	f.K[0][1] = 1
	assert.ErrorIs(t, f.Fit(1), dynamo.ErrDimensionMismatch)
}
