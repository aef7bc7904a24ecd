package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/integrators"
	"github.com/san-kum/biodyn/internal/models"
)

func TestInvariantDriftOnSIR(t *testing.T) {
	sir := models.NewSIR()
	m := NewInvariantDrift(sir)

	sim := dynamo.New(sir, integrators.NewRK4(), nil)
	sim.AddMetric(m)

	res, err := sim.Run(context.Background(), sir.DefaultState(), dynamo.Config{Dt: 0.1, Duration: 50})
	if err != nil {
		t.Fatal(err)
	}
	drift := res.Metrics["invariant_drift"]
	if drift > 1e-10 {
		t.Errorf("population drifted by %g", drift)
	}
}

func TestInvariantDriftMeasuresChange(t *testing.T) {
	m := NewInvariantDrift(models.NewSIR())
	m.Observe(dynamo.State{90, 10, 0}, nil, 0)
	m.Observe(dynamo.State{90, 10, 5}, nil, 1)
	m.Observe(dynamo.State{90, 10, 1}, nil, 2)

	if math.Abs(m.Value()-0.05) > 1e-12 {
		t.Errorf("expected drift 0.05, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestTailMean(t *testing.T) {
	m := NewTailMean("mean_G", 0, 5)
	for i := 0; i <= 10; i++ {
		m.Observe(dynamo.State{float64(i)}, nil, float64(i))
	}
	// mean of 5..10
	if m.Value() != 7.5 {
		t.Errorf("expected 7.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestPeak(t *testing.T) {
	m := NewPeak("peak_I", 1)
	if !math.IsNaN(m.Value()) {
		t.Error("expected NaN before any observation")
	}

	for i, v := range []float64{1, 4, 9, 3} {
		m.Observe(dynamo.State{0, v}, nil, float64(i)/2)
	}
	if m.Value() != 9 || m.Time() != 1 {
		t.Errorf("expected peak 9 at t=1, got %f at %f", m.Value(), m.Time())
	}
}

func TestDepletionIsTotalInfected(t *testing.T) {
	sir := models.NewSIR()
	m := NewDepletion("total_infected", 0)

	sim := dynamo.New(sir, integrators.NewRK4(), nil)
	sim.AddMetric(m)
	res, err := sim.Run(context.Background(), sir.DefaultState(), dynamo.Config{Dt: 0.1, Duration: 100})
	if err != nil {
		t.Fatal(err)
	}

	// everyone who left S was infected at some point
	want := res.States[0][0] - res.Final()[0]
	if math.Abs(res.Metrics["total_infected"]-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, res.Metrics["total_infected"])
	}
	if want <= 0 {
		t.Error("epidemic with R0 > 1 should infect someone")
	}
}

func TestBounded(t *testing.T) {
	m := NewBounded("in_range", 0, 1, 0)
	m.Observe(dynamo.State{0.5, 7}, nil, 0)
	m.Observe(dynamo.State{1.5, 0}, nil, 1)

	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	all := NewBounded("all", 0, 1)
	all.Observe(dynamo.State{0.5, 7}, nil, 0)
	if all.Value() != 0 {
		t.Errorf("expected 0 when any component leaves the bound, got %f", all.Value())
	}

	all.Reset()
	if all.Value() != 1 {
		t.Error("expected 1 with no samples")
	}
}

func TestInputLoad(t *testing.T) {
	m := NewInputLoad()
	m.Observe(nil, dynamo.Input{1, -1}, 0)
	m.Observe(nil, dynamo.Input{0, 0}, 1)

	if m.Value() != 1 {
		t.Errorf("expected 1, got %f", m.Value())
	}
}
