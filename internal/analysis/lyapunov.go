package analysis

import (
	"math"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent by following a
// companion trajectory at distance d0 and renormalising the separation
// after every step (Benettin's method). Trajectories converging to a
// stable fixed point give the real part of its leading eigenvalue, a
// stable limit cycle gives a value near zero.
func LyapunovExponent(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	d0 float64,
) float64 {
	if len(x0) == 0 || d0 <= 0 {
		return 0
	}
	return lyapunovForPerturbation(sys, integ, x0, unit(len(x0), 0), dt, duration, d0)
}

// LyapunovSpectrum estimates the separation rate along each coordinate
// direction. Without reorthonormalisation every direction eventually
// aligns with the leading one, so it only resolves short-time rates.
func LyapunovSpectrum(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	d0 float64,
) []float64 {
	spectrum := make([]float64, len(x0))
	for i := range spectrum {
		spectrum[i] = lyapunovForPerturbation(sys, integ, x0, unit(len(x0), i), dt, duration, d0)
	}
	return spectrum
}

func unit(n, i int) dynamo.State {
	e := make(dynamo.State, n)
	e[i] = 1
	return e
}

func lyapunovForPerturbation(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0, dir dynamo.State,
	dt, duration, d0 float64,
) float64 {
	x := x0.Clone()
	xp := x0.Add(dir.Scale(d0))
	u := make(dynamo.Input, sys.InputDim())

	steps := int(math.Round(duration / dt))
	if steps == 0 {
		return 0
	}

	sumLog := 0.0
	for i := 0; i < steps; i++ {
		t := float64(i) * dt
		x = integ.Step(sys, x, u, t, dt)
		xp = integ.Step(sys, xp, u, t, dt)

		sep := xp.Sub(x).Norm()
		if sep == 0 || math.IsNaN(sep) {
			return math.Inf(-1)
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for k := range xp {
			xp[k] = x[k] + (xp[k]-x[k])*scale
		}
	}

	return sumLog / (float64(steps) * dt)
}
