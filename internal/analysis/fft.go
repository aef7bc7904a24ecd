package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoOscillation is returned when a signal has no spectral peak above DC.
var ErrNoOscillation = errors.New("analysis: no oscillation in signal")

// PowerSpectrum returns |X_k|^2 for k = 0..n/2 of the mean-removed signal.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	centred := make([]float64, len(data))
	copy(centred, data)
	floats.AddConst(-stat.Mean(data, nil), centred)

	fft := fourier.NewFFT(len(data))
	coeff := fft.Coefficients(nil, centred)

	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		a := cmplx.Abs(c)
		ps[i] = a * a
	}
	return ps
}

// DominantPeriod is the period, in time units of the sample spacing dt, of
// the strongest non-DC component.
func DominantPeriod(data []float64, dt float64) (float64, error) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0, ErrNoOscillation
	}
	k := floats.MaxIdx(ps[1:]) + 1
	if ps[k] <= 1e-12*floats.Sum(ps) {
		return 0, ErrNoOscillation
	}
	fft := fourier.NewFFT(len(data))
	return dt / fft.Freq(k), nil
}
