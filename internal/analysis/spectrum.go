package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of each real FFT coefficient of xs
// after removing its mean. Bin i lies at i/(len(xs)*dt) Hz.
func PowerSpectrum(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	mean := stat.Mean(xs, nil)
	centred := make([]float64, len(xs))
	for i, x := range xs {
		centred[i] = x - mean
	}
	coeffs := fourier.NewFFT(len(xs)).Coefficients(nil, centred)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-zero
// bin of xs sampled every dt seconds, or 0 for fewer than four samples.
func DominantFrequency(xs []float64, dt float64) float64 {
	if len(xs) < 4 || dt <= 0 {
		return 0
	}
	ps := PowerSpectrum(xs)
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	if ps[best] == 0 {
		return 0
	}
	return float64(best) / (float64(len(xs)) * dt)
}
