package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is the one-sided amplitude spectrum of a series sampled every Dt.
// Freqs are in cycles per unit of simulated time.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// ComputeSpectrum removes the mean from vals and transforms the rest. It
// returns nil for fewer than two samples or a non-positive dt.
func ComputeSpectrum(vals []float64, dt float64) *Spectrum {
	n := len(vals)
	if n < 2 || dt <= 0 {
		return nil
	}

	mean := stat.Mean(vals, nil)
	centered := make([]float64, n)
	for i, v := range vals {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	s := &Spectrum{
		Freqs: make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		s.Freqs[i] = fft.Freq(i) / dt
		s.Power[i] = cmplx.Abs(c)
	}
	return s
}

// minPower separates a real peak from rounding left over by mean removal.
const minPower = 1e-9

// Peak returns the index of the strongest non-zero frequency.
func (s *Spectrum) Peak() (int, bool) {
	best, bestPower := 0, minPower
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > bestPower {
			best, bestPower = i, s.Power[i]
		}
	}
	return best, best > 0
}

// DominantPeriod returns the period of the strongest oscillation in vals.
// ok is false when the series is constant or too short.
func DominantPeriod(vals []float64, dt float64) (float64, bool) {
	s := ComputeSpectrum(vals, dt)
	if s == nil {
		return 0, false
	}
	i, ok := s.Peak()
	if !ok {
		return 0, false
	}
	return 1 / s.Freqs[i], true
}
