// Package acf computes normalized autocorrelation functions of uniformly sampled series.
package acf

import (
	"fmt"
	"math"

	"github.com/huangsam/acfperiod/schema"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Correlator turns a gap-filled value sequence into an ACF with ACF[0] == 1.
// A maxLags of zero or less means every lag up to len(values)-1.
type Correlator interface {
	Correlate(values []float64, maxLags int) (schema.ACFSequence, error)
	Name() schema.CorrelationEstimator
}

// New returns the correlator for the given estimator.
func New(est schema.CorrelationEstimator) (Correlator, error) {
	switch est {
	case schema.ConvolutionEstimator, "":
		return ConvolutionCorrelator{}, nil
	case schema.LaggedCovarianceEstimator:
		return LaggedCovarianceCorrelator{}, nil
	case schema.AutocovarianceRatioEstimator:
		return AutocovarianceRatioCorrelator{}, nil
	case schema.FFTEstimator:
		return FFTCorrelator{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown correlation estimator %q", schema.ErrInvalidConfig, est)
	}
}

// ConvolutionCorrelator correlates the de-meaned series with itself directly
// and divides by the zero-lag term. Summation order is fixed, so results are
// bit-reproducible.
type ConvolutionCorrelator struct{}

// Name implements Correlator.
func (ConvolutionCorrelator) Name() schema.CorrelationEstimator { return schema.ConvolutionEstimator }

// Correlate implements Correlator.
func (ConvolutionCorrelator) Correlate(values []float64, maxLags int) (schema.ACFSequence, error) {
	x, lags, err := prepare(values, maxLags)
	if err != nil {
		return schema.ACFSequence{}, err
	}
	out := make([]float64, lags+1)
	for k := range out {
		out[k] = lagProduct(x, k)
	}
	return normalize(out)
}

// LaggedCovarianceCorrelator averages lagged products over the overlap length,
// following the Kim et al. estimator.
type LaggedCovarianceCorrelator struct{}

// Name implements Correlator.
func (LaggedCovarianceCorrelator) Name() schema.CorrelationEstimator {
	return schema.LaggedCovarianceEstimator
}

// Correlate implements Correlator.
func (LaggedCovarianceCorrelator) Correlate(values []float64, maxLags int) (schema.ACFSequence, error) {
	x, lags, err := prepare(values, maxLags)
	if err != nil {
		return schema.ACFSequence{}, err
	}
	n := len(x)
	out := make([]float64, lags+1)
	for k := range out {
		out[k] = lagProduct(x, k) / float64(n-k)
	}
	return normalize(out)
}

// AutocovarianceRatioCorrelator divides the lagged covariance by the variance
// of the overlapping head of the series (correlogram definition).
type AutocovarianceRatioCorrelator struct{}

// Name implements Correlator.
func (AutocovarianceRatioCorrelator) Name() schema.CorrelationEstimator {
	return schema.AutocovarianceRatioEstimator
}

// Correlate implements Correlator.
func (AutocovarianceRatioCorrelator) Correlate(values []float64, maxLags int) (schema.ACFSequence, error) {
	x, lags, err := prepare(values, maxLags)
	if err != nil {
		return schema.ACFSequence{}, err
	}
	n := len(x)
	out := make([]float64, lags+1)
	for k := range out {
		var head float64
		for i := 0; i < n-k; i++ {
			head += x[i] * x[i]
		}
		den := head / float64(n)
		if den == 0 {
			// head of the series is flat; no information at this lag
			out[k] = 0
			continue
		}
		out[k] = (lagProduct(x, k) / float64(n-k)) / den
	}
	return normalize(out)
}

// FFTCorrelator computes the same sums as ConvolutionCorrelator through a
// zero-padded power spectrum. It is O(n log n) but not bit-identical.
type FFTCorrelator struct{}

// Name implements Correlator.
func (FFTCorrelator) Name() schema.CorrelationEstimator { return schema.FFTEstimator }

// Correlate implements Correlator.
func (FFTCorrelator) Correlate(values []float64, maxLags int) (schema.ACFSequence, error) {
	x, lags, err := prepare(values, maxLags)
	if err != nil {
		return schema.ACFSequence{}, err
	}
	size := 1
	for size < 2*len(x) {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, x)

	fft := fourier.NewFFT(size)
	coeff := fft.Coefficients(nil, padded)
	for i, c := range coeff {
		re, im := real(c), imag(c)
		coeff[i] = complex(re*re+im*im, 0)
	}
	seq := fft.Sequence(nil, coeff)

	out := make([]float64, lags+1)
	copy(out, seq[:lags+1])
	return normalize(out)
}

// prepare validates the input and returns the de-meaned series and the highest lag.
func prepare(values []float64, maxLags int) ([]float64, int, error) {
	n := len(values)
	if n <= 1 {
		return nil, 0, fmt.Errorf("%w: need at least 2 samples, got %d", schema.ErrInsufficientData, n)
	}
	lags := n - 1
	if maxLags > 0 {
		if maxLags >= n {
			return nil, 0, fmt.Errorf("%w: max lag %d must be below series length %d", schema.ErrInvalidLagRange, maxLags, n)
		}
		lags = maxLags
	}
	mean := stat.Mean(values, nil)
	x := make([]float64, n)
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, fmt.Errorf("%w: non-finite value at index %d", schema.ErrInsufficientData, i)
		}
		x[i] = v - mean
	}
	return x, lags, nil
}

// lagProduct returns the sum of x[i]*x[i+k] over the overlap.
func lagProduct(x []float64, k int) float64 {
	var sum float64
	for i := 0; i+k < len(x); i++ {
		sum += x[i] * x[i+k]
	}
	return sum
}

// normalize divides by the zero-lag term and pins it to exactly 1.
func normalize(raw []float64) (schema.ACFSequence, error) {
	zero := raw[0]
	if !(zero > 0) || math.IsInf(zero, 0) {
		return schema.ACFSequence{}, fmt.Errorf("%w: series has zero variance", schema.ErrInsufficientData)
	}
	seq := schema.ACFSequence{
		Lags:   make([]int, len(raw)),
		Values: make([]float64, len(raw)),
	}
	for k, v := range raw {
		seq.Lags[k] = k
		seq.Values[k] = v / zero
	}
	seq.Values[0] = 1
	return seq, nil
}
