package acf

import (
	"math"
	"testing"

	"github.com/huangsam/acfperiod/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineSeries(n int, cadence, period float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * float64(i) * cadence / period)
	}
	return out
}

func allCorrelators() []Correlator {
	return []Correlator{
		ConvolutionCorrelator{},
		LaggedCovarianceCorrelator{},
		AutocovarianceRatioCorrelator{},
		FFTCorrelator{},
	}
}

// TestNew tests the estimator factory.
func TestNew(t *testing.T) {
	tests := []struct {
		est      schema.CorrelationEstimator
		expected schema.CorrelationEstimator
	}{
		{schema.ConvolutionEstimator, schema.ConvolutionEstimator},
		{"", schema.ConvolutionEstimator},
		{schema.LaggedCovarianceEstimator, schema.LaggedCovarianceEstimator},
		{schema.AutocovarianceRatioEstimator, schema.AutocovarianceRatioEstimator},
		{schema.FFTEstimator, schema.FFTEstimator},
	}
	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			c, err := New(tt.est)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c.Name())
		})
	}

	_, err := New("wavelet")
	assert.ErrorIs(t, err, schema.ErrInvalidConfig)
}

// TestLagZeroIsOne checks that every estimator pins lag 0 to exactly 1.
func TestLagZeroIsOne(t *testing.T) {
	inputs := map[string][]float64{
		"sine":     sineSeries(200, 0.1, 5),
		"ramp":     {1, 2, 3, 4, 5, 6, 7},
		"two":      {3, -3},
		"offset":   {1e6 + 1, 1e6 - 2, 1e6 + 0.5, 1e6 + 3},
		"spiky":    {0, 0, 0, 10, 0, 0, 0},
		"negative": {-5, -7, -1, -9, -2},
	}
	for _, c := range allCorrelators() {
		for name, values := range inputs {
			t.Run(string(c.Name())+"/"+name, func(t *testing.T) {
				seq, err := c.Correlate(values, 0)
				require.NoError(t, err)
				assert.Len(t, seq.Values, len(values))
				assert.Equal(t, 1.0, seq.Values[0])
				for k, lag := range seq.Lags {
					assert.Equal(t, k, lag)
				}
			})
		}
	}
}

// TestCorrelateMaxLags checks the output length for a lag cap.
func TestCorrelateMaxLags(t *testing.T) {
	values := sineSeries(100, 0.1, 5)
	for _, c := range allCorrelators() {
		t.Run(string(c.Name()), func(t *testing.T) {
			seq, err := c.Correlate(values, 30)
			require.NoError(t, err)
			assert.Equal(t, 31, seq.Len())
			assert.Equal(t, 30, seq.Lags[30])
		})
	}
}

// TestCorrelateErrors covers the rejected inputs.
func TestCorrelateErrors(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		maxLags  int
		expected error
	}{
		{"empty", nil, 0, schema.ErrInsufficientData},
		{"single sample", []float64{1}, 0, schema.ErrInsufficientData},
		{"lag equal to length", []float64{1, 2, 3}, 3, schema.ErrInvalidLagRange},
		{"lag above length", []float64{1, 2, 3}, 10, schema.ErrInvalidLagRange},
		{"constant", []float64{2, 2, 2, 2}, 0, schema.ErrInsufficientData},
		{"nan", []float64{1, math.NaN(), 3}, 0, schema.ErrInsufficientData},
	}
	for _, c := range allCorrelators() {
		for _, tt := range tests {
			t.Run(string(c.Name())+"/"+tt.name, func(t *testing.T) {
				_, err := c.Correlate(tt.values, tt.maxLags)
				assert.ErrorIs(t, err, tt.expected)
			})
		}
	}
}

// TestConvolutionKnownValues checks a hand-computed sequence.
func TestConvolutionKnownValues(t *testing.T) {
	// de-meaned: -1.5 -0.5 0.5 1.5, sum of squares 5
	seq, err := ConvolutionCorrelator{}.Correlate([]float64{1, 2, 3, 4}, 0)
	require.NoError(t, err)
	expected := []float64{1, 0.25, -0.3, -0.45}
	for k, v := range expected {
		assert.InDelta(t, v, seq.Values[k], 1e-12, "lag %d", k)
	}
}

// TestLaggedCovarianceKnownValues checks the overlap-averaged estimator.
func TestLaggedCovarianceKnownValues(t *testing.T) {
	seq, err := LaggedCovarianceCorrelator{}.Correlate([]float64{1, 2, 3, 4}, 0)
	require.NoError(t, err)
	// c(0)=5/4, c(1)=1.25/3, c(2)=-1.5/2, c(3)=-2.25/1
	expected := []float64{1, (1.25 / 3) / 1.25, (-1.5 / 2) / 1.25, -2.25 / 1.25}
	for k, v := range expected {
		assert.InDelta(t, v, seq.Values[k], 1e-12, "lag %d", k)
	}
}

// TestFFTMatchesConvolution checks both paths compute the same correlation.
func TestFFTMatchesConvolution(t *testing.T) {
	values := sineSeries(257, 0.1, 3.3)
	for i := range values {
		values[i] += 0.1 * math.Cos(float64(i))
	}
	direct, err := ConvolutionCorrelator{}.Correlate(values, 120)
	require.NoError(t, err)
	fft, err := FFTCorrelator{}.Correlate(values, 120)
	require.NoError(t, err)
	require.Equal(t, direct.Len(), fft.Len())
	for k := range direct.Values {
		assert.InDelta(t, direct.Values[k], fft.Values[k], 1e-9, "lag %d", k)
	}
}

// TestCorrelateSinePeak checks the first ACF peak sits at the period.
func TestCorrelateSinePeak(t *testing.T) {
	values := sineSeries(1000, 0.1, 5)
	for _, c := range allCorrelators() {
		t.Run(string(c.Name()), func(t *testing.T) {
			seq, err := c.Correlate(values, 300)
			require.NoError(t, err)
			best := 30
			for k := 30; k <= 70; k++ {
				if seq.Values[k] > seq.Values[best] {
					best = k
				}
			}
			assert.Equal(t, 50, best)
			assert.Less(t, seq.Values[25], 0.0)
		})
	}
}

// TestCorrelateDoesNotMutateInput checks the input slice is left alone.
func TestCorrelateDoesNotMutateInput(t *testing.T) {
	values := []float64{4, 1, 3, 9, 2}
	original := append([]float64(nil), values...)
	for _, c := range allCorrelators() {
		_, err := c.Correlate(values, 0)
		require.NoError(t, err)
		assert.Equal(t, original, values)
	}
}
