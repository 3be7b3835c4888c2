package refine

import (
	"math"
	"testing"

	"github.com/huangsam/acfperiod/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peakSet(bestIndex int, lags ...int) schema.PeakSet {
	ps := schema.PeakSet{BestIndex: bestIndex, BestLag: lags[bestIndex]}
	for i, lag := range lags {
		ps.Maxima = append(ps.Maxima, schema.Extremum{Index: lag, Lag: lag, Value: 1 - 0.1*float64(i)})
		ps.RelativeHeights = append(ps.RelativeHeights, 1)
	}
	return ps
}

// TestFitSamples checks the origin, the best lag, and later peaks are used.
func TestFitSamples(t *testing.T) {
	tests := []struct {
		name     string
		peaks    schema.PeakSet
		cadence  float64
		expected []schema.FitSample
	}{
		{
			name:    "first peak best",
			peaks:   peakSet(0, 50, 100, 150),
			cadence: 0.1,
			expected: []schema.FitSample{
				{Index: 0, Time: 0},
				{Index: 1, Time: 5},
				{Index: 2, Time: 10},
				{Index: 3, Time: 15},
			},
		},
		{
			name:    "second peak best skips the first",
			peaks:   peakSet(1, 25, 50, 75),
			cadence: 2,
			expected: []schema.FitSample{
				{Index: 0, Time: 0},
				{Index: 1, Time: 100},
				{Index: 2, Time: 150},
			},
		},
		{
			name:    "single peak",
			peaks:   peakSet(0, 40),
			cadence: 0.5,
			expected: []schema.FitSample{
				{Index: 0, Time: 0},
				{Index: 1, Time: 20},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := FitSamples(tt.peaks, tt.cadence)
			require.Len(t, samples, len(tt.expected))
			for i, s := range tt.expected {
				assert.InDelta(t, s.Index, samples[i].Index, 1e-12)
				assert.InDelta(t, s.Time, samples[i].Time, 1e-9)
			}
		})
	}
}

// TestFitSamplesOnlyConsidered checks maxima without heights are not fitted.
func TestFitSamplesOnlyConsidered(t *testing.T) {
	ps := peakSet(0, 10, 20, 30, 40)
	ps.RelativeHeights = ps.RelativeHeights[:2]
	samples := FitSamples(ps, 1)
	assert.Len(t, samples, 3)
}

// TestFitLine checks coefficients and scaled covariance.
func TestFitLine(t *testing.T) {
	samples := []schema.FitSample{{Index: 0, Time: 0}, {Index: 1, Time: 1.1}, {Index: 2, Time: 1.9}, {Index: 3, Time: 3.2}}
	slope, intercept, cov, err := FitLine(samples)
	require.NoError(t, err)
	assert.InDelta(t, 1.04, slope, 1e-12)
	assert.InDelta(t, -0.01, intercept, 1e-12)
	assert.InDelta(t, 0.0042, cov[0][0], 1e-12)
	assert.InDelta(t, -0.0063, cov[0][1], 1e-12)
	assert.InDelta(t, -0.0063, cov[1][0], 1e-12)
	assert.InDelta(t, 0.0147, cov[1][1], 1e-12)
}

// TestFitLineExact checks a perfect line has zero covariance.
func TestFitLineExact(t *testing.T) {
	slope, intercept, cov, err := FitLine([]schema.FitSample{{Index: 0, Time: 1}, {Index: 1, Time: 3}, {Index: 2, Time: 5}})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, slope, 1e-12)
	assert.InDelta(t, 1.0, intercept, 1e-12)
	assert.InDelta(t, 0.0, cov[0][0], 1e-12)
}

// TestFitLineTwoPoints checks the exact two-point line has NaN covariance.
func TestFitLineTwoPoints(t *testing.T) {
	slope, intercept, cov, err := FitLine([]schema.FitSample{{Index: 0, Time: 0}, {Index: 1, Time: 4.2}})
	require.NoError(t, err)
	assert.InDelta(t, 4.2, slope, 1e-12)
	assert.InDelta(t, 0.0, intercept, 1e-12)
	assert.True(t, math.IsNaN(cov[0][0]))
	assert.True(t, math.IsNaN(cov[1][1]))
}

// TestFitLineErrors covers the unsolvable fits.
func TestFitLineErrors(t *testing.T) {
	tests := []struct {
		name    string
		samples []schema.FitSample
	}{
		{"empty", nil},
		{"single", []schema.FitSample{{Index: 0, Time: 0}}},
		{"same index", []schema.FitSample{{Index: 1, Time: 2}, {Index: 1, Time: 3}, {Index: 1, Time: 4}}},
		{"nan time", []schema.FitSample{{Index: 0, Time: 0}, {Index: 1, Time: math.NaN()}}},
		{"infinite index", []schema.FitSample{{Index: 0, Time: 0}, {Index: math.Inf(1), Time: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := FitLine(tt.samples)
			assert.ErrorIs(t, err, schema.ErrFitFailure)
		})
	}
}

// TestDecide checks the tagged primary-period decision.
func TestDecide(t *testing.T) {
	source, best := Decide(4.9, 5.0)
	assert.Equal(t, schema.FittedSource, source)
	assert.Equal(t, 4.9, best)

	source, best = Decide(math.NaN(), 5.0)
	assert.Equal(t, schema.NaiveSource, source)
	assert.Equal(t, 5.0, best)

	source, best = Decide(math.Inf(1), 5.0)
	assert.Equal(t, schema.NaiveSource, source)
	assert.Equal(t, 5.0, best)
}

// TestAliasSuspected checks the alias warning and its float tolerance.
func TestAliasSuspected(t *testing.T) {
	tests := []struct {
		name     string
		fit      float64
		naive    float64
		expected bool
	}{
		{"shorter fit", 4.86, 5.0, true},
		{"equal", 5.0, 5.0, false},
		{"rounding noise", 5.0 - 1e-13, 5.0, false},
		{"inside tolerance", 5.0 * (1 - 5e-10), 5.0, false},
		{"past tolerance", 5.0 * (1 - 2e-9), 5.0, true},
		{"longer fit", 5.1, 5.0, false},
		{"nan fit", math.NaN(), 5.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AliasSuspected(tt.fit, tt.naive))
		})
	}
}

// TestEstimateRegularPeaks checks evenly spaced peaks give the exact period.
func TestEstimateRegularPeaks(t *testing.T) {
	est := Estimate(peakSet(0, 50, 100, 150, 200), 0.1)
	assert.InDelta(t, 5.0, est.NaivePeriod, 1e-12)
	assert.InDelta(t, 5.0, est.FitPeriod, 1e-9)
	assert.InDelta(t, 0.0, est.FitPeriodStdErr, 1e-6)
	assert.Equal(t, schema.FittedSource, est.Source)
	assert.InDelta(t, 5.0, est.BestPeriod, 1e-9)
	assert.False(t, est.AliasSuspected)
	assert.False(t, est.FitFailed)
	assert.Len(t, est.FitSamples, 5)
}

// TestEstimateAlias checks a shrinking peak spacing raises the alias warning.
func TestEstimateAlias(t *testing.T) {
	est := Estimate(peakSet(0, 50, 98, 146), 0.1)
	assert.InDelta(t, 4.86, est.FitPeriod, 1e-9)
	assert.InDelta(t, math.Sqrt(0.0012), est.FitPeriodStdErr, 1e-9)
	assert.InDelta(t, 0.06, est.FitCoefficients[1], 1e-9)
	assert.True(t, est.AliasSuspected)
	assert.Equal(t, schema.FittedSource, est.Source)
}

// TestEstimateDegraded checks a failed fit falls back to the naive period.
func TestEstimateDegraded(t *testing.T) {
	est := estimate(5.0, []schema.FitSample{{Index: 0, Time: 0}})
	assert.True(t, est.FitFailed)
	assert.False(t, est.AliasSuspected)
	assert.Equal(t, schema.NaiveSource, est.Source)
	assert.Equal(t, 5.0, est.BestPeriod)
	assert.True(t, math.IsNaN(est.FitPeriod))
	assert.True(t, math.IsNaN(est.FitPeriodStdErr))
	for i := range 2 {
		assert.True(t, math.IsNaN(est.FitCoefficients[i]))
		for j := range 2 {
			assert.True(t, math.IsNaN(est.FitCovariance[i][j]))
		}
	}
}

// TestEstimateTwoPoints checks a lone peak still yields a fitted period.
func TestEstimateTwoPoints(t *testing.T) {
	est := Estimate(peakSet(0, 40), 0.25)
	assert.False(t, est.FitFailed)
	assert.InDelta(t, 10.0, est.FitPeriod, 1e-12)
	assert.True(t, math.IsNaN(est.FitPeriodStdErr))
	assert.Equal(t, schema.FittedSource, est.Source)
	assert.False(t, est.AliasSuspected)
}
