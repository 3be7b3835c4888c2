// Package refine turns the selected ACF peak into naive and fitted period estimates.
package refine

import (
	"fmt"
	"math"

	"github.com/huangsam/acfperiod/schema"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// aliasTolerance is the relative margin below the naive period a fitted
// period must fall to raise an alias warning.
const aliasTolerance = 1e-9

// FitSamples builds the (peak index, lag time) points of the period fit:
// the origin, the best lag, then every considered maximum past the best lag.
func FitSamples(peaks schema.PeakSet, cadence float64) []schema.FitSample {
	samples := []schema.FitSample{
		{Index: 0, Time: 0},
		{Index: 1, Time: float64(peaks.BestLag) * cadence},
	}
	for _, mx := range peaks.Considered() {
		if mx.Lag > peaks.BestLag {
			samples = append(samples, schema.FitSample{
				Index: float64(len(samples)),
				Time:  float64(mx.Lag) * cadence,
			})
		}
	}
	return samples
}

// FitLine fits time = slope*index + intercept by least squares and returns
// the coefficient covariance, scaled by the residual variance. With exactly
// two points the line is exact and the covariance is NaN.
func FitLine(samples []schema.FitSample) (slope, intercept float64, cov [2][2]float64, err error) {
	n := len(samples)
	xs := make([]float64, n)
	ys := make([]float64, n)
	distinct := make(map[float64]struct{}, n)
	for i, s := range samples {
		if !schema.IsFinite(s.Index) || !schema.IsFinite(s.Time) {
			return 0, 0, cov, fmt.Errorf("%w: non-finite sample %d", schema.ErrFitFailure, i)
		}
		xs[i], ys[i] = s.Index, s.Time
		distinct[s.Index] = struct{}{}
	}
	if len(distinct) < 2 {
		return 0, 0, cov, fmt.Errorf("%w: need 2 distinct peak indices, got %d", schema.ErrFitFailure, len(distinct))
	}

	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	if !schema.IsFinite(slope) || !schema.IsFinite(intercept) {
		return 0, 0, cov, fmt.Errorf("%w: non-finite coefficients", schema.ErrFitFailure)
	}

	design := mat.NewDense(n, 2, nil)
	for i, x := range xs {
		design.Set(i, 0, x)
		design.Set(i, 1, 1)
	}
	var xtx, inv mat.Dense
	xtx.Mul(design.T(), design)
	if err := inv.Inverse(&xtx); err != nil {
		return 0, 0, cov, fmt.Errorf("%w: %v", schema.ErrFitFailure, err)
	}

	scale := math.NaN()
	if n > 2 {
		var ssr float64
		for i, x := range xs {
			r := ys[i] - (intercept + slope*x)
			ssr += r * r
		}
		scale = ssr / float64(n-2)
	}
	for i := range 2 {
		for j := range 2 {
			cov[i][j] = inv.At(i, j) * scale
		}
	}
	return slope, intercept, cov, nil
}

// Decide picks the primary period: the fit when it is finite, else the naive one.
func Decide(fit, naive float64) (schema.FitSource, float64) {
	if schema.IsFinite(fit) {
		return schema.FittedSource, fit
	}
	return schema.NaiveSource, naive
}

// AliasSuspected reports whether the fitted period sits below the naive one
// by more than aliasTolerance, relative to naive.
func AliasSuspected(fit, naive float64) bool {
	return schema.IsFinite(fit) && fit < naive*(1-aliasTolerance)
}

// Estimate refines the best lag of peaks into a period estimate. A failed
// fit never returns an error; it degrades to the naive period instead.
func Estimate(peaks schema.PeakSet, cadence float64) schema.PeriodEstimate {
	naive := float64(peaks.BestLag) * cadence
	return estimate(naive, FitSamples(peaks, cadence))
}

func estimate(naive float64, samples []schema.FitSample) schema.PeriodEstimate {
	est := schema.PeriodEstimate{
		NaivePeriod: naive,
		FitSamples:  samples,
	}
	slope, intercept, cov, err := FitLine(samples)
	if err != nil {
		nan := math.NaN()
		est.FitPeriod = nan
		est.FitPeriodStdErr = nan
		est.FitCoefficients = [2]float64{nan, nan}
		est.FitCovariance = [2][2]float64{{nan, nan}, {nan, nan}}
		est.Source = schema.NaiveSource
		est.BestPeriod = naive
		est.FitFailed = true
		return est
	}
	est.FitPeriod = slope
	est.FitPeriodStdErr = math.Sqrt(cov[0][0])
	est.FitCoefficients = [2]float64{slope, intercept}
	est.FitCovariance = cov
	est.Source, est.BestPeriod = Decide(slope, naive)
	est.AliasSuspected = AliasSuspected(slope, naive)
	return est
}
