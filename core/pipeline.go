package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/acfperiod/core/acf"
	"github.com/huangsam/acfperiod/core/peaks"
	"github.com/huangsam/acfperiod/core/refine"
	"github.com/huangsam/acfperiod/core/smooth"
	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/schema"
)

// FindPeriod estimates the dominant period of one light curve with the
// McQuillan ACF method: resample, correlate, smooth, extract peaks, refine.
//
// Every stage failure aborts with a wrapped schema sentinel and no result.
// A failed period fit is the one exception: the result falls back to the
// naive period and carries the fit_failed warning.
func FindPeriod(ctx context.Context, series schema.TimeSeries, cfg schema.FinderConfig, rs contract.Resampler) (schema.PeriodResult, error) {
	if err := cfg.Validate(); err != nil {
		return schema.PeriodResult{}, err
	}
	correlator, err := acf.New(cfg.Estimator)
	if err != nil {
		return schema.PeriodResult{}, err
	}
	smoother, err := newSmoother(cfg)
	if err != nil {
		return schema.PeriodResult{}, err
	}

	// --- 1. Resample ---
	gs, err := rs.Resample(series, cfg.ResampleOptions())
	if err == nil {
		err = gs.Validate()
	}
	if err != nil {
		if !errors.Is(err, schema.ErrResamplingFailed) {
			err = fmt.Errorf("%w: %w", schema.ErrResamplingFailed, err)
		}
		return schema.PeriodResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return schema.PeriodResult{}, err
	}

	// --- 2. Correlate ---
	raw, err := correlator.Correlate(gs.Values, cfg.MaxLags)
	if err != nil {
		return schema.PeriodResult{}, err
	}

	// --- 3. Smooth ---
	smoothed := raw.Clone()
	if cfg.SmoothingEnabled() {
		smoothed.Values, err = smoother.Smooth(raw.Values, cfg.SmoothingWindowSize)
		if err != nil {
			return schema.PeriodResult{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return schema.PeriodResult{}, err
	}

	// --- 4. Extract peaks ---
	ps, err := peaks.Extract(smoothed, cfg.PeakCount, cfg.SearchInterval())
	if err != nil {
		return schema.PeriodResult{}, err
	}

	// --- 5. Refine ---
	est := refine.Estimate(ps, gs.Cadence)

	result := assembleResult(series, cfg, gs, raw, smoothed, ps, est)
	if !isQuiet(ctx) {
		logResultWarnings(result)
	}
	return result, nil
}

func newSmoother(cfg schema.FinderConfig) (smooth.Smoother, error) {
	if !cfg.SmoothingEnabled() {
		return smooth.Identity{}, nil
	}
	return smooth.New(cfg.SmoothingStrategy, cfg.SmoothingParams)
}

// assembleResult builds the exposed record from the stage outputs.
func assembleResult(
	series schema.TimeSeries,
	cfg schema.FinderConfig,
	gs schema.GapFilledSeries,
	raw, smoothed schema.ACFSequence,
	ps schema.PeakSet,
	est schema.PeriodEstimate,
) schema.PeriodResult {
	periods := make([]float64, len(raw.Lags))
	for i, lag := range raw.Lags {
		periods[i] = float64(lag) * gs.Cadence
	}

	var warnings []schema.WarningCode
	if est.FitFailed {
		warnings = append(warnings, schema.FitFailedWarning)
	}
	if est.AliasSuspected {
		warnings = append(warnings, schema.AliasSuspectedWarning)
	}

	return schema.PeriodResult{
		Name:               series.Name,
		Method:             schema.MethodACF,
		BestPeriod:         est.BestPeriod,
		BestPeakHeight:     ps.BestPeakHeight,
		NaivePeriod:        est.NaivePeriod,
		FitPeriod:          est.FitPeriod,
		FitPeriodStdErr:    est.FitPeriodStdErr,
		FitCoefficients:    est.FitCoefficients,
		FitCovariance:      est.FitCovariance,
		FitSource:          est.Source,
		PeakCount:          cfg.PeakCount,
		Cadence:            gs.Cadence,
		Lags:               raw.Lags,
		Periods:            periods,
		ACF:                raw.Values,
		SmoothedACF:        smoothed.Values,
		Peaks:              ps,
		AliasSuspected:     est.AliasSuspected,
		FitFailed:          est.FitFailed,
		Warnings:           warnings,
		Config:             cfg.Clone(),
		NumInputPoints:     series.Len(),
		NumResampledPoints: len(gs.Values),
	}
}

func logResultWarnings(r schema.PeriodResult) {
	name := r.Name
	if name == "" {
		name = "series"
	}
	if r.FitFailed {
		contract.LogWarn(fmt.Sprintf("%s: linear fit to peak lags failed", name),
			fmt.Errorf("%w: using naive period %.5f", schema.ErrFitFailure, r.NaivePeriod))
	}
	if r.AliasSuspected {
		contract.LogWarn(fmt.Sprintf("%s: fit period may be an alias", name),
			fmt.Errorf("fit period %.5f is below naive period %.5f", r.FitPeriod, r.NaivePeriod))
	}
}
