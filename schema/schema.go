// Package schema holds the data model shared by the period finder, its stores and its outputs.
package schema

import (
	"fmt"
	"maps"
	"math"
)

// TimeSeries is a raw, possibly irregular light curve.
// Missing samples carry NaN in any of the three columns.
type TimeSeries struct {
	Name   string    `json:"name,omitempty"`
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
	Errors []float64 `json:"errors,omitempty"`
}

// Len returns the number of samples.
func (ts TimeSeries) Len() int {
	return len(ts.Times)
}

// Validate checks that the columns line up.
func (ts TimeSeries) Validate() error {
	if len(ts.Values) != len(ts.Times) {
		return fmt.Errorf("%w: %d times but %d values", ErrInsufficientData, len(ts.Times), len(ts.Values))
	}
	if len(ts.Errors) != 0 && len(ts.Errors) != len(ts.Times) {
		return fmt.Errorf("%w: %d times but %d errors", ErrInsufficientData, len(ts.Times), len(ts.Errors))
	}
	return nil
}

// ErrorAt returns the error for sample i, or zero when no error column exists.
func (ts TimeSeries) ErrorAt(i int) float64 {
	if len(ts.Errors) == 0 {
		return 0
	}
	return ts.Errors[i]
}

// GapFilledSeries is a series on a uniform time grid with no missing values.
type GapFilledSeries struct {
	Times   []float64 `json:"times"`
	Values  []float64 `json:"values"`
	Cadence float64   `json:"cadence"`
}

// Validate checks the uniform-grid invariants of a resampled series.
func (gs GapFilledSeries) Validate() error {
	if len(gs.Times) != len(gs.Values) {
		return fmt.Errorf("%w: %d times but %d values", ErrResamplingFailed, len(gs.Times), len(gs.Values))
	}
	if !(gs.Cadence > 0) || math.IsInf(gs.Cadence, 0) {
		return fmt.Errorf("%w: cadence must be positive and finite, got %v", ErrResamplingFailed, gs.Cadence)
	}
	for i, v := range gs.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrResamplingFailed, i)
		}
		if i > 0 && !(gs.Times[i] > gs.Times[i-1]) {
			return fmt.Errorf("%w: times not strictly increasing at index %d", ErrResamplingFailed, i)
		}
	}
	return nil
}

// ACFSequence is an autocorrelation function indexed by integer lag, lag 0 first.
type ACFSequence struct {
	Lags   []int     `json:"lags"`
	Values []float64 `json:"values"`
}

// Len returns the number of lags.
func (a ACFSequence) Len() int {
	return len(a.Values)
}

// Clone returns a deep copy.
func (a ACFSequence) Clone() ACFSequence {
	return ACFSequence{
		Lags:   append([]int(nil), a.Lags...),
		Values: append([]float64(nil), a.Values...),
	}
}

// Extremum is a local maximum or minimum of the smoothed ACF.
type Extremum struct {
	Index int     `json:"index"`
	Lag   int     `json:"lag"`
	Value float64 `json:"value"`
}

// PeakSet is everything the peak extractor found and decided.
type PeakSet struct {
	Maxima          []Extremum `json:"maxima"`
	Minima          []Extremum `json:"minima"`
	RelativeHeights []float64  `json:"relative_heights"`
	BestIndex       int        `json:"best_index"`
	BestLag         int        `json:"best_lag"`
	BestPeakHeight  float64    `json:"best_peak_height"`
	SearchInterval  int        `json:"search_interval"`
}

// Considered returns the maxima that received a relative height.
func (ps PeakSet) Considered() []Extremum {
	return ps.Maxima[:len(ps.RelativeHeights)]
}

// FitSample is one (peak index, lag time) point of the period line fit.
type FitSample struct {
	Index float64 `json:"index"`
	Time  float64 `json:"time"`
}

// PeriodEstimate is the outcome of the period refiner.
// Fit fields are NaN when FitFailed is set.
type PeriodEstimate struct {
	NaivePeriod     float64       `json:"naive_period"`
	FitPeriod       float64       `json:"fit_period"`
	FitPeriodStdErr float64       `json:"fit_period_stderr"`
	FitCoefficients [2]float64    `json:"fit_coefficients"`
	FitCovariance   [2][2]float64 `json:"fit_covariance"`
	FitSamples      []FitSample   `json:"fit_samples"`
	Source          FitSource     `json:"fit_source"`
	BestPeriod      float64       `json:"best_period"`
	AliasSuspected  bool          `json:"alias_suspected"`
	FitFailed       bool          `json:"fit_failed"`
}

// FinderConfig holds every tunable of the period finder.
// A zero MaxLags or SmoothingWindowSize means "not set".
type FinderConfig struct {
	MaxLags                 int                  `json:"max_lags" validate:"gte=0"`
	PeakCount               int                  `json:"peak_count" validate:"gte=1"`
	GapFillPolicy           GapFillPolicy        `json:"gap_fill_policy" validate:"required"`
	GapFillValue            float64              `json:"gap_fill_value"`
	ForcedCadence           float64              `json:"forced_cadence" validate:"gte=0"`
	CorrelationFilterWindow int                  `json:"correlation_filter_window" validate:"gte=1"`
	SmoothingWindowSize     int                  `json:"smoothing_window_size" validate:"gte=0"`
	SmoothingStrategy       SmoothingStrategy    `json:"smoothing_strategy" validate:"required"`
	SmoothingParams         map[string]float64   `json:"smoothing_params,omitempty"`
	ValuesAreFluxes         bool                 `json:"values_are_fluxes"`
	SigmaClip               float64              `json:"sigma_clip" validate:"gte=0"`
	Estimator               CorrelationEstimator `json:"estimator" validate:"required"`
	PeakSearchInterval      int                  `json:"peak_search_interval" validate:"gte=0"`
}

// DefaultFinderConfig returns the finder defaults.
func DefaultFinderConfig() FinderConfig {
	return FinderConfig{
		PeakCount:               DefaultPeakCount,
		GapFillPolicy:           ConstantFill,
		CorrelationFilterWindow: DefaultCorrelationFilterWindow,
		SmoothingWindowSize:     DefaultSmoothingWindowSize,
		SmoothingStrategy:       PolynomialSmoothing,
		SigmaClip:               DefaultSigmaClip,
		Estimator:               ConvolutionEstimator,
	}
}

// Clone returns a deep copy of the config.
func (c FinderConfig) Clone() FinderConfig {
	clone := c
	if c.SmoothingParams != nil {
		clone.SmoothingParams = make(map[string]float64, len(c.SmoothingParams))
		maps.Copy(clone.SmoothingParams, c.SmoothingParams)
	}
	return clone
}

// Validate checks the finder parameters before any stage runs.
func (c FinderConfig) Validate() error {
	if c.MaxLags < 0 {
		return fmt.Errorf("%w: max lags must be non-negative, got %d", ErrInvalidLagRange, c.MaxLags)
	}
	if c.PeakCount < 1 {
		return fmt.Errorf("%w: peak count must be at least 1, got %d", ErrInvalidConfig, c.PeakCount)
	}
	if c.PeakSearchInterval < 0 {
		return fmt.Errorf("%w: search interval must be non-negative, got %d", ErrInvalidConfig, c.PeakSearchInterval)
	}
	if _, ok := ValidGapFillPolicies[c.GapFillPolicy]; !ok {
		return fmt.Errorf("%w: unknown gap fill policy %q", ErrInvalidConfig, c.GapFillPolicy)
	}
	if _, ok := ValidSmoothingStrategies[c.SmoothingStrategy]; !ok {
		return fmt.Errorf("%w: unknown smoothing strategy %q", ErrInvalidConfig, c.SmoothingStrategy)
	}
	if _, ok := ValidCorrelationEstimators[c.Estimator]; !ok {
		return fmt.Errorf("%w: unknown correlation estimator %q", ErrInvalidConfig, c.Estimator)
	}
	if c.SmoothingWindowSize < 0 {
		return fmt.Errorf("%w: smoothing window must be non-negative, got %d", ErrInvalidWindow, c.SmoothingWindowSize)
	}
	if c.SmoothingEnabled() && (c.SmoothingWindowSize < 3 || c.SmoothingWindowSize%2 == 0) {
		return fmt.Errorf("%w: smoothing window must be odd and at least 3, got %d", ErrInvalidWindow, c.SmoothingWindowSize)
	}
	if !IsFinite(c.GapFillValue) || !IsFinite(c.ForcedCadence) || !IsFinite(c.SigmaClip) {
		return fmt.Errorf("%w: fill value, cadence and sigma clip must be finite", ErrInvalidConfig)
	}
	for key, v := range c.SmoothingParams {
		if _, ok := ValidSmoothingParams[key]; !ok {
			return fmt.Errorf("%w: unknown smoothing parameter %q", ErrInvalidConfig, key)
		}
		if (key == "order" || key == "polyorder") && (!IsFinite(v) || v != math.Trunc(v)) {
			return fmt.Errorf("%w: smoothing %s must be an integer, got %v", ErrInvalidConfig, key, v)
		}
	}
	return nil
}

// SmoothingEnabled reports whether the ACF is smoothed before peak finding.
func (c FinderConfig) SmoothingEnabled() bool {
	return c.SmoothingStrategy != NoSmoothing && c.SmoothingWindowSize > 0
}

// SearchInterval returns the half-width used to decide local extrema.
func (c FinderConfig) SearchInterval() int {
	if c.PeakSearchInterval > 0 {
		return c.PeakSearchInterval
	}
	if c.SmoothingEnabled() && c.SmoothingWindowSize/2 >= 1 {
		return c.SmoothingWindowSize / 2
	}
	return 1
}

// ResampleOptions is the slice of FinderConfig the resampler needs.
func (c FinderConfig) ResampleOptions() ResampleOptions {
	return ResampleOptions{
		FillPolicy:      c.GapFillPolicy,
		FillValue:       c.GapFillValue,
		ForcedCadence:   c.ForcedCadence,
		SigmaClip:       c.SigmaClip,
		ValuesAreFluxes: c.ValuesAreFluxes,
		FilterWindow:    c.CorrelationFilterWindow,
	}
}

// ResampleOptions controls how a raw series becomes a gap-filled one.
type ResampleOptions struct {
	FillPolicy      GapFillPolicy
	FillValue       float64
	ForcedCadence   float64
	SigmaClip       float64
	ValuesAreFluxes bool
	FilterWindow    int
}
