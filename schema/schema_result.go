package schema

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
)

// PeriodResult is the record returned for one light curve.
type PeriodResult struct {
	Name               string        `json:"name"`
	Method             string        `json:"method"`
	BestPeriod         float64       `json:"best_period"`
	BestPeakHeight     float64       `json:"best_peak_height"`
	NaivePeriod        float64       `json:"naive_period"`
	FitPeriod          float64       `json:"fit_period"`
	FitPeriodStdErr    float64       `json:"fit_period_stderr"`
	FitCoefficients    [2]float64    `json:"fit_coefficients"`
	FitCovariance      [2][2]float64 `json:"fit_covariance"`
	FitSource          FitSource     `json:"fit_source"`
	PeakCount          int           `json:"peak_count"`
	Cadence            float64       `json:"cadence"`
	Lags               []int         `json:"lags,omitempty"`
	Periods            []float64     `json:"periods,omitempty"`
	ACF                []float64     `json:"acf,omitempty"`
	SmoothedACF        []float64     `json:"smoothed_acf,omitempty"`
	Peaks              PeakSet       `json:"peaks"`
	// AliasSuspected is set when FitPeriod falls below NaivePeriod by more
	// than a relative 1e-9; equal periods never raise it.
	AliasSuspected     bool          `json:"alias_suspected"`
	FitFailed          bool          `json:"fit_failed"`
	Warnings           []WarningCode `json:"warnings,omitempty"`
	Config             FinderConfig  `json:"config"`
	NumInputPoints     int           `json:"num_input_points"`
	NumResampledPoints int           `json:"num_resampled_points"`
}

// MethodACF labels results produced by the autocorrelation method.
const MethodACF = "acf"

// HasWarning reports whether the result carries the given warning.
func (r PeriodResult) HasWarning(code WarningCode) bool {
	return slices.Contains(r.Warnings, code)
}

// WithoutSequences returns a copy with the per-lag arrays dropped.
func (r PeriodResult) WithoutSequences() PeriodResult {
	r.Lags = nil
	r.Periods = nil
	r.ACF = nil
	r.SmoothedACF = nil
	return r
}

// JSONFloat encodes non-finite values as null and decodes null as NaN.
type JSONFloat float64

// MarshalJSON implements json.Marshaler.
func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *JSONFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = JSONFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = JSONFloat(v)
	return nil
}

// periodResultJSON shadows the fields that may hold NaN.
type periodResultJSON struct {
	periodResultPlain
	FitPeriod       JSONFloat       `json:"fit_period"`
	FitPeriodStdErr JSONFloat       `json:"fit_period_stderr"`
	FitCoefficients [2]JSONFloat    `json:"fit_coefficients"`
	FitCovariance   [2][2]JSONFloat `json:"fit_covariance"`
}

type periodResultPlain PeriodResult

// MarshalJSON writes fit fields that failed as null.
func (r PeriodResult) MarshalJSON() ([]byte, error) {
	out := periodResultJSON{
		periodResultPlain: periodResultPlain(r),
		FitPeriod:         JSONFloat(r.FitPeriod),
		FitPeriodStdErr:   JSONFloat(r.FitPeriodStdErr),
	}
	for i := range 2 {
		out.FitCoefficients[i] = JSONFloat(r.FitCoefficients[i])
		for j := range 2 {
			out.FitCovariance[i][j] = JSONFloat(r.FitCovariance[i][j])
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads null fit fields back as NaN.
func (r *PeriodResult) UnmarshalJSON(b []byte) error {
	nan := JSONFloat(math.NaN())
	in := periodResultJSON{
		FitPeriod:       nan,
		FitPeriodStdErr: nan,
		FitCoefficients: [2]JSONFloat{nan, nan},
		FitCovariance:   [2][2]JSONFloat{{nan, nan}, {nan, nan}},
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = PeriodResult(in.periodResultPlain)
	r.FitPeriod = float64(in.FitPeriod)
	r.FitPeriodStdErr = float64(in.FitPeriodStdErr)
	for i := range 2 {
		r.FitCoefficients[i] = float64(in.FitCoefficients[i])
		for j := range 2 {
			r.FitCovariance[i][j] = float64(in.FitCovariance[i][j])
		}
	}
	return nil
}

// FileOutcome pairs a light-curve source with its result or failure.
type FileOutcome struct {
	Path     string        `json:"path"`
	Result   *PeriodResult `json:"result,omitempty"`
	Err      error         `json:"-"`
	ErrorMsg string        `json:"error,omitempty"`
	Cached   bool          `json:"cached"`
}

// Failed reports whether the pipeline returned an error for this source.
func (o FileOutcome) Failed() bool {
	return o.Err != nil || o.Result == nil
}
