package schema

import "errors"

// Sentinel errors for every stage of the period finder.
// Callers wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrResamplingFailed means the resampler could not produce a uniform series.
	ErrResamplingFailed = errors.New("resampling failed")

	// ErrInsufficientData means the series is too short, constant, or has no ACF peaks.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidLagRange means the requested maximum lag does not fit the series.
	ErrInvalidLagRange = errors.New("invalid lag range")

	// ErrInvalidWindow means a smoothing window is even, below 3, or too long.
	ErrInvalidWindow = errors.New("invalid smoothing window")

	// ErrInsufficientBracketing means a selected ACF maximum has no minimum on one side.
	ErrInsufficientBracketing = errors.New("insufficient bracketing minima")

	// ErrFitFailure means the period line fit could not be solved.
	// It never aborts a run; the naive period is used instead.
	ErrFitFailure = errors.New("period fit failed")

	// ErrInvalidConfig means a finder parameter is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)
