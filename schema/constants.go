package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// SmoothingStrategy selects how the ACF is smoothed before peak finding.
	SmoothingStrategy string

	// CorrelationEstimator selects how the ACF is computed.
	CorrelationEstimator string

	// GapFillPolicy selects how empty cadence bins are filled.
	GapFillPolicy string

	// InputFormat selects how light-curve files are decoded.
	InputFormat string

	// FitSource tells which period estimate became the primary one.
	FitSource string

	// WarningCode flags a non-fatal condition on a result.
	WarningCode string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
	HTMLOut    OutputMode = "html"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All smoothing strategies supported.
const (
	GaussianSmoothing   SmoothingStrategy = "gaussian"
	PolynomialSmoothing SmoothingStrategy = "polynomial" // default, Savitzky-Golay
	NoSmoothing         SmoothingStrategy = "none"
)

// All correlation estimators supported.
const (
	ConvolutionEstimator         CorrelationEstimator = "convolution" // default
	LaggedCovarianceEstimator    CorrelationEstimator = "lagged-covariance"
	AutocovarianceRatioEstimator CorrelationEstimator = "autocovariance-ratio"
	FFTEstimator                 CorrelationEstimator = "fft"
)

// All gap fill policies supported.
const (
	ConstantFill GapFillPolicy = "constant" // default
	NoiseFill    GapFillPolicy = "noise"
	LinearFill   GapFillPolicy = "linear"
)

// All input formats supported.
const (
	AutoFormat    InputFormat = "auto" // default, decided by file extension
	CSVFormat     InputFormat = "csv"
	ParquetFormat InputFormat = "parquet"
)

// Sources of the primary period.
const (
	NaiveSource  FitSource = "naive"
	FittedSource FitSource = "fitted"
)

// Warning codes attached to results.
const (
	FitFailedWarning      WarningCode = "fit_failed"
	AliasSuspectedWarning WarningCode = "alias_suspected"
)

// Default values for the period finder.
const (
	DefaultPeakCount               = 10
	DefaultCorrelationFilterWindow = 11
	DefaultSmoothingWindowSize     = 21
	DefaultSigmaClip               = 3.0
	DefaultGaussianFWHM            = 7.0
	DefaultPolynomialOrder         = 2
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
	HTMLOut:    {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSmoothingStrategies lists all valid smoothing strategies.
var ValidSmoothingStrategies = map[SmoothingStrategy]struct{}{
	GaussianSmoothing:   {},
	PolynomialSmoothing: {},
	NoSmoothing:         {},
}

// ValidCorrelationEstimators lists all valid correlation estimators.
var ValidCorrelationEstimators = map[CorrelationEstimator]struct{}{
	ConvolutionEstimator:         {},
	LaggedCovarianceEstimator:    {},
	AutocovarianceRatioEstimator: {},
	FFTEstimator:                 {},
}

// ValidGapFillPolicies lists all valid gap fill policies.
var ValidGapFillPolicies = map[GapFillPolicy]struct{}{
	ConstantFill: {},
	NoiseFill:    {},
	LinearFill:   {},
}

// ValidInputFormats lists all valid input formats.
var ValidInputFormats = map[InputFormat]struct{}{
	AutoFormat:    {},
	CSVFormat:     {},
	ParquetFormat: {},
}

// ValidSmoothingParams lists the smoothing parameter names any strategy accepts.
var ValidSmoothingParams = map[string]struct{}{
	"fwhm":      {},
	"order":     {},
	"polyorder": {},
}
