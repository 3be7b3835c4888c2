package contract

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/acfperiod/schema"
)

// Default values for configuration.
const (
	DefaultPrecision  = 4
	MaxPrecision      = 6
	DefaultTimeCol    = "time"
	DefaultValueCol   = "mag"
	DefaultErrorCol   = "err"
	DefaultPlotFormat = "png"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// validate checks struct tags on Config and the embedded FinderConfig.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a period search.
// This struct is the "final, validated" config.
type Config struct {
	schema.FinderConfig

	Files       []string
	InputFormat schema.InputFormat `validate:"required"`
	TimeCol     string             `validate:"required"`
	ValueCol    string             `validate:"required"`
	ErrorCol    string

	Workers    int `validate:"gte=1"`
	Precision  int `validate:"gte=1,lte=6"`
	Output     schema.OutputMode
	OutputFile string
	Detail     bool
	Width      int    `validate:"gte=0"` // Terminal width override (0 = auto-detect)
	PlotDir    string // Directory for ACF plots (empty = no plots)
	PlotFormat string `validate:"oneof=png svg"`

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	FilePaths []string

	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile        string `mapstructure:"output-file"`
	Workers           int    `mapstructure:"workers"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	Detail            bool   `mapstructure:"detail"`
	Width             int    `mapstructure:"width"`
	PlotDir           string `mapstructure:"plot-dir"`
	PlotFormat        string `mapstructure:"plot-format"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`
	Emoji             string `mapstructure:"emoji"`
	Color             string `mapstructure:"color"`

	// --- Fields from findCmd.Flags() ---
	MaxLags        int     `mapstructure:"max-lags"`
	Peaks          int     `mapstructure:"peaks"`
	FillPolicy     string  `mapstructure:"fill-policy"`
	FillValue      float64 `mapstructure:"fill-value"`
	Cadence        float64 `mapstructure:"cadence"`
	FilterWindow   int     `mapstructure:"filter-window"`
	SmoothWindow   int     `mapstructure:"smooth-window"`
	Smooth         string  `mapstructure:"smooth"`
	SmoothFWHM     float64 `mapstructure:"smooth-fwhm"`
	SmoothOrder    int     `mapstructure:"smooth-order"`
	SmoothParams   string  `mapstructure:"smooth-params"`
	Fluxes         bool    `mapstructure:"fluxes"`
	SigmaClip      float64 `mapstructure:"sigma-clip"`
	Estimator      string  `mapstructure:"estimator"`
	SearchInterval int     `mapstructure:"search-interval"`
	Format         string  `mapstructure:"format"`
	TimeCol        string  `mapstructure:"time-col"`
	ValueCol       string  `mapstructure:"value-col"`
	ErrorCol       string  `mapstructure:"error-col"`

	// --- Smoothing parameters from config file ---
	SmoothingParams map[string]float64 `mapstructure:"smoothing-params"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.FinderConfig = c.FinderConfig.Clone()
	if c.Files != nil {
		clone.Files = slices.Clone(c.Files)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	// All validation functions read from 'input' and populate 'cfg'.
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFinderConfig(cfg, input); err != nil {
		return err
	}
	if err := processInputFiles(cfg, input); err != nil {
		return err
	}
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend != "" {
		if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
			return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
		}
		cfg.AnalysisDBConnect = input.AnalysisDBConnect
		if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
			return err
		}

		// Cache and analysis must not share a SQLite file
		if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
			cacheDBPath := cfg.CacheDBConnect
			if cacheDBPath == "" {
				cacheDBPath = GetCacheDBFilePath()
			}
			analysisDBPath := cfg.AnalysisDBConnect
			if analysisDBPath == "" {
				analysisDBPath = GetAnalysisDBFilePath()
			}
			if cacheDBPath == analysisDBPath {
				return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
			}
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.PlotDir = strings.TrimSpace(input.PlotDir)
	cfg.PlotFormat = strings.ToLower(defaultString(input.PlotFormat, DefaultPlotFormat))

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet, html", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 3. Backend Validation ---
	return validateBackendConfigs(cfg, input)
}

// processFinderConfig builds the embedded FinderConfig from the find flags.
func processFinderConfig(cfg *Config, input *ConfigRawInput) error {
	fc := schema.DefaultFinderConfig()
	fc.MaxLags = input.MaxLags
	fc.PeakCount = input.Peaks
	fc.GapFillValue = input.FillValue
	fc.ForcedCadence = input.Cadence
	fc.CorrelationFilterWindow = input.FilterWindow
	fc.SmoothingWindowSize = input.SmoothWindow
	fc.ValuesAreFluxes = input.Fluxes
	fc.SigmaClip = input.SigmaClip
	fc.PeakSearchInterval = input.SearchInterval

	if input.FillPolicy != "" {
		fc.GapFillPolicy = schema.GapFillPolicy(strings.ToLower(input.FillPolicy))
		if _, ok := schema.ValidGapFillPolicies[fc.GapFillPolicy]; !ok {
			return fmt.Errorf("invalid fill policy '%s'. must be constant, noise, linear", input.FillPolicy)
		}
	}
	if input.Smooth != "" {
		fc.SmoothingStrategy = schema.SmoothingStrategy(strings.ToLower(input.Smooth))
		if _, ok := schema.ValidSmoothingStrategies[fc.SmoothingStrategy]; !ok {
			return fmt.Errorf("invalid smoothing strategy '%s'. must be gaussian, polynomial, none", input.Smooth)
		}
	}
	if input.Estimator != "" {
		fc.Estimator = schema.CorrelationEstimator(strings.ToLower(input.Estimator))
		if _, ok := schema.ValidCorrelationEstimators[fc.Estimator]; !ok {
			return fmt.Errorf("invalid estimator '%s'. must be convolution, lagged-covariance, autocovariance-ratio, fft", input.Estimator)
		}
	}

	params, err := processSmoothingParams(input)
	if err != nil {
		return err
	}
	fc.SmoothingParams = params

	if err := fc.Validate(); err != nil {
		return err
	}
	cfg.FinderConfig = fc
	return nil
}

// processSmoothingParams merges smoothing parameters with increasing precedence:
// config file map, then --smooth-params, then the dedicated --smooth-fwhm and --smooth-order flags.
func processSmoothingParams(input *ConfigRawInput) (map[string]float64, error) {
	params := make(map[string]float64)
	for k, v := range input.SmoothingParams {
		params[strings.ToLower(k)] = v
	}

	if input.SmoothParams != "" {
		parsed, err := parseSmoothingParamsString(input.SmoothParams)
		if err != nil {
			return nil, fmt.Errorf("invalid --smooth-params format: %w", err)
		}
		maps.Copy(params, parsed)
	}

	if input.SmoothFWHM > 0 {
		params["fwhm"] = input.SmoothFWHM
	}
	if input.SmoothOrder > 0 {
		params["order"] = float64(input.SmoothOrder)
	}

	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}

// processInputFiles resolves positional arguments into light-curve files.
// Directories expand to the CSV and Parquet files directly inside them.
func processInputFiles(cfg *Config, input *ConfigRawInput) error {
	cfg.InputFormat = schema.AutoFormat
	if input.Format != "" {
		cfg.InputFormat = schema.InputFormat(strings.ToLower(input.Format))
		if _, ok := schema.ValidInputFormats[cfg.InputFormat]; !ok {
			return fmt.Errorf("invalid input format '%s'. must be auto, csv, parquet", input.Format)
		}
	}

	cfg.TimeCol = defaultString(input.TimeCol, DefaultTimeCol)
	cfg.ValueCol = defaultString(input.ValueCol, DefaultValueCol)
	cfg.ErrorCol = defaultString(input.ErrorCol, DefaultErrorCol)

	cfg.Files = nil
	for _, p := range input.FilePaths {
		files, err := expandInputPath(p)
		if err != nil {
			return err
		}
		cfg.Files = append(cfg.Files, files...)
	}
	if len(input.FilePaths) > 0 && len(cfg.Files) == 0 {
		return fmt.Errorf("no light-curve files found in %s", strings.Join(input.FilePaths, ", "))
	}
	return nil
}

// expandInputPath returns the file itself, or the light-curve files inside a directory.
func expandInputPath(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("cannot read input %q: %w", p, err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}

	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("cannot list input directory %q: %w", p, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".parquet":
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// formatValidationError turns validator failures into a single readable error.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (received %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", schema.ErrInvalidConfig, strings.Join(msgs, "; "))
}

// parseSmoothingParamsString parses a string like "fwhm:5,order:3"
// into a map of parameter name to value.
func parseSmoothingParamsString(s string) (map[string]float64, error) {
	params := make(map[string]float64)

	parts := strings.SplitSeq(s, ",")
	for part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid parameter format '%s', expected 'name:value'", part)
		}

		name := strings.ToLower(strings.TrimSpace(keyValue[0]))
		valueStr := strings.TrimSpace(keyValue[1])
		if name == "" {
			return nil, fmt.Errorf("empty parameter name in '%s'", part)
		}

		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value '%s' for parameter %s: %w", valueStr, name, err)
		}

		params[name] = value
	}

	return params, nil
}

func defaultString(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
