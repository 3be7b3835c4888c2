package contract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/acfperiod/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRawInput mirrors the flag defaults registered by the find command.
func validRawInput() *ConfigRawInput {
	return &ConfigRawInput{
		Workers:      4,
		Precision:    DefaultPrecision,
		Output:       "text",
		CacheBackend: string(schema.SQLiteBackend),
		Emoji:        "no",
		Color:        "yes",
		Peaks:        schema.DefaultPeakCount,
		FilterWindow: schema.DefaultCorrelationFilterWindow,
		SmoothWindow: schema.DefaultSmoothingWindowSize,
		Smooth:       string(schema.PolynomialSmoothing),
		FillPolicy:   string(schema.ConstantFill),
		SigmaClip:    schema.DefaultSigmaClip,
		Estimator:    string(schema.ConvolutionEstimator),
		Format:       "auto",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		sentinel    error
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "invalid workers (zero)", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "invalid precision (zero)", mutate: func(in *ConfigRawInput) { in.Precision = 0 }, expectError: true},
		{name: "invalid precision (too high)", mutate: func(in *ConfigRawInput) { in.Precision = 7 }, expectError: true},
		{name: "invalid output format", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet output without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{name: "invalid emoji", mutate: func(in *ConfigRawInput) { in.Emoji = "maybe" }, expectError: true},
		{name: "invalid cache backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = "redis" }, expectError: true},
		{
			name:        "mysql backend without connection string",
			mutate:      func(in *ConfigRawInput) { in.CacheBackend = string(schema.MySQLBackend) },
			expectError: true,
		},
		{
			name: "mysql backend with connection string",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = string(schema.MySQLBackend)
				in.CacheDBConnect = "user:pass@tcp(localhost:3306)/acfperiod"
			},
		},
		{name: "none backend", mutate: func(in *ConfigRawInput) { in.CacheBackend = string(schema.NoneBackend) }},
		{
			name: "cache and analysis share sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.AnalysisBackend = string(schema.SQLiteBackend)
				in.CacheDBConnect = "/tmp/same.db"
				in.AnalysisDBConnect = "/tmp/same.db"
			},
			expectError: true,
		},
		{name: "unknown estimator", mutate: func(in *ConfigRawInput) { in.Estimator = "wavelet" }, expectError: true},
		{name: "unknown smoothing", mutate: func(in *ConfigRawInput) { in.Smooth = "median" }, expectError: true},
		{name: "unknown fill policy", mutate: func(in *ConfigRawInput) { in.FillPolicy = "zero" }, expectError: true},
		{name: "unknown input format", mutate: func(in *ConfigRawInput) { in.Format = "fits" }, expectError: true},
		{
			name:        "even smoothing window",
			mutate:      func(in *ConfigRawInput) { in.SmoothWindow = 20 },
			expectError: true,
			sentinel:    schema.ErrInvalidWindow,
		},
		{
			name:        "zero peaks",
			mutate:      func(in *ConfigRawInput) { in.Peaks = 0 },
			expectError: true,
			sentinel:    schema.ErrInvalidConfig,
		},
		{
			name:        "negative max lags",
			mutate:      func(in *ConfigRawInput) { in.MaxLags = -1 },
			expectError: true,
			sentinel:    schema.ErrInvalidLagRange,
		},
		{
			name:        "zero filter window rejected by struct tags",
			mutate:      func(in *ConfigRawInput) { in.FilterWindow = 0 },
			expectError: true,
			sentinel:    schema.ErrInvalidConfig,
		},
		{
			name:        "negative width rejected by struct tags",
			mutate:      func(in *ConfigRawInput) { in.Width = -5 },
			expectError: true,
			sentinel:    schema.ErrInvalidConfig,
		},
		{
			name:        "unknown plot format rejected by struct tags",
			mutate:      func(in *ConfigRawInput) { in.PlotFormat = "gif" },
			expectError: true,
			sentinel:    schema.ErrInvalidConfig,
		},
		{
			name:   "svg plot format",
			mutate: func(in *ConfigRawInput) { in.PlotFormat = "SVG" },
		},
		{
			name:   "smoothing disabled accepts any window",
			mutate: func(in *ConfigRawInput) { in.Smooth = "none"; in.SmoothWindow = 4 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRawInput()
			tt.mutate(input)

			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)

			if tt.expectError {
				assert.Error(t, err, "contract.ProcessAndValidate should return an error for %s", tt.name)
				if tt.sentinel != nil {
					assert.ErrorIs(t, err, tt.sentinel)
				}
				return
			}
			require.NoError(t, err, "contract.ProcessAndValidate should not return an error for %s", tt.name)
			assert.Equal(t, input.Workers, cfg.Workers)
			assert.Equal(t, input.Peaks, cfg.PeakCount)
			assert.Equal(t, DefaultTimeCol, cfg.TimeCol)
			assert.Equal(t, DefaultValueCol, cfg.ValueCol)
			assert.Equal(t, schema.AutoFormat, cfg.InputFormat)
		})
	}
}

func TestProcessAndValidateFinderConfig(t *testing.T) {
	input := validRawInput()
	input.MaxLags = 300
	input.Smooth = "GAUSSIAN"
	input.SmoothFWHM = 5
	input.Estimator = "fft"
	input.Fluxes = true
	input.Cadence = 0.02
	input.SearchInterval = 4

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, 300, cfg.MaxLags)
	assert.Equal(t, schema.GaussianSmoothing, cfg.SmoothingStrategy)
	assert.Equal(t, schema.FFTEstimator, cfg.Estimator)
	assert.Equal(t, map[string]float64{"fwhm": 5}, cfg.SmoothingParams)
	assert.True(t, cfg.ValuesAreFluxes)
	assert.InDelta(t, 0.02, cfg.ForcedCadence, 1e-12)
	assert.Equal(t, 4, cfg.SearchInterval())
}

func TestProcessSmoothingParamsPrecedence(t *testing.T) {
	input := validRawInput()
	input.SmoothingParams = map[string]float64{"FWHM": 3, "order": 4}
	input.SmoothParams = "fwhm:6"
	input.SmoothOrder = 3

	params, err := processSmoothingParams(input)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"fwhm": 6, "order": 3}, params)

	empty, err := processSmoothingParams(validRawInput())
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestParseSmoothingParamsString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[string]float64
		expectError bool
	}{
		{name: "single", input: "fwhm:5", expected: map[string]float64{"fwhm": 5}},
		{name: "multiple with spaces", input: " fwhm : 5 , Order:2 ", expected: map[string]float64{"fwhm": 5, "order": 2}},
		{name: "trailing comma", input: "fwhm:5,", expected: map[string]float64{"fwhm": 5}},
		{name: "missing value", input: "fwhm", expectError: true},
		{name: "bad number", input: "fwhm:wide", expectError: true},
		{name: "empty name", input: ":3", expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSmoothingParamsString(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestProcessInputFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.parquet", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))
	single := filepath.Join(dir, "b.csv")

	t.Run("directory expands sorted light curves", func(t *testing.T) {
		input := validRawInput()
		input.FilePaths = []string{dir}
		cfg := &Config{}
		require.NoError(t, processInputFiles(cfg, input))
		assert.Equal(t, []string{filepath.Join(dir, "a.parquet"), single}, cfg.Files)
	})

	t.Run("file passes through", func(t *testing.T) {
		input := validRawInput()
		input.FilePaths = []string{single}
		input.TimeCol = "BJD"
		cfg := &Config{}
		require.NoError(t, processInputFiles(cfg, input))
		assert.Equal(t, []string{single}, cfg.Files)
		assert.Equal(t, "BJD", cfg.TimeCol)
	})

	t.Run("missing path", func(t *testing.T) {
		input := validRawInput()
		input.FilePaths = []string{filepath.Join(dir, "absent.csv")}
		assert.Error(t, processInputFiles(&Config{}, input))
	})

	t.Run("directory without light curves", func(t *testing.T) {
		input := validRawInput()
		input.FilePaths = []string{t.TempDir()}
		assert.Error(t, processInputFiles(&Config{}, input))
	})

	t.Run("no paths is allowed", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, processInputFiles(cfg, validRawInput()))
		assert.Empty(t, cfg.Files)
	})
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "u:p@tcp(h:3306)/db", false},
		{"mysql missing tcp", schema.MySQLBackend, "u:p@h/db", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=h dbname=db", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=h", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Files: []string{"a.csv"}}
	cfg.FinderConfig = schema.DefaultFinderConfig()
	cfg.SmoothingParams = map[string]float64{"fwhm": 7}

	clone := cfg.Clone()
	clone.Files[0] = "b.csv"
	clone.SmoothingParams["fwhm"] = 1

	assert.Equal(t, "a.csv", cfg.Files[0])
	assert.InDelta(t, 7.0, cfg.SmoothingParams["fwhm"], 0)
}

func TestProcessProfilingConfig(t *testing.T) {
	var p ProfileConfig
	require.NoError(t, ProcessProfilingConfig(&p, ""))
	assert.False(t, p.Enabled)
	require.NoError(t, ProcessProfilingConfig(&p, "run1"))
	assert.True(t, p.Enabled)
	assert.Equal(t, "run1", p.Prefix)
}

func TestFormatValidationError(t *testing.T) {
	plain := errors.New("plain")
	assert.Equal(t, plain, formatValidationError(plain))

	err := validate.Struct(&Config{FinderConfig: schema.DefaultFinderConfig(), InputFormat: schema.AutoFormat, TimeCol: "t", ValueCol: "v", Precision: 1})
	require.Error(t, err)
	formatted := formatValidationError(err)
	assert.ErrorIs(t, formatted, schema.ErrInvalidConfig)
	assert.Contains(t, formatted.Error(), "Workers")
}
