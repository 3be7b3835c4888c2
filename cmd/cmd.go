// Package cmd defines the command-line interface for acfperiod.
package cmd

import (
	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Bool("detail", false, "Print per-series metadata (cadence, points, maxima, fit source)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet or html")
	rootCmd.PersistentFlags().StringP("output-file", "o", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("plot-dir", "", "Directory to write one ACF plot per light curve")
	rootCmd.PersistentFlags().String("plot-format", contract.DefaultPlotFormat, "Plot image format: png or svg")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in output headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")

	// Finder tuning is shared by find and mcp
	rootCmd.PersistentFlags().Int("max-lags", 0, "Largest lag to correlate (0 = half the resampled length)")
	rootCmd.PersistentFlags().IntP("peaks", "k", schema.DefaultPeakCount, "Number of ACF maxima used for the period fit")
	rootCmd.PersistentFlags().String("fill-policy", string(schema.ConstantFill), "Gap fill policy: constant or noise or linear")
	rootCmd.PersistentFlags().Float64("fill-value", 0, "Value used by the constant gap fill policy")
	rootCmd.PersistentFlags().Float64("cadence", 0, "Force the resampling cadence in days (0 = median spacing)")
	rootCmd.PersistentFlags().Int("filter-window", schema.DefaultCorrelationFilterWindow, "Running median window used for outlier clipping")
	rootCmd.PersistentFlags().Int("smooth-window", schema.DefaultSmoothingWindowSize, "Odd smoothing window in lags (0 = no smoothing)")
	rootCmd.PersistentFlags().String("smooth", string(schema.PolynomialSmoothing), "Smoothing strategy: gaussian or polynomial or none")
	rootCmd.PersistentFlags().Float64("smooth-fwhm", 0, "Gaussian kernel FWHM in lags (0 = default)")
	rootCmd.PersistentFlags().Int("smooth-order", 0, "Savitzky-Golay polynomial order (0 = default)")
	rootCmd.PersistentFlags().String("smooth-params", "", "Smoothing parameters (format: 'fwhm:7,order:2')")
	rootCmd.PersistentFlags().Bool("fluxes", false, "Treat values as fluxes rather than magnitudes")
	rootCmd.PersistentFlags().Float64("sigma-clip", schema.DefaultSigmaClip, "Clip samples this many MADs from the running median (0 = off)")
	rootCmd.PersistentFlags().String("estimator", string(schema.ConvolutionEstimator), "ACF estimator: convolution or lagged-covariance or autocovariance-ratio or fft")
	rootCmd.PersistentFlags().Int("search-interval", 0, "Half-width for local extrema (0 = half the smoothing window)")
	rootCmd.PersistentFlags().String("format", string(schema.AutoFormat), "Input format: auto or csv or parquet")
	rootCmd.PersistentFlags().String("time-col", contract.DefaultTimeCol, "CSV column holding sample times")
	rootCmd.PersistentFlags().String("value-col", contract.DefaultValueCol, "CSV column holding magnitudes or fluxes")
	rootCmd.PersistentFlags().String("error-col", contract.DefaultErrorCol, "CSV column holding measurement errors")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// synth flags are read straight from cobra; their names overlap the finder's
	synthCmd.Flags().String("name", "synthetic", "Name of the light curve")
	synthCmd.Flags().Float64("period", 5.0, "Period of the sinusoid in days")
	synthCmd.Flags().Float64("step", 0.1, "Sampling cadence in days")
	synthCmd.Flags().Int("points", 1000, "Number of samples")
	synthCmd.Flags().Float64("amplitude", 1.0, "Amplitude of the sinusoid")
	synthCmd.Flags().Float64("offset", 0, "Constant added to every sample")
	synthCmd.Flags().Float64("noise", 0, "Standard deviation of the Gaussian noise")
	synthCmd.Flags().Float64("gap-fraction", 0, "Probability that a sample is dropped")
	synthCmd.Flags().Uint64("seed", 1, "Random seed")

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
