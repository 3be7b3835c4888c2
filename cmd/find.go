package cmd

import (
	"github.com/huangsam/acfperiod/core"
	"github.com/spf13/cobra"
)

// findCmd runs the period search over light-curve files.
var findCmd = &cobra.Command{
	Use:   "find <file-or-dir>...",
	Short: "Estimate the rotation period of each light curve",
	Long: `Estimate the dominant period of one or more light curves.

Each light curve is resampled onto a uniform grid, autocorrelated, smoothed,
and searched for ACF maxima. The period is the slope of a line fitted to the
lags of the strongest maxima, with the first peak as a fallback.

Inputs may be CSV or Parquet files, or directories holding them. CSV columns
are picked by header name (--time-col, --value-col, --error-col); headerless
files are read as time, value and error by position.

Results for unchanged files are served from the cache.

Examples:
  # Find the period of one light curve
  acfperiod find kic1234.csv

  # Every light curve in a directory, as JSON with plots
  acfperiod find data/ --output json --plot-dir plots

  # Gaussian smoothing with the FFT estimator
  acfperiod find kic1234.csv --smooth gaussian --smooth-fwhm 9 --estimator fft`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecutePeriodFind(rootCtx, cfg, cacheManager)
	},
}
