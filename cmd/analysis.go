package cmd

import (
	"fmt"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/internal/iocache"
	"github.com/huangsam/acfperiod/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analysisBackendConfig reads the analysis backend and connection string from
// viper. An unset backend disables tracking.
func analysisBackendConfig() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(viper.GetString("analysis-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	connStr := viper.GetString("analysis-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// analysisSetup opens the analysis store without touching the result cache.
func analysisSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := analysisBackendConfig()
	if err != nil {
		return err
	}
	if err := iocache.InitCaching("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// analysisMigrateSetup resolves the target database but leaves its tables
// alone, so migrations can start from an empty schema.
func analysisMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := analysisBackendConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetAnalysisDBFilePath()
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	return nil
}

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage the history of find runs",
	Long: `Each find run with an analysis backend records the run settings and one
period result per light curve. These commands inspect, export, reset and
migrate that history.`,
}

var analysisClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete every recorded run and period result",
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, contract.GetAnalysisDBFilePath(), cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

var analysisStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show run counts, series totals and table sizes",
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetAnalysisStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(status)
	},
}

var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write runs and period results to Parquet",
	Long: `Writes <output-file>.analysis_runs.parquet and
<output-file>.period_results.parquet. Requires --output-file.`,
	Example: `  acfperiod analysis export --output-file acf.parquet
  duckdb -c "SELECT series_name, best_period FROM read_parquet('acf.parquet.period_results.parquet')"`,
	PreRunE: analysisSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteAnalysisExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

var analysisMigrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Move the analysis schema to a version (latest by default)",
	Example: "  acfperiod analysis migrate --target-version 0",
	PreRunE: analysisMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, viper.GetInt("target-version")); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
