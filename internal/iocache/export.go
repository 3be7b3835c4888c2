package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/internal/parquet"
)

// ExecuteAnalysisExport exports the global analysis store to Parquet files.
func ExecuteAnalysisExport(outputFile string) error {
	return ExportAnalysis(Manager.GetAnalysisStore(), outputFile)
}

// ExportAnalysis writes every run and period result of the store to
// <outputFile>.analysis_runs.parquet and <outputFile>.period_results.parquet.
func ExportAnalysis(store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis store is not initialized")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total analysis runs: %d\n", status.TotalRuns)
	fmt.Printf("Total period records: %d\n", status.TableSizes[periodResultsTable])

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	periodResults, err := store.GetAllPeriodResults()
	if err != nil {
		return fmt.Errorf("failed to retrieve period results: %w", err)
	}

	runsFile := outputFile + ".analysis_runs.parquet"
	runRows := parquet.ConvertAnalysisRunRecords(analysisRuns)
	if err := parquet.WriteAnalysisRunsParquet(runRows, runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	fmt.Printf("Exported %d analysis runs to: %s\n", len(runRows), runsFile)

	resultsFile := outputFile + ".period_results.parquet"
	resultRows := parquet.ConvertPeriodResultRecords(periodResults)
	if err := parquet.WritePeriodResultsParquet(resultRows, resultsFile); err != nil {
		return fmt.Errorf("failed to write period results: %w", err)
	}
	fmt.Printf("Exported %d period results to: %s\n", len(resultRows), resultsFile)

	return nil
}
