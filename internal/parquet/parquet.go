// Package parquet provides row types and functions for reading light curves from
// and writing period results to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/acfperiod/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single period search run with metadata.
// This struct maps to the acf_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the globally unique identifier for this run
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalSeries is the number of light curves processed in this run
	TotalSeries int32 `parquet:"total_series,snappy"`

	// ConfigParams contains the JSON-encoded finder configuration (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// PeriodResultRow is one light curve's outcome as stored in the analysis store.
// This struct maps to the acf_period_results database table.
type PeriodResultRow struct {
	AnalysisID      int64     `parquet:"analysis_id,snappy"`
	SeriesName      string    `parquet:"series_name,snappy"`
	AnalysisTime    time.Time `parquet:"analysis_time,snappy"`
	NumPoints       int32     `parquet:"n_points,snappy"`
	Cadence         float64   `parquet:"cadence,snappy"`
	BestPeriod      float64   `parquet:"best_period,snappy"`
	NaivePeriod     float64   `parquet:"naive_period,snappy"`
	FitPeriod       *float64  `parquet:"fit_period,optional,snappy"`
	FitPeriodStdErr *float64  `parquet:"fit_period_stderr,optional,snappy"`
	BestPeakHeight  float64   `parquet:"best_peak_height,snappy"`
	FitSource       string    `parquet:"fit_source,snappy"`
	AliasSuspected  bool      `parquet:"alias_suspected,snappy"`
	FitFailed       bool      `parquet:"fit_failed,snappy"`
}

// PeriodSummary is the flat row written by `find --output parquet`.
// Fit columns are null when the fit failed.
type PeriodSummary struct {
	Rank            int32    `parquet:"rank,snappy"`
	Name            string   `parquet:"name,snappy"`
	Label           string   `parquet:"label,snappy"`
	BestPeriod      float64  `parquet:"best_period,snappy"`
	NaivePeriod     float64  `parquet:"naive_period,snappy"`
	FitPeriod       *float64 `parquet:"fit_period,optional,snappy"`
	FitPeriodStdErr *float64 `parquet:"fit_period_stderr,optional,snappy"`
	BestPeakHeight  float64  `parquet:"best_peak_height,snappy"`
	FitSource       string   `parquet:"fit_source,snappy"`
	Cadence         float64  `parquet:"cadence,snappy"`
	PeakCount       int32    `parquet:"peak_count,snappy"`
	NumMaxima       int32    `parquet:"num_maxima,snappy"`
	NumInputPoints  int32    `parquet:"num_input_points,snappy"`
	NumResampled    int32    `parquet:"num_resampled_points,snappy"`
	AliasSuspected  bool     `parquet:"alias_suspected,snappy"`
	FitFailed       bool     `parquet:"fit_failed,snappy"`
}

// LightCurveRow is one sample of a light curve stored in Parquet.
// A null error is read back as zero.
type LightCurveRow struct {
	Time  float64  `parquet:"time"`
	Value float64  `parquet:"value"`
	Error *float64 `parquet:"error,optional"`
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeRows(data, outputPath)
}

// WritePeriodResultsParquet writes a slice of PeriodResultRow structs to a Parquet file.
func WritePeriodResultsParquet(data []PeriodResultRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// WritePeriodSummariesParquet writes result summaries to a Parquet file.
func WritePeriodSummariesParquet(data []PeriodSummary, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteLightCurveParquet writes a light curve to a Parquet file.
func WriteLightCurveParquet(data []LightCurveRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// writeRows creates outputPath and writes rows using struct schema inference.
// The schema is derived from the parquet struct tags of T.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer; the file is unreadable without it
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// ReadLightCurveParquet reads every row of a light-curve Parquet file.
func ReadLightCurveParquet(path string) ([]LightCurveRow, error) {
	rows, err := parquet.ReadFile[LightCurveRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}
	return rows, nil
}

// ToTimeSeries converts light-curve rows into a raw series.
func ToTimeSeries(name string, rows []LightCurveRow) schema.TimeSeries {
	ts := schema.TimeSeries{
		Name:   name,
		Times:  make([]float64, len(rows)),
		Values: make([]float64, len(rows)),
		Errors: make([]float64, len(rows)),
	}
	for i, r := range rows {
		ts.Times[i] = r.Time
		ts.Values[i] = r.Value
		if r.Error != nil {
			ts.Errors[i] = *r.Error
		}
	}
	return ts
}

// FromTimeSeries converts a raw series into light-curve rows.
func FromTimeSeries(ts schema.TimeSeries) []LightCurveRow {
	rows := make([]LightCurveRow, ts.Len())
	for i := range rows {
		rows[i] = LightCurveRow{Time: ts.Times[i], Value: ts.Values[i]}
		if len(ts.Errors) > 0 {
			e := ts.Errors[i]
			rows[i].Error = &e
		}
	}
	return rows
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			RunUUID:       record.RunUUID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalSeries:   record.TotalSeries,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertPeriodResultRecords converts schema.PeriodResultRecord to PeriodResultRow for Parquet export.
func ConvertPeriodResultRecords(records []schema.PeriodResultRecord) []PeriodResultRow {
	result := make([]PeriodResultRow, len(records))
	for i, record := range records {
		result[i] = PeriodResultRow{
			AnalysisID:      record.AnalysisID,
			SeriesName:      record.SeriesName,
			AnalysisTime:    record.AnalysisTime,
			NumPoints:       record.NumPoints,
			Cadence:         record.Cadence,
			BestPeriod:      record.BestPeriod,
			NaivePeriod:     record.NaivePeriod,
			FitPeriod:       record.FitPeriod,
			FitPeriodStdErr: record.FitPeriodStdErr,
			BestPeakHeight:  record.BestPeakHeight,
			FitSource:       record.FitSource,
			AliasSuspected:  record.AliasSuspected,
			FitFailed:       record.FitFailed,
		}
	}
	return result
}

// ConvertPeriodResults flattens enriched results into summary rows.
func ConvertPeriodResults(results []schema.EnrichedPeriodResult) []PeriodSummary {
	out := make([]PeriodSummary, len(results))
	for i, r := range results {
		out[i] = PeriodSummary{
			Rank:            int32(r.Rank),
			Name:            r.Name,
			Label:           r.Label,
			BestPeriod:      r.BestPeriod,
			NaivePeriod:     r.NaivePeriod,
			FitPeriod:       finitePtr(r.FitPeriod),
			FitPeriodStdErr: finitePtr(r.FitPeriodStdErr),
			BestPeakHeight:  r.BestPeakHeight,
			FitSource:       string(r.FitSource),
			Cadence:         r.Cadence,
			PeakCount:       int32(r.PeakCount),
			NumMaxima:       int32(len(r.Peaks.Maxima)),
			NumInputPoints:  int32(r.NumInputPoints),
			NumResampled:    int32(r.NumResampledPoints),
			AliasSuspected:  r.AliasSuspected,
			FitFailed:       r.FitFailed,
		}
	}
	return out
}

func finitePtr(v float64) *float64 {
	if !schema.IsFinite(v) {
		return nil
	}
	return &v
}
