package schema

import "time"

// AnalysisRunRecord represents a row from the acf_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalSeries   int32
	ConfigParams  *string
}

// PeriodResultRecord represents a row from the acf_period_results table.
// Fit columns are nil when the line fit failed.
type PeriodResultRecord struct {
	AnalysisID      int64
	SeriesName      string
	AnalysisTime    time.Time
	NumPoints       int32
	Cadence         float64
	BestPeriod      float64
	NaivePeriod     float64
	FitPeriod       *float64
	FitPeriodStdErr *float64
	BestPeakHeight  float64
	FitSource       string
	AliasSuspected  bool
	FitFailed       bool
}

// NewPeriodResultRecord flattens a result into a store row.
func NewPeriodResultRecord(analysisID int64, analysisTime time.Time, r PeriodResult) PeriodResultRecord {
	rec := PeriodResultRecord{
		AnalysisID:     analysisID,
		SeriesName:     r.Name,
		AnalysisTime:   analysisTime,
		NumPoints:      int32(r.NumInputPoints),
		Cadence:        r.Cadence,
		BestPeriod:     r.BestPeriod,
		NaivePeriod:    r.NaivePeriod,
		BestPeakHeight: r.BestPeakHeight,
		FitSource:      string(r.FitSource),
		AliasSuspected: r.AliasSuspected,
		FitFailed:      r.FitFailed,
	}
	if IsFinite(r.FitPeriod) {
		v := r.FitPeriod
		rec.FitPeriod = &v
	}
	if IsFinite(r.FitPeriodStdErr) {
		v := r.FitPeriodStdErr
		rec.FitPeriodStdErr = &v
	}
	return rec
}
