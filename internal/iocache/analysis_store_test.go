package iocache

import (
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/acfperiod/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(analysisID int64, name string, fit *float64) schema.PeriodResultRecord {
	return schema.PeriodResultRecord{
		AnalysisID:     analysisID,
		SeriesName:     name,
		AnalysisTime:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		NumPoints:      2000,
		Cadence:        0.0204,
		BestPeriod:     4.87,
		NaivePeriod:    4.9,
		FitPeriod:      fit,
		BestPeakHeight: 0.61,
		FitSource:      string(schema.FittedSource),
	}
}

func TestAnalysisStore_NoneBackend(t *testing.T) {
	store, err := NewAnalysisStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// BeginAnalysis returns the zero run for NoneBackend
	analysisID, runUUID, err := store.BeginAnalysis(time.Now(), map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), analysisID)
	assert.Empty(t, runUUID)

	assert.NoError(t, store.EndAnalysis(1, time.Now(), 10))
	assert.NoError(t, store.RecordPeriodResult(1, newTestRecord(1, "a.csv", nil)))

	runs, err := store.GetAllAnalysisRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestAnalysisStore_SQLite(t *testing.T) {
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	startTime := time.Now().Add(-2 * time.Second)
	configParams := map[string]any{
		"peak_count": 10,
		"smoothing":  "polynomial",
	}
	analysisID, runUUID, err := store.BeginAnalysis(startTime, configParams)
	require.NoError(t, err)
	assert.Greater(t, analysisID, int64(0))
	assert.Len(t, runUUID, 36)

	fit := 4.871
	require.NoError(t, store.RecordPeriodResult(analysisID, newTestRecord(analysisID, "data/kic1.csv", &fit)))
	require.NoError(t, store.RecordPeriodResult(analysisID, newTestRecord(analysisID, "data/kic2.csv", nil)))

	// Same series twice in one run violates the primary key
	assert.Error(t, store.RecordPeriodResult(analysisID, newTestRecord(analysisID, "data/kic1.csv", nil)))

	require.NoError(t, store.EndAnalysis(analysisID, startTime.Add(2*time.Second), 2))

	runs, err := store.GetAllAnalysisRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, analysisID, run.AnalysisID)
	assert.Equal(t, runUUID, run.RunUUID)
	assert.Equal(t, int32(2), run.TotalSeries)
	assert.WithinDuration(t, startTime, run.StartTime, time.Millisecond)
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(2000), *run.RunDurationMs)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"peak_count":10,"smoothing":"polynomial"}`, *run.ConfigParams)

	results, err := store.GetAllPeriodResults()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "data/kic1.csv", results[0].SeriesName)
	require.NotNil(t, results[0].FitPeriod)
	assert.InDelta(t, fit, *results[0].FitPeriod, 1e-12)
	assert.Nil(t, results[1].FitPeriod)
	assert.Nil(t, results[1].FitPeriodStdErr)
	assert.Equal(t, int32(2000), results[1].NumPoints)
	assert.True(t, results[0].AnalysisTime.Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestAnalysisStore_EndUnknownRun(t *testing.T) {
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Error(t, store.EndAnalysis(999, time.Now(), 0))
}

func TestAnalysisStore_Status(t *testing.T) {
	store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[periodResultsTable])

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var lastUUID string
	var lastID int64
	for i := range 3 {
		id, runUUID, err := store.BeginAnalysis(first.Add(time.Duration(i)*time.Hour), nil)
		require.NoError(t, err)
		for j := range i + 1 {
			name := fmt.Sprintf("run%d/series%d.csv", i, j)
			require.NoError(t, store.RecordPeriodResult(id, newTestRecord(id, name, nil)))
		}
		require.NoError(t, store.EndAnalysis(id, first.Add(time.Duration(i)*time.Hour+time.Minute), i+1))
		lastID, lastUUID = id, runUUID
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, lastID, status.LastRunID)
	assert.Equal(t, lastUUID, status.LastRunUUID)
	assert.True(t, status.OldestRunTime.Equal(first))
	assert.True(t, status.LastRunTime.Equal(first.Add(2*time.Hour)))
	assert.Equal(t, 6, status.TotalSeriesFound)
	assert.Equal(t, int64(3), status.TableSizes[analysisRunsTable])
	assert.Equal(t, int64(6), status.TableSizes[periodResultsTable])
}

func TestToTime(t *testing.T) {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)
	tests := []struct {
		name    string
		in      any
		wantErr bool
	}{
		{name: "native", in: ts},
		{name: "text", in: ts.Format(time.RFC3339Nano)},
		{name: "bytes", in: []byte(ts.Format(time.RFC3339Nano))},
		{name: "garbage text", in: "yesterday", wantErr: true},
		{name: "unexpected type", in: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(ts))
		})
	}
}
