package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/acfperiod/internal/parquet"
	"github.com/huangsam/acfperiod/schema"
	pq "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAnalysis(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		assert.Error(t, ExportAnalysis(&MockAnalysisStore{}, ""))
	})

	t.Run("requires store", func(t *testing.T) {
		assert.Error(t, ExportAnalysis(nil, "out"))
	})

	t.Run("empty store", func(t *testing.T) {
		store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		err = ExportAnalysis(store, filepath.Join(t.TempDir(), "export"))
		assert.ErrorContains(t, err, "no analysis data")
	})

	t.Run("writes both files", func(t *testing.T) {
		store, err := NewAnalysisStore(schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		id, _, err := store.BeginAnalysis(time.Now(), map[string]any{"estimator": "ratio"})
		require.NoError(t, err)
		fit := 3.2
		require.NoError(t, store.RecordPeriodResult(id, newTestRecord(id, "a.csv", &fit)))
		require.NoError(t, store.RecordPeriodResult(id, newTestRecord(id, "b.csv", nil)))
		require.NoError(t, store.EndAnalysis(id, time.Now(), 2))

		base := filepath.Join(t.TempDir(), "export")
		require.NoError(t, ExportAnalysis(store, base))

		runs, err := pq.ReadFile[parquet.AnalysisRun](base + ".analysis_runs.parquet")
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, id, runs[0].AnalysisID)
		assert.Equal(t, int32(2), runs[0].TotalSeries)

		results, err := pq.ReadFile[parquet.PeriodResultRow](base + ".period_results.parquet")
		require.NoError(t, err)
		require.Len(t, results, 2)
		require.NotNil(t, results[0].FitPeriod)
		assert.InDelta(t, fit, *results[0].FitPeriod, 0)
		assert.Nil(t, results[1].FitPeriod)
	})
}
