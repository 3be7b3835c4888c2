package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/internal/iocache"
	"github.com/huangsam/acfperiod/internal/lcio"
	"github.com/huangsam/acfperiod/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// writeSineFile writes a 5-day sine light curve sampled every 0.1 days.
func writeSineFile(t *testing.T, dir, name string) string {
	t.Helper()
	return writeSeriesFile(t, dir, name, sineCurve(1000, 0.1, 5.0))
}

func writeSeriesFile(t *testing.T, dir, name string, ts schema.TimeSeries) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, lcio.WriteCSVFile(path, ts))
	return path
}

func readSine(path string, cfg *contract.Config) (schema.TimeSeries, error) {
	return lcio.ReadFile(path, cfg.InputFormat, lcio.ColumnsFromConfig(cfg))
}

func findConfig(files ...string) *contract.Config {
	return &contract.Config{
		FinderConfig: endToEndConfig(),
		Files:        files,
		InputFormat:  schema.AutoFormat,
		TimeCol:      contract.DefaultTimeCol,
		ValueCol:     contract.DefaultValueCol,
		ErrorCol:     contract.DefaultErrorCol,
		Workers:      2,
		Precision:    3,
		Output:       schema.JSONOut,
		PlotFormat:   contract.DefaultPlotFormat,
		CacheBackend: schema.NoneBackend,
	}
}

func quietCtx() context.Context {
	return WithQuiet(WithSuppressHeader(context.Background()))
}

// noStores returns a manager with caching and tracking disabled.
func noStores() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetResultStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(nil)
	return mgr
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	good1 := writeSineFile(t, dir, "a.csv")
	bad := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(bad, []byte("time,mag,err\n"), 0o644))
	good2 := writeSineFile(t, dir, "b.csv")
	missing := filepath.Join(dir, "missing.csv")

	cfg := findConfig(good1, bad, good2, missing)
	outcomes, err := AnalyzeFiles(quietCtx(), cfg, noStores())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	for i, path := range cfg.Files {
		assert.Equal(t, path, outcomes[i].Path, "outcomes keep input order")
	}

	assert.False(t, outcomes[0].Failed())
	assert.Equal(t, "a", outcomes[0].Result.Name)
	assert.InDelta(t, 5.0, outcomes[0].Result.BestPeriod, 0.05)

	assert.True(t, outcomes[1].Failed())
	assert.ErrorIs(t, outcomes[1].Err, schema.ErrInsufficientData)
	assert.NotEmpty(t, outcomes[1].ErrorMsg)

	assert.False(t, outcomes[2].Failed())
	assert.Equal(t, "b", outcomes[2].Result.Name)

	assert.True(t, outcomes[3].Failed())
	assert.Equal(t, 2, countSuccessful(outcomes))
}

func TestAnalyzeFilesNoInput(t *testing.T) {
	_, err := AnalyzeFiles(quietCtx(), findConfig(), noStores())
	assert.ErrorIs(t, err, ErrNoInputFiles)
}

func TestAnalyzeFilesNilManager(t *testing.T) {
	path := writeSineFile(t, t.TempDir(), "a.csv")
	outcomes, err := AnalyzeFiles(quietCtx(), findConfig(path), nil)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Failed())
}

func TestAnalyzeFilesCanceled(t *testing.T) {
	path := writeSineFile(t, t.TempDir(), "a.csv")
	ctx, cancel := context.WithCancel(quietCtx())
	cancel()

	outcomes, err := AnalyzeFiles(ctx, findConfig(path), noStores())
	require.NoError(t, err)
	assert.ErrorIs(t, outcomes[0].Err, context.Canceled)
}

func TestAnalyzeFilesTracking(t *testing.T) {
	dir := t.TempDir()
	good := writeSineFile(t, dir, "a.csv")
	bad := filepath.Join(dir, "missing.csv")
	cfg := findConfig(good, bad)

	store := &iocache.MockAnalysisStore{}
	store.On("BeginAnalysis", mock.Anything, mock.MatchedBy(func(params map[string]any) bool {
		return params["files"] == 2 && params["estimator"] == string(schema.ConvolutionEstimator)
	})).Return(int64(7), "uuid", nil).Once()
	store.On("RecordPeriodResult", int64(7), mock.MatchedBy(func(rec schema.PeriodResultRecord) bool {
		return rec.SeriesName == good && rec.AnalysisID == 7 && rec.NumPoints == 1000
	})).Return(nil).Once()
	store.On("EndAnalysis", int64(7), mock.Anything, 1).Return(nil).Once()

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetResultStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(store)

	outcomes, err := AnalyzeFiles(quietCtx(), cfg, mgr)
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
	store.AssertExpectations(t)
}

func TestAnalyzeFilesTrackingFailures(t *testing.T) {
	path := writeSineFile(t, t.TempDir(), "a.csv")

	t.Run("begin fails", func(t *testing.T) {
		store := &iocache.MockAnalysisStore{}
		store.On("BeginAnalysis", mock.Anything, mock.Anything).Return(int64(0), "", errors.New("db down"))

		mgr := &iocache.MockCacheManager{}
		mgr.On("GetResultStore").Return(nil)
		mgr.On("GetAnalysisStore").Return(store)

		outcomes, err := AnalyzeFiles(quietCtx(), findConfig(path), mgr)
		require.NoError(t, err, "tracking failures never fail the run")
		assert.False(t, outcomes[0].Failed())
		store.AssertNotCalled(t, "RecordPeriodResult", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "EndAnalysis", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("record fails", func(t *testing.T) {
		store := &iocache.MockAnalysisStore{}
		store.On("BeginAnalysis", mock.Anything, mock.Anything).Return(int64(3), "uuid", nil)
		store.On("RecordPeriodResult", int64(3), mock.Anything).Return(errors.New("duplicate"))
		store.On("EndAnalysis", int64(3), mock.Anything, 1).Return(nil)

		mgr := &iocache.MockCacheManager{}
		mgr.On("GetResultStore").Return(nil)
		mgr.On("GetAnalysisStore").Return(store)

		outcomes, err := AnalyzeFiles(quietCtx(), findConfig(path), mgr)
		require.NoError(t, err)
		assert.False(t, outcomes[0].Failed())
		store.AssertExpectations(t)
	})
}

func TestAnalyzeFilesCaching(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeSineFile(t, dir, "a.csv"),
		writeSeriesFile(t, dir, "b.csv", sineCurve(999, 0.1, 5.0)),
	}
	cfg := findConfig(files...)

	results := newMemoryStore()
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetResultStore").Return(results)
	mgr.On("GetAnalysisStore").Return(nil)

	first, err := AnalyzeFiles(quietCtx(), cfg, mgr)
	require.NoError(t, err)
	for _, o := range first {
		assert.False(t, o.Cached)
	}
	assert.Len(t, results.entries, 2)

	second, err := AnalyzeFiles(quietCtx(), cfg, mgr)
	require.NoError(t, err)
	for i, o := range second {
		assert.True(t, o.Cached)
		assert.Equal(t, first[i].Result.Name, o.Result.Name, "cached results are renamed after their file")
	}
}

func TestTrackingParams(t *testing.T) {
	cfg := findConfig("a.csv", "b.csv")
	params := trackingParams(cfg)
	assert.Equal(t, 2, params["files"])
	assert.Equal(t, 2, params["workers"])
	assert.Equal(t, 300, params["max_lags"])
	assert.Equal(t, string(schema.GaussianSmoothing), params["smoothing"])
}
