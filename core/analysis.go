package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/acfperiod/core/resample"
	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/internal/lcio"
	"github.com/huangsam/acfperiod/internal/outwriter"
	"github.com/huangsam/acfperiod/schema"
)

// ErrNoInputFiles is returned when a run is started without light curves.
var ErrNoInputFiles = errors.New("no light curve files given")

// AnalyzeFiles runs the period search over every file in cfg.Files and
// returns one outcome per file, in input order. Per-file failures land on
// the outcome; only a missing file list is an error.
func AnalyzeFiles(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) ([]schema.FileOutcome, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogFindHeader(cfg)
	}
	if len(cfg.Files) == 0 {
		return nil, ErrNoInputFiles
	}

	// Add cache manager to context for use in worker goroutines
	ctx = contextWithCacheManager(ctx, mgr)

	// --- 1. Begin Analysis Tracking (if configured) ---
	var analysisID int64
	var analysisStore contract.AnalysisStore
	if mgr != nil {
		analysisStore = mgr.GetAnalysisStore()
	}
	if analysisStore != nil {
		var err error
		analysisID, _, err = analysisStore.BeginAnalysis(time.Now(), trackingParams(cfg))
		if err != nil {
			contract.LogWarn("Analysis tracking initialization failed", err)
		} else if analysisID > 0 {
			ctx = withAnalysisID(ctx, analysisID)
		}
	}

	// --- 2. Core Analysis ---
	outcomes := analyzeSeries(ctx, cfg, cfg.Files)

	// --- 3. End Analysis Tracking ---
	if analysisStore != nil && analysisID > 0 {
		if err := analysisStore.EndAnalysis(analysisID, time.Now(), countSuccessful(outcomes)); err != nil {
			contract.LogWarn("Failed to finalize analysis tracking", err)
		}
	}

	return outcomes, nil
}

// trackingParams is the config snapshot stored with each analysis run.
func trackingParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"files":          len(cfg.Files),
		"workers":        cfg.Workers,
		"input_format":   string(cfg.InputFormat),
		"max_lags":       cfg.MaxLags,
		"peak_count":     cfg.PeakCount,
		"estimator":      string(cfg.Estimator),
		"smoothing":      string(cfg.SmoothingStrategy),
		"smoothing_size": cfg.SmoothingWindowSize,
		"gap_fill":       string(cfg.GapFillPolicy),
		"values_fluxes":  cfg.ValuesAreFluxes,
	}
}

func countSuccessful(outcomes []schema.FileOutcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// seriesJob tags a file with its input position so results keep file order.
type seriesJob struct {
	index int
	path  string
}

// analyzeSeries processes all files in parallel using a worker pool.
// It spawns cfg.Workers goroutines, each with its own resampler.
func analyzeSeries(ctx context.Context, cfg *contract.Config, files []string) []schema.FileOutcome {
	jobCh := make(chan seriesJob, len(files))
	type indexedOutcome struct {
		index   int
		outcome schema.FileOutcome
	}
	outcomeCh := make(chan indexedOutcome, len(files))
	var wg sync.WaitGroup

	workers := max(1, min(cfg.Workers, len(files)))
	for range workers {
		wg.Go(func() {
			rs := resample.New()
			for job := range jobCh {
				outcomeCh <- indexedOutcome{index: job.index, outcome: analyzeFile(ctx, cfg, job.path, rs)}
			}
		})
	}

	for i, f := range files {
		jobCh <- seriesJob{index: i, path: f}
	}
	close(jobCh)

	wg.Wait()
	close(outcomeCh)

	outcomes := make([]schema.FileOutcome, len(files))
	for o := range outcomeCh {
		outcomes[o.index] = o.outcome
	}
	return outcomes
}

// analyzeFile loads one light curve, finds its period and records the result
// when analysis tracking is on.
func analyzeFile(ctx context.Context, cfg *contract.Config, path string, rs contract.Resampler) schema.FileOutcome {
	if err := ctx.Err(); err != nil {
		return schema.FileOutcome{Path: path, Err: err, ErrorMsg: err.Error()}
	}

	var store contract.CacheStore
	if mgr := cacheManagerFromContext(ctx); mgr != nil {
		store = mgr.GetResultStore()
	}

	cols := lcio.ColumnsFromConfig(cfg)
	load := func(p string) (schema.TimeSeries, error) {
		return lcio.ReadFile(p, cfg.InputFormat, cols)
	}

	result, cached, err := cachedFindPeriod(ctx, cfg, path, load, rs, store)
	if err != nil {
		if !isQuiet(ctx) {
			contract.LogWarn(fmt.Sprintf("Period search failed for %s", path), err)
		}
		return schema.FileOutcome{Path: path, Err: err, ErrorMsg: err.Error()}
	}

	if analysisID, ok := getAnalysisID(ctx); ok && analysisID > 0 {
		recordPeriodResult(ctx, analysisID, path, result)
	}

	return schema.FileOutcome{Path: path, Result: &result, Cached: cached}
}

// recordPeriodResult stores one result row keyed by the file path.
func recordPeriodResult(ctx context.Context, analysisID int64, path string, result schema.PeriodResult) {
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return
	}

	record := schema.NewPeriodResultRecord(analysisID, time.Now(), result)
	record.SeriesName = path
	if err := analysisStore.RecordPeriodResult(analysisID, record); err != nil {
		logTrackingError("RecordPeriodResult", path, err)
	}
}

// logTrackingError logs database tracking errors to stderr without disrupting analysis.
func logTrackingError(operation, path string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, path), err)
}
