// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/acfperiod/schema"
)

// Resampler turns a raw irregular light curve into a uniform, gap-filled series.
// The period finder only sees this interface, so tests can substitute fakes.
type Resampler interface {
	Resample(series schema.TimeSeries, opts schema.ResampleOptions) (schema.GapFilledSeries, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetResultStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking analysis runs and storing period results.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its ID and UUID
	BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, string, error)

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalSeries int) error

	// RecordPeriodResult stores the outcome for one light curve
	RecordPeriodResult(analysisID int64, record schema.PeriodResultRecord) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every recorded run, oldest first
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllPeriodResults returns every recorded period result
	GetAllPeriodResults() ([]schema.PeriodResultRecord, error)

	// Close closes the underlying connection
	Close() error
}
