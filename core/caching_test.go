package core

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/acfperiod/core/resample"
	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/internal/iocache"
	"github.com/huangsam/acfperiod/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryStore is a CacheStore backed by a map.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	sets    int
}

type memoryEntry struct {
	value   []byte
	version int
	ts      int64
}

var _ contract.CacheStore = &memoryStore{}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]memoryEntry{}}
}

func (m *memoryStore) Get(key string) ([]byte, int, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, 0, 0, errors.New("not found")
	}
	return e.value, e.version, e.ts, nil
}

func (m *memoryStore) Set(key string, value []byte, version int, ts int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, version: version, ts: ts}
	m.sets++
	return nil
}

func (m *memoryStore) GetStatus() (schema.CacheStatus, error) {
	return schema.CacheStatus{Backend: "memory", Connected: true, TotalEntries: len(m.entries)}, nil
}

func (m *memoryStore) Close() error { return nil }

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerateCacheKey(t *testing.T) {
	path := writeTempFile(t, "a.csv", "time,mag\n0,1\n1,2\n")
	cfg := schema.DefaultFinderConfig()

	key, err := generateCacheKey(path, cfg)
	require.NoError(t, err)
	assert.Len(t, key, 64)

	again, err := generateCacheKey(path, cfg)
	require.NoError(t, err)
	assert.Equal(t, key, again, "same content and settings give the same key")

	changed := cfg.Clone()
	changed.PeakCount++
	otherCfg, err := generateCacheKey(path, changed)
	require.NoError(t, err)
	assert.NotEqual(t, key, otherCfg, "settings are part of the key")

	params := cfg.Clone()
	params.SmoothingParams = map[string]float64{"order": 3}
	otherParams, err := generateCacheKey(path, params)
	require.NoError(t, err)
	assert.NotEqual(t, key, otherParams)

	require.NoError(t, os.WriteFile(path, []byte("time,mag\n0,1\n1,3\n"), 0o644))
	otherContent, err := generateCacheKey(path, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, key, otherContent, "file content is part of the key")

	_, err = generateCacheKey(filepath.Join(t.TempDir(), "missing.csv"), cfg)
	assert.Error(t, err)
}

func TestEncodeDecodeResult(t *testing.T) {
	in := schema.PeriodResult{
		Name:            "kic",
		BestPeriod:      2.5,
		NaivePeriod:     2.5,
		FitPeriod:       math.NaN(),
		FitPeriodStdErr: math.NaN(),
		FitFailed:       true,
		FitSource:       schema.NaiveSource,
		ACF:             []float64{1, 0.2, -0.1},
	}
	data, err := encodeResult(in)
	require.NoError(t, err)

	out, err := decodeResult(data)
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.ACF, out.ACF)
	assert.True(t, math.IsNaN(out.FitPeriod), "failed fit survives the cache as NaN")
	assert.True(t, out.FitFailed)

	_, err = decodeResult([]byte("not zstd"))
	assert.Error(t, err)
}

func TestCheckCacheHit(t *testing.T) {
	now := time.Now()
	valid, err := encodeResult(schema.PeriodResult{Name: "kic", BestPeriod: 3})
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		getErr  error
		wantHit bool
	}{
		{name: "hit", data: valid, version: currentCacheVersion, ts: now.Unix(), wantHit: true},
		{name: "miss", getErr: errors.New("no rows")},
		{name: "old version", data: valid, version: currentCacheVersion + 1, ts: now.Unix()},
		{name: "stale", data: valid, version: currentCacheVersion, ts: now.Add(-cacheTTL - time.Hour).Unix()},
		{name: "corrupt", data: []byte("garbage"), version: currentCacheVersion, ts: now.Unix()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", "key").Return(tt.data, tt.version, tt.ts, tt.getErr)

			result := checkCacheHit(store, "key", now)
			if tt.wantHit {
				require.NotNil(t, result)
				assert.InDelta(t, 3.0, result.BestPeriod, 0)
			} else {
				assert.Nil(t, result)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestCachedFindPeriod(t *testing.T) {
	path := writeSineFile(t, t.TempDir(), "star.csv")
	cfg := findConfig(path)
	ctx := WithQuiet(context.Background())

	loads := 0
	load := func(p string) (schema.TimeSeries, error) {
		loads++
		return readSine(p, cfg)
	}

	t.Run("no store", func(t *testing.T) {
		loads = 0
		result, cached, err := cachedFindPeriod(ctx, cfg, path, load, resample.New(), nil)
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, 1, loads)
		assert.InDelta(t, 5.0, result.BestPeriod, 0.05)
	})

	t.Run("miss then hit", func(t *testing.T) {
		loads = 0
		store := newMemoryStore()

		first, cached, err := cachedFindPeriod(ctx, cfg, path, load, resample.New(), store)
		require.NoError(t, err)
		assert.False(t, cached)
		assert.Equal(t, 1, store.sets)

		second, cached, err := cachedFindPeriod(ctx, cfg, path, load, resample.New(), store)
		require.NoError(t, err)
		assert.True(t, cached)
		assert.Equal(t, 1, loads, "a hit skips loading the file")
		assert.Equal(t, "star", second.Name)
		assert.InDelta(t, first.BestPeriod, second.BestPeriod, 0)
		assert.Equal(t, first.ACF, second.ACF)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		store := &iocache.MockCacheStore{}
		store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("no rows"))
		failing := func(string) (schema.TimeSeries, error) { return schema.TimeSeries{}, schema.ErrInsufficientData }

		_, _, err := cachedFindPeriod(ctx, cfg, path, failing, resample.New(), store)
		assert.ErrorIs(t, err, schema.ErrInsufficientData)
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unreadable file skips the cache", func(t *testing.T) {
		store := &iocache.MockCacheStore{}
		missing := filepath.Join(t.TempDir(), "gone.csv")
		_, _, err := cachedFindPeriod(ctx, cfg, missing, func(p string) (schema.TimeSeries, error) {
			return readSine(p, cfg)
		}, resample.New(), store)
		assert.Error(t, err)
		store.AssertNotCalled(t, "Get", mock.Anything)
	})
}
