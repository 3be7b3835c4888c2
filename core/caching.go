package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/schema"
	"github.com/klauspost/compress/zstd"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is how long a cached result stays valid.
const cacheTTL = 30 * 24 * time.Hour

var (
	cacheEncoder, _ = zstd.NewWriter(nil)
	cacheDecoder, _ = zstd.NewReader(nil)
)

// seriesLoader reads the light curve behind a path.
type seriesLoader func(path string) (schema.TimeSeries, error)

// cachedFindPeriod runs the pipeline for one file, consulting the result cache first.
// The bool result reports a cache hit.
func cachedFindPeriod(ctx context.Context, cfg *contract.Config, path string, load seriesLoader, rs contract.Resampler, store contract.CacheStore) (schema.PeriodResult, bool, error) {
	if store == nil {
		// Fallback to direct computation
		result, err := loadAndFind(ctx, cfg, path, load, rs)
		return result, false, err
	}

	key, err := generateCacheKey(path, cfg.FinderConfig)
	if err != nil {
		result, err := loadAndFind(ctx, cfg, path, load, rs)
		return result, false, err
	}

	// Check for cache hit
	if result := checkCacheHit(store, key, time.Now()); result != nil {
		result.Name = contract.SeriesNameFromPath(path)
		return *result, true, nil
	}

	// Cache miss: compute and store
	result, err := loadAndFind(ctx, cfg, path, load, rs)
	if err != nil {
		return schema.PeriodResult{}, false, err
	}
	storeResult(store, key, result, time.Now())
	return result, false, nil
}

func loadAndFind(ctx context.Context, cfg *contract.Config, path string, load seriesLoader, rs contract.Resampler) (schema.PeriodResult, error) {
	series, err := load(path)
	if err != nil {
		return schema.PeriodResult{}, err
	}
	return FindPeriod(ctx, series, cfg.FinderConfig, rs)
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string, now time.Time) *schema.PeriodResult {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || now.Sub(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}

	result, err := decodeResult(data)
	if err != nil {
		return nil
	}
	return result
}

// storeResult writes a result to the cache; failures only cost a future recomputation.
func storeResult(store contract.CacheStore, key string, result schema.PeriodResult, now time.Time) {
	data, err := encodeResult(result)
	if err != nil {
		return
	}
	_ = store.Set(key, data, currentCacheVersion, now.Unix())
}

func encodeResult(result schema.PeriodResult) ([]byte, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return cacheEncoder.EncodeAll(raw, nil), nil
}

func decodeResult(data []byte) (*schema.PeriodResult, error) {
	raw, err := cacheDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	var result schema.PeriodResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// generateCacheKey creates a unique key from the file content and the finder settings
func generateCacheKey(path string, fc schema.FinderConfig) (string, error) {
	contentHash, err := hashFile(path)
	if err != nil {
		return "", err
	}
	// encoding/json sorts map keys, so SmoothingParams encode canonically
	cfgJSON, err := json.Marshal(fc)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:%s:%d", contentHash, cfgJSON, currentCacheVersion)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
