// Package main provides a performance benchmarking tool for the acfperiod CLI.
// It synthesizes light curve sets of increasing size, then measures the find command
// with and without the result cache, treating the first successful cached run as cold
// and averaging the rest as warm. Results are written as CSV for documentation.
//
// Prerequisites:
// - acfperiod binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where synthetic light curves are generated
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Estimator   string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// Dataset describes one set of synthetic light curves.
type Dataset struct {
	Name   string
	Files  int
	Points int
	Period float64
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []Dataset
	Estimators  []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets: []Dataset{
			{Name: "small", Files: 4, Points: 1000, Period: 3.7},
			{Name: "medium", Files: 16, Points: 10000, Period: 12.5},
			{Name: "large", Files: 32, Points: 50000, Period: 41.2},
		},
		Estimators: []string{"convolution", "lagged-covariance", "fft"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("acfperiod", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the acfperiod binary exists and the work dir is usable.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("acfperiod"); err != nil {
		return fmt.Errorf("acfperiod binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// synthesize writes the light curves of a dataset and returns their paths.
func synthesize(config BenchmarkConfig, ds Dataset) ([]string, error) {
	dir := filepath.Join(config.WorkDir, ds.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, ds.Files)
	for i := range ds.Files {
		path := filepath.Join(dir, fmt.Sprintf("curve_%03d.csv", i))
		args := []string{
			"synth", path,
			"--points", strconv.Itoa(ds.Points),
			"--period", strconv.FormatFloat(ds.Period*(1+0.01*float64(i)), 'f', -1, 64),
			"--noise", "0.1",
			"--gap-fraction", "0.05",
			"--seed", strconv.Itoa(i + 1),
		}
		if output, err := exec.Command("acfperiod", args...).CombinedOutput(); err != nil {
			return nil, fmt.Errorf("synth failed for %s: %w: %s", path, err, string(output))
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, ds := range config.Datasets {
		fmt.Printf("Synthesizing %s (%d files x %d points)\n", ds.Name, ds.Files, ds.Points)
		paths, err := synthesize(config, ds)
		if err != nil {
			fmt.Printf("Skipping %s: %v\n", ds.Name, err)
			continue
		}

		for _, estimator := range config.Estimators {
			results = append(results, runBenchmarkSuite(config, ds.Name, estimator, paths))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for an estimator
func runBenchmarkSuite(config BenchmarkConfig, dataset, estimator string, paths []string) BenchmarkResult {
	fmt.Printf("Running %s estimator on %s\n", estimator, dataset)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, estimator, paths, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Estimator:   estimator,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes the find command multiple times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, estimator string, paths []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"find",
		"--cache-backend", cacheBackend,
		"--estimator", estimator,
		"--workers", strconv.Itoa(config.Workers),
	}
	args = append(args, paths...)

	var times []float64
	for range numRuns {
		start := time.Now()

		cmd := exec.Command("acfperiod", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Analysis completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("acfperiod_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "estimator", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Estimator, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, estimator := range config.Estimators {
		printEstimatorSummary(results, estimator)
	}
	fmt.Printf("Benchmark script completed successfully\n")
}

// printEstimatorSummary displays results for one estimator
func printEstimatorSummary(results []BenchmarkResult, estimator string) {
	fmt.Printf("Estimator %s:\n", estimator)
	for _, result := range results {
		if result.Estimator == estimator {
			fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
