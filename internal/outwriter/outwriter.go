// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WritePeriods prints period search results using the configured output format,
// then renders ACF plots when a plot directory is configured.
func (ow *OutWriter) WritePeriods(outcomes []schema.FileOutcome, cfg *contract.Config, duration time.Duration) error {
	if err := WritePeriodResults(outcomes, cfg, duration); err != nil {
		return err
	}
	if cfg.PlotDir == "" {
		return nil
	}
	return WriteACFPlots(successfulResults(outcomes), cfg.PlotDir, cfg.PlotFormat)
}

// successfulResults keeps the results of the files the pipeline accepted, in input order.
func successfulResults(outcomes []schema.FileOutcome) []schema.PeriodResult {
	results := make([]schema.PeriodResult, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Failed() {
			results = append(results, *o.Result)
		}
	}
	return results
}
