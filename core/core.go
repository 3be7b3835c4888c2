// Package core has the period search pipeline and the logic that runs it over light curves.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/internal/lcio"
	"github.com/huangsam/acfperiod/internal/outwriter"
	"github.com/huangsam/acfperiod/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ErrAllFailed is returned when no input file produced a period.
var ErrAllFailed = errors.New("period search failed for every file")

// ExecutePeriodFind runs the period search over the configured files and prints the results.
// It serves as the main entry point for the 'find' command.
func ExecutePeriodFind(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	outcomes, err := AnalyzeFiles(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	duration := time.Since(start)
	if err := outwriter.NewOutWriter().WritePeriods(outcomes, cfg, duration); err != nil {
		return err
	}
	if countSuccessful(outcomes) == 0 {
		return fmt.Errorf("%w (%d files)", ErrAllFailed, len(outcomes))
	}
	return nil
}

// ExecuteSynth writes a synthetic sinusoidal light curve to path.
// It serves as the main entry point for the 'synth' command.
func ExecuteSynth(path string, format schema.InputFormat, opts lcio.SynthOptions) error {
	ts, err := lcio.Generate(opts)
	if err != nil {
		return err
	}
	if err := lcio.WriteFile(path, format, ts); err != nil {
		return err
	}
	fmt.Printf("Wrote %d samples of %q (period %g) to %s\n", ts.Len(), ts.Name, opts.Period, path)
	return nil
}
