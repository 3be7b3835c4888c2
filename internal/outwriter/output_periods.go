package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/internal/parquet"
	"github.com/huangsam/acfperiod/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// failedLabel marks rows for files the pipeline rejected.
const failedLabel = "Failed"

// WritePeriodResults outputs the period search results, dispatching based on the output format configured.
func WritePeriodResults(outcomes []schema.FileOutcome, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONResults(w, outcomes, cfg.Detail)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		fmtFloat, intFmt := createFormatters(cfg.Precision, "")
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResults(w, outcomes, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetResults(outcomes, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.HTMLOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHTMLResults(w, successfulResults(outcomes), cfg.Precision)
		}, "Wrote HTML"); err != nil {
			return fmt.Errorf("error writing HTML output: %w", err)
		}
	default:
		// Default to human-readable table
		fmtFloat, intFmt := createFormatters(cfg.Precision, "-")
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePeriodTable(outcomes, cfg, fmtFloat, intFmt, duration, w)
		}, "Wrote table")
	}
	return nil
}

// tableLabel returns the label cell, colored when the config asks for it.
func tableLabel(r schema.PeriodResult, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(r)
	}
	return schema.GetPlainLabel(r)
}

// writePeriodTable generates and writes the human-readable table.
func writePeriodTable(outcomes []schema.FileOutcome, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"Rank", "Name", "Period", "Naive", "Fit", "StdErr", "Peak", "Label"}
	if cfg.Detail {
		headers = append(headers, "Cadence", "Points", "Resampled", "Maxima", "Source")
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 2. Populate Rows
	nameWidth := GetMaxTableNameWidth(cfg)
	var data [][]string
	var failures []schema.FileOutcome
	rank := 0
	for _, o := range outcomes {
		if o.Failed() {
			failures = append(failures, o)
			continue
		}
		rank++
		r := o.Result
		row := []string{
			strconv.Itoa(rank),
			contract.TruncatePath(r.Name, nameWidth),
			fmtFloat(r.BestPeriod),
			fmtFloat(r.NaivePeriod),
			fmtFloat(r.FitPeriod),
			fmtFloat(r.FitPeriodStdErr),
			fmtFloat(r.BestPeakHeight),
			tableLabel(*r, cfg.UseColors),
		}
		if cfg.Detail {
			row = append(row,
				fmtFloat(r.Cadence),
				fmt.Sprintf(intFmt, r.NumInputPoints),
				fmt.Sprintf(intFmt, r.NumResampledPoints),
				fmt.Sprintf(intFmt, len(r.Peaks.Maxima)),
				string(r.FitSource),
			)
		}
		data = append(data, row)
	}
	for _, o := range failures {
		label := failedLabel
		if cfg.UseColors {
			label = contract.FailedColor.Sprint(failedLabel)
		}
		row := []string{"-", contract.TruncatePath(contract.SeriesNameFromPath(o.Path), nameWidth), "-", "-", "-", "-", "-", label}
		if cfg.Detail {
			row = append(row, "-", "-", "-", "-", "-")
		}
		data = append(data, row)
	}

	// 3. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, o := range failures {
		if _, err := fmt.Fprintf(writer, "%s: %s\n", o.Path, outcomeError(o)); err != nil {
			return err
		}
	}

	cached := 0
	for _, o := range outcomes {
		if o.Cached {
			cached++
		}
	}
	if _, err := fmt.Fprintf(writer, "Analyzed %d light curves (%d failed, %d from cache)\n", len(outcomes), len(failures), cached); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// outcomeError returns the failure message of an outcome.
func outcomeError(o schema.FileOutcome) string {
	if o.Err != nil {
		return o.Err.Error()
	}
	if o.ErrorMsg != "" {
		return o.ErrorMsg
	}
	return "no result"
}

// writeCSVResults writes one row per input file in CSV format.
func writeCSVResults(w io.Writer, outcomes []schema.FileOutcome, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"rank",
		"name",
		"path",
		"best_period",
		"naive_period",
		"fit_period",
		"fit_period_stderr",
		"best_peak_height",
		"fit_source",
		"label",
		"cadence",
		"num_input_points",
		"num_resampled_points",
		"num_maxima",
		"alias_suspected",
		"fit_failed",
		"cached",
		"error",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		rank := 0
		for _, o := range outcomes {
			if o.Failed() {
				rec := make([]string, len(header))
				rec[1] = contract.SeriesNameFromPath(o.Path)
				rec[2] = o.Path
				rec[9] = failedLabel
				rec[len(rec)-1] = outcomeError(o)
				if err := cw.Write(rec); err != nil {
					return err
				}
				continue
			}
			rank++
			r := o.Result
			rec := []string{
				strconv.Itoa(rank),
				r.Name,
				o.Path,
				fmtFloat(r.BestPeriod),
				fmtFloat(r.NaivePeriod),
				fmtFloat(r.FitPeriod),
				fmtFloat(r.FitPeriodStdErr),
				fmtFloat(r.BestPeakHeight),
				string(r.FitSource),
				schema.GetPlainLabel(*r),
				fmtFloat(r.Cadence),
				fmt.Sprintf(intFmt, r.NumInputPoints),
				fmt.Sprintf(intFmt, r.NumResampledPoints),
				fmt.Sprintf(intFmt, len(r.Peaks.Maxima)),
				strconv.FormatBool(r.AliasSuspected),
				strconv.FormatBool(r.FitFailed),
				strconv.FormatBool(o.Cached),
				"",
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// jsonOutcome is the JSON shape of one input file.
type jsonOutcome struct {
	Rank   int                  `json:"rank,omitempty"`
	Label  string               `json:"label"`
	Path   string               `json:"path"`
	Cached bool                 `json:"cached"`
	Error  string               `json:"error,omitempty"`
	Result *schema.PeriodResult `json:"result,omitempty"`
}

// writeJSONResults writes the outcomes in JSON format.
// The per-lag sequences are included only with detail.
func writeJSONResults(w io.Writer, outcomes []schema.FileOutcome, detail bool) error {
	output := make([]jsonOutcome, 0, len(outcomes))
	rank := 0
	for _, o := range outcomes {
		if o.Failed() {
			output = append(output, jsonOutcome{Label: failedLabel, Path: o.Path, Error: outcomeError(o)})
			continue
		}
		rank++
		r := *o.Result
		if !detail {
			r = r.WithoutSequences()
		}
		output = append(output, jsonOutcome{
			Rank:   rank,
			Label:  schema.GetPlainLabel(r),
			Path:   o.Path,
			Cached: o.Cached,
			Result: &r,
		})
	}
	return writeJSON(w, output)
}

// writeParquetResults writes the accepted results as a Parquet summary table.
func writeParquetResults(outcomes []schema.FileOutcome, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	rows := parquet.ConvertPeriodResults(schema.EnrichResults(successfulResults(outcomes)))
	if err := parquet.WritePeriodSummariesParquet(rows, outputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", outputFile)
	return nil
}
