// Package lcio reads and writes light curves and generates synthetic ones.
package lcio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/internal/parquet"
	"github.com/huangsam/acfperiod/schema"
)

// Columns names the CSV columns holding each field.
// An empty ErrorCol means the file has no error column.
type Columns struct {
	Time  string
	Value string
	Error string
}

// DefaultColumns returns the column names used when none are configured.
func DefaultColumns() Columns {
	return Columns{Time: contract.DefaultTimeCol, Value: contract.DefaultValueCol, Error: contract.DefaultErrorCol}
}

// ColumnsFromConfig picks the column names out of a validated config.
func ColumnsFromConfig(cfg *contract.Config) Columns {
	return Columns{Time: cfg.TimeCol, Value: cfg.ValueCol, Error: cfg.ErrorCol}
}

// DetectFormat resolves the auto format from the file extension.
func DetectFormat(path string, format schema.InputFormat) (schema.InputFormat, error) {
	if format != "" && format != schema.AutoFormat {
		return format, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return schema.CSVFormat, nil
	case ".parquet":
		return schema.ParquetFormat, nil
	default:
		return "", fmt.Errorf("cannot detect format of %s; use --format csv or --format parquet", path)
	}
}

// ReadFile loads a light curve from disk. The series is named after the file.
func ReadFile(path string, format schema.InputFormat, cols Columns) (schema.TimeSeries, error) {
	resolved, err := DetectFormat(path, format)
	if err != nil {
		return schema.TimeSeries{}, err
	}

	name := contract.SeriesNameFromPath(path)
	switch resolved {
	case schema.CSVFormat:
		return ReadCSVFile(path, name, cols)
	case schema.ParquetFormat:
		rows, err := parquet.ReadLightCurveParquet(path)
		if err != nil {
			return schema.TimeSeries{}, err
		}
		return parquet.ToTimeSeries(name, rows), nil
	default:
		return schema.TimeSeries{}, fmt.Errorf("unsupported input format: %s", resolved)
	}
}

// WriteFile stores a light curve to disk in the given format.
func WriteFile(path string, format schema.InputFormat, ts schema.TimeSeries) error {
	resolved, err := DetectFormat(path, format)
	if err != nil {
		return err
	}
	switch resolved {
	case schema.CSVFormat:
		return WriteCSVFile(path, ts)
	case schema.ParquetFormat:
		return parquet.WriteLightCurveParquet(parquet.FromTimeSeries(ts), path)
	default:
		return fmt.Errorf("unsupported output format: %s", resolved)
	}
}
