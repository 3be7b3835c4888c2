package lcio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/schema"
)

// ReadCSVFile opens path and decodes it with ReadCSV.
func ReadCSVFile(path, name string, cols Columns) (schema.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.TimeSeries{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	ts, err := ReadCSV(f, name, cols)
	if err != nil {
		return schema.TimeSeries{}, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// ReadCSV decodes a light curve from CSV.
//
// Columns are located by header name, ignoring case. A file whose first row
// is entirely numeric has no header; its columns are taken positionally as
// time, value and optionally error. Empty cells and "nan" become NaN.
// Without an error column the errors are zero.
func ReadCSV(r io.Reader, name string, cols Columns) (schema.TimeSeries, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return schema.TimeSeries{}, fmt.Errorf("%w: empty file", schema.ErrInsufficientData)
	}
	if err != nil {
		return schema.TimeSeries{}, fmt.Errorf("failed to read header: %w", err)
	}

	idx, headerless, err := resolveColumns(first, cols)
	if err != nil {
		return schema.TimeSeries{}, err
	}

	ts := schema.TimeSeries{Name: name}
	line := 1
	if headerless {
		if err := appendRow(&ts, first, idx, line); err != nil {
			return schema.TimeSeries{}, err
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return schema.TimeSeries{}, fmt.Errorf("failed to read row: %w", err)
		}
		line++
		if isBlank(record) {
			continue
		}
		if err := appendRow(&ts, record, idx, line); err != nil {
			return schema.TimeSeries{}, err
		}
	}

	if ts.Len() == 0 {
		return schema.TimeSeries{}, fmt.Errorf("%w: no rows", schema.ErrInsufficientData)
	}
	return ts, nil
}

// columnIndex holds the record positions for each field; err is -1 when absent.
type columnIndex struct {
	time, value, err int
}

func resolveColumns(header []string, cols Columns) (columnIndex, bool, error) {
	if cols.Time == "" {
		cols.Time = contract.DefaultTimeCol
	}
	if cols.Value == "" {
		cols.Value = contract.DefaultValueCol
	}

	lookup := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := lookup[key]; !dup {
			lookup[key] = i
		}
	}

	timeIdx, hasTime := lookup[strings.ToLower(cols.Time)]
	valueIdx, hasValue := lookup[strings.ToLower(cols.Value)]
	if hasTime && hasValue {
		idx := columnIndex{time: timeIdx, value: valueIdx, err: -1}
		if cols.Error != "" {
			if errIdx, ok := lookup[strings.ToLower(cols.Error)]; ok {
				idx.err = errIdx
			}
		}
		return idx, false, nil
	}

	if isNumericRow(header) {
		if len(header) < 2 {
			return columnIndex{}, false, fmt.Errorf("headerless CSV needs at least 2 columns, got %d", len(header))
		}
		idx := columnIndex{time: 0, value: 1, err: -1}
		if len(header) > 2 {
			idx.err = 2
		}
		return idx, true, nil
	}

	missing := cols.Time
	if hasTime {
		missing = cols.Value
	}
	return columnIndex{}, false, fmt.Errorf("column %q not found in header %v", missing, header)
}

func appendRow(ts *schema.TimeSeries, record []string, idx columnIndex, line int) error {
	t, err := cell(record, idx.time)
	if err != nil {
		return fmt.Errorf("line %d: time: %w", line, err)
	}
	v, err := cell(record, idx.value)
	if err != nil {
		return fmt.Errorf("line %d: value: %w", line, err)
	}
	e := 0.0
	if idx.err >= 0 {
		if e, err = cell(record, idx.err); err != nil {
			return fmt.Errorf("line %d: error: %w", line, err)
		}
	}
	ts.Times = append(ts.Times, t)
	ts.Values = append(ts.Values, v)
	ts.Errors = append(ts.Errors, e)
	return nil
}

// cell parses one field; short rows and empty fields read as NaN.
func cell(record []string, i int) (float64, error) {
	if i >= len(record) {
		return math.NaN(), nil
	}
	s := strings.TrimSpace(record[i])
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func isNumericRow(record []string) bool {
	for _, s := range record {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return false
		}
	}
	return len(record) > 0
}

func isBlank(record []string) bool {
	for _, s := range record {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// WriteCSVFile writes ts to path with the default column names.
func WriteCSVFile(path string, ts schema.TimeSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, ts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV encodes ts as CSV with a header row.
func WriteCSV(w io.Writer, ts schema.TimeSeries) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{contract.DefaultTimeCol, contract.DefaultValueCol, contract.DefaultErrorCol}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range ts.Times {
		row := []string{formatFloat(ts.Times[i]), formatFloat(ts.Values[i]), formatFloat(ts.ErrorAt(i))}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
