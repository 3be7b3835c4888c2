package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable  = "acf_analysis_runs"
	periodResultsTable = "acf_period_results"
)

// periodResultColumns lists the acf_period_results columns in insert and scan order.
var periodResultColumns = []string{
	"analysis_id", "series_name", "analysis_time", "n_points", "cadence",
	"best_period", "naive_period", "fit_period", "fit_period_stderr",
	"best_peak_height", "fit_source", "alias_suspected", "fit_failed",
}

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables applies the initial schema migration statements.
// They are idempotent, so a later `analysis migrate` records the version without conflict.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	stmts, err := initialSchemaStatements(backend)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginAnalysis creates a new analysis run and returns its ID and UUID.
func (as *AnalysisStoreImpl) BeginAnalysis(startTime time.Time, configParams map[string]any) (int64, string, error) {
	if as.backend == schema.NoneBackend || as.db == nil {
		return 0, "", nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	runUUID := uuid.NewString()
	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	ph := placeholders(as.backend, 3)

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (%s) RETURNING analysis_id`,
			quotedTableName, strings.Join(ph, ", "))
		err = as.db.QueryRow(query, runUUID, startTime, string(configJSON)).Scan(&analysisID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (%s)`,
			quotedTableName, strings.Join(ph, ", "))
		var result sql.Result
		result, err = as.db.Exec(query, runUUID, formatTime(startTime, as.backend), string(configJSON))
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, "", fmt.Errorf("failed to insert analysis run: %w", err)
	}

	return analysisID, runUUID, nil
}

// EndAnalysis updates the analysis run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalSeries int) error {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quotedTableName, placeholders(as.backend, 1)[0])
	startTime, err := as.scanTime(as.db.QueryRow(query, analysisID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	ph := placeholders(as.backend, 4)
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_series = %s WHERE analysis_id = %s`,
		quotedTableName, ph[0], ph[1], ph[2], ph[3])
	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, totalSeries, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}

	return nil
}

// RecordPeriodResult stores the outcome for one light curve.
func (as *AnalysisStoreImpl) RecordPeriodResult(analysisID int64, record schema.PeriodResultRecord) error {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(periodResultsTable, as.backend),
		strings.Join(periodResultColumns, ", "),
		strings.Join(placeholders(as.backend, len(periodResultColumns)), ", "))

	_, err := as.db.Exec(query,
		analysisID, record.SeriesName, formatTime(record.AnalysisTime, as.backend), record.NumPoints, record.Cadence,
		record.BestPeriod, record.NaivePeriod, record.FitPeriod, record.FitPeriodStdErr,
		record.BestPeakHeight, record.FitSource, record.AliasSuspected, record.FitFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert period result for %s: %w", record.SeriesName, err)
	}

	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}

	if as.backend == schema.NoneBackend || as.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(analysisRunsTable, as.backend)

	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastRunQuery := fmt.Sprintf("SELECT analysis_id, run_uuid, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runsTable)
		row := as.db.QueryRow(lastRunQuery)
		var err error
		if as.backend == schema.SQLiteBackend {
			var lastRunTimeStr string
			if err = row.Scan(&status.LastRunID, &status.LastRunUUID, &lastRunTimeStr); err == nil {
				status.LastRunTime, err = parseTime(lastRunTimeStr)
			}
		} else {
			err = row.Scan(&status.LastRunID, &status.LastRunUUID, &status.LastRunTime)
		}
		if err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runsTable)
		status.OldestRunTime, err = as.scanTime(as.db.QueryRow(oldestRunQuery))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}

		seriesQuery := fmt.Sprintf("SELECT COALESCE(SUM(total_series), 0) FROM %s", runsTable)
		if err := as.db.QueryRow(seriesQuery).Scan(&status.TotalSeriesFound); err != nil {
			return status, fmt.Errorf("failed to get total series analyzed: %w", err)
		}
	}

	for _, table := range []string{analysisRunsTable, periodResultsTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))
		if err := as.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT analysis_id, run_uuid, start_time, end_time, run_duration_ms, total_series, config_params FROM %s ORDER BY analysis_id",
		quoteTableName(analysisRunsTable, as.backend))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord

		switch as.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &startTimeStr, &endTimeStr, &record.RunDurationMs, &record.TotalSeries, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
			if record.StartTime, err = parseTime(startTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endTimeStr != nil {
				endTime, err := parseTime(*endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.TotalSeries, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllPeriodResults retrieves all period results from the store.
func (as *AnalysisStoreImpl) GetAllPeriodResults() ([]schema.PeriodResultRecord, error) {
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY analysis_id, series_name",
		strings.Join(periodResultColumns, ", "), quoteTableName(periodResultsTable, as.backend))

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query period results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.PeriodResultRecord
	for rows.Next() {
		var r schema.PeriodResultRecord
		var analysisTime any
		if err := rows.Scan(&r.AnalysisID, &r.SeriesName, &analysisTime, &r.NumPoints, &r.Cadence,
			&r.BestPeriod, &r.NaivePeriod, &r.FitPeriod, &r.FitPeriodStdErr,
			&r.BestPeakHeight, &r.FitSource, &r.AliasSuspected, &r.FitFailed); err != nil {
			return nil, fmt.Errorf("failed to scan period result: %w", err)
		}
		if r.AnalysisTime, err = toTime(analysisTime); err != nil {
			return nil, fmt.Errorf("failed to parse analysis_time: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period results: %w", err)
	}
	return results, nil
}

// scanTime reads a single time column stored per the backend's convention.
func (as *AnalysisStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if as.backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return parseTime(s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// toTime normalizes a scanned time column that may arrive as text or a native time.
func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", v)
	}
}
