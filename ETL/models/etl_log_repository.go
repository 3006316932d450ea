package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runLogColumns = `
		id, batch_id, start_time, end_time, status,
		events_processed, visitors_processed, sessions_built, purchases_attributed,
		last_event_timestamp, IFNULL(error_message, ''), IFNULL(execution_time_seconds, 0)`

// MySQLETLLogRepository implements ETLLogRepository on MySQL
type MySQLETLLogRepository struct {
	db *sql.DB
}

// NewMySQLETLLogRepository creates a new MySQLETLLogRepository
func NewMySQLETLLogRepository(db *sql.DB) *MySQLETLLogRepository {
	return &MySQLETLLogRepository{
		db: db,
	}
}

// CreateETLLogTable creates the etl_run_log table if it does not exist
func (r *MySQLETLLogRepository) CreateETLLogTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS etl_run_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		batch_id VARCHAR(36) NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		events_processed INT DEFAULT 0,
		visitors_processed INT DEFAULT 0,
		sessions_built INT DEFAULT 0,
		purchases_attributed INT DEFAULT 0,
		last_event_timestamp TIMESTAMP NULL,
		error_message TEXT,
		execution_time_seconds FLOAT
	);
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create etl_run_log table: %w", err)
	}

	return nil
}

// CreateLogEntry inserts an in-progress entry and returns its id
func (r *MySQLETLLogRepository) CreateLogEntry(ctx context.Context, batchID string, startTime time.Time) (int, error) {
	query := `
	INSERT INTO etl_run_log (batch_id, start_time, status)
	VALUES (?, ?, 'in_progress')
	`

	result, err := r.db.ExecContext(ctx, query, batchID, startTime)
	if err != nil {
		return 0, fmt.Errorf("failed to create ETL run entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read id of the ETL run entry: %w", err)
	}

	return int(id), nil
}

// UpdateLogEntrySuccess marks the entry as successful and stores run counters
func (r *MySQLETLLogRepository) UpdateLogEntrySuccess(ctx context.Context, id int, endTime time.Time, metadata ETLMetadata) error {
	executionTime, err := r.executionTime(ctx, id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'success',
		events_processed = ?,
		visitors_processed = ?,
		sessions_built = ?,
		purchases_attributed = ?,
		last_event_timestamp = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.ExecContext(ctx,
		query,
		endTime,
		metadata.EventsProcessed,
		metadata.VisitorsProcessed,
		metadata.SessionsBuilt,
		metadata.PurchasesAttributed,
		nullTime(metadata.LastEventTimestamp),
		executionTime,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update ETL run entry %d: %w", id, err)
	}

	return nil
}

// UpdateLogEntryFailure marks the entry as failed
func (r *MySQLETLLogRepository) UpdateLogEntryFailure(ctx context.Context, id int, endTime time.Time, errorMessage string) error {
	executionTime, err := r.executionTime(ctx, id, endTime)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, endTime, errorMessage, executionTime, id); err != nil {
		return fmt.Errorf("failed to update ETL run entry %d: %w", id, err)
	}

	return nil
}

// executionTime returns seconds elapsed between the entry's start and endTime
func (r *MySQLETLLogRepository) executionTime(ctx context.Context, id int, endTime time.Time) (float64, error) {
	var startTime time.Time
	err := r.db.QueryRowContext(ctx, "SELECT start_time FROM etl_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return 0, fmt.Errorf("failed to read start time of ETL run %d: %w", id, err)
	}

	return endTime.Sub(startTime).Seconds(), nil
}

// GetLastSuccessfulRun returns the latest successful run, or nil if there is none
func (r *MySQLETLLogRepository) GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error) {
	return r.lastRunWithStatus(ctx, RunStatusSuccess, "end_time")
}

func (r *MySQLETLLogRepository) lastRunWithStatus(ctx context.Context, status, orderBy string) (*ETLRunLog, error) {
	query := `SELECT` + runLogColumns + `
	FROM etl_run_log
	WHERE status = ?
	ORDER BY ` + orderBy + ` DESC
	LIMIT 1
	`

	log, err := scanRunLog(r.db.QueryRowContext(ctx, query, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read last %s ETL run: %w", status, err)
	}

	return log, nil
}

// GetETLRunStats returns the runs started within the last days
func (r *MySQLETLLogRepository) GetETLRunStats(ctx context.Context, days int) ([]ETLRunLog, error) {
	query := `SELECT` + runLogColumns + `
	FROM etl_run_log
	WHERE start_time >= DATE_SUB(NOW(), INTERVAL ? DAY)
	ORDER BY start_time DESC
	`

	rows, err := r.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query ETL run stats: %w", err)
	}
	defer rows.Close()

	var logs []ETLRunLog
	for rows.Next() {
		log, err := scanRunLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ETL run entry: %w", err)
		}
		logs = append(logs, *log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating ETL run entries: %w", err)
	}

	return logs, nil
}

// GetETLStateMonitor summarizes the run log
func (r *MySQLETLLogRepository) GetETLStateMonitor(ctx context.Context) (*ETLStateMonitor, error) {
	lastSuccessful, err := r.GetLastSuccessfulRun(ctx)
	if err != nil {
		return nil, err
	}

	lastFailed, err := r.lastRunWithStatus(ctx, RunStatusFailed, "end_time")
	if err != nil {
		return nil, err
	}

	currentRun, err := r.lastRunWithStatus(ctx, RunStatusInProgress, "start_time")
	if err != nil {
		return nil, err
	}

	var (
		totalSuccess, totalFailed int
		avgExecutionTime          sql.NullFloat64
		totalEvents               sql.NullInt64
	)
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			AVG(CASE WHEN status = 'success' THEN execution_time_seconds ELSE NULL END),
			SUM(CASE WHEN status = 'success' THEN events_processed ELSE 0 END)
		FROM etl_run_log
	`).Scan(&totalSuccess, &totalFailed, &avgExecutionTime, &totalEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to query ETL run totals: %w", err)
	}

	return &ETLStateMonitor{
		LastSuccessfulRun:       lastSuccessful,
		LastFailedRun:           lastFailed,
		CurrentRun:              currentRun,
		TotalSuccessfulRuns:     totalSuccess,
		TotalFailedRuns:         totalFailed,
		AvgExecutionTimeSeconds: avgExecutionTime.Float64,
		TotalEventsProcessed:    int(totalEvents.Int64),
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRunLog(row rowScanner) (*ETLRunLog, error) {
	var (
		log           ETLRunLog
		endTime       sql.NullTime
		lastEventTime sql.NullTime
	)
	err := row.Scan(
		&log.ID, &log.BatchID, &log.StartTime, &endTime, &log.Status,
		&log.EventsProcessed, &log.VisitorsProcessed, &log.SessionsBuilt, &log.PurchasesAttributed,
		&lastEventTime, &log.ErrorMessage, &log.ExecutionTimeSeconds,
	)
	if err != nil {
		return nil, err
	}
	log.EndTime = endTime.Time
	log.LastEventTimestamp = lastEventTime.Time

	return &log, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
