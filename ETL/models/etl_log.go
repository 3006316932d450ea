package models

import (
	"context"
	"time"
)

// Run statuses stored in the ETL run log
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// ETLRunLog represents one ETL run entry
type ETLRunLog struct {
	ID                   int       `json:"id"`
	BatchID              string    `json:"batch_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	EventsProcessed      int       `json:"events_processed"`
	VisitorsProcessed    int       `json:"visitors_processed"`
	SessionsBuilt        int       `json:"sessions_built"`
	PurchasesAttributed  int       `json:"purchases_attributed"`
	LastEventTimestamp   time.Time `json:"last_event_timestamp"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// ETLLogRepository stores and reads ETL run log entries
type ETLLogRepository interface {
	// CreateETLLogTable creates the run log table if it does not exist
	CreateETLLogTable(ctx context.Context) error

	// CreateLogEntry creates an in-progress entry for a new run
	CreateLogEntry(ctx context.Context, batchID string, startTime time.Time) (int, error)

	// UpdateLogEntrySuccess marks a run as successful
	UpdateLogEntrySuccess(ctx context.Context, id int, endTime time.Time, metadata ETLMetadata) error

	// UpdateLogEntryFailure marks a run as failed
	UpdateLogEntryFailure(ctx context.Context, id int, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun returns the latest successful run or nil
	GetLastSuccessfulRun(ctx context.Context) (*ETLRunLog, error)

	// GetETLRunStats returns runs started within the last days
	GetETLRunStats(ctx context.Context, days int) ([]ETLRunLog, error)

	// GetETLStateMonitor summarizes the run log
	GetETLStateMonitor(ctx context.Context) (*ETLStateMonitor, error)
}

// ETLStateMonitor summarizes the current state of the ETL process
type ETLStateMonitor struct {
	LastSuccessfulRun       *ETLRunLog `json:"last_successful_run"`
	LastFailedRun           *ETLRunLog `json:"last_failed_run,omitempty"`
	CurrentRun              *ETLRunLog `json:"current_run,omitempty"`
	TotalSuccessfulRuns     int        `json:"total_successful_runs"`
	TotalFailedRuns         int        `json:"total_failed_runs"`
	AvgExecutionTimeSeconds float64    `json:"avg_execution_time_seconds"`
	TotalEventsProcessed    int        `json:"total_events_processed"`
}
