package extractors

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

const rawEventsQuery = `
		SELECT id, visitor_id, event_name, timestamp, page_url, referrer, user_agent, event_data
		FROM raw_events
		WHERE id > ?
		ORDER BY id
		LIMIT ?
	`

// EventExtractor reads raw events from the OLTP raw_events table
type EventExtractor struct {
	db        *sql.DB
	logger    *utils.ETLLogger
	batchSize int
}

// NewEventExtractor creates a new EventExtractor reading pages of batchSize rows
func NewEventExtractor(db *sql.DB, logger *utils.ETLLogger, batchSize int) *EventExtractor {
	return &EventExtractor{
		db:        db,
		logger:    logger,
		batchSize: batchSize,
	}
}

// ExtractEvents reads the whole raw_events table page by page
func (e *EventExtractor) ExtractEvents(ctx context.Context) ([]models.RawEvent, error) {
	e.logger.Debug("Reading raw_events in pages of %d", e.batchSize)

	var events []models.RawEvent
	var lastID int64

	for {
		page, pageLastID, err := e.extractPage(ctx, lastID)
		if err != nil {
			return nil, err
		}

		events = append(events, page...)
		e.logger.Debug("Read %d events (last id %d)", len(events), pageLastID)

		if len(page) < e.batchSize {
			break
		}
		lastID = pageLastID
	}

	return events, nil
}

// extractPage reads up to batchSize events with id greater than afterID
func (e *EventExtractor) extractPage(ctx context.Context, afterID int64) ([]models.RawEvent, int64, error) {
	rows, err := e.db.QueryContext(ctx, rawEventsQuery, afterID, e.batchSize)
	if err != nil {
		e.logger.Error("Failed to query raw_events: %v", err)
		return nil, 0, fmt.Errorf("failed to query raw_events: %w", err)
	}
	defer rows.Close()

	var events []models.RawEvent
	lastID := afterID
	for rows.Next() {
		var (
			id                             int64
			visitorID, eventName, pageURL  sql.NullString
			referrer, userAgent, eventData sql.NullString
			timestamp                      sql.NullTime
		)
		if err := rows.Scan(&id, &visitorID, &eventName, &timestamp, &pageURL, &referrer, &userAgent, &eventData); err != nil {
			return nil, 0, fmt.Errorf("failed to scan raw event: %w", err)
		}

		events = append(events, models.RawEvent{
			VisitorID: visitorID.String,
			EventName: eventName.String,
			Timestamp: timestamp.Time.UTC(),
			PageURL:   pageURL.String,
			Referrer:  models.StringPtr(referrer.String),
			UserAgent: userAgent.String,
			EventData: eventData.String,
		})
		lastID = id
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed iterating raw_events: %w", err)
	}

	return events, lastID, nil
}
