package load

import (
	"context"
	"database/sql"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// FactLoader loads the session, funnel and attribution fact tables
type FactLoader struct {
	logger *utils.ETLLogger
}

// NewFactLoader creates a new FactLoader
func NewFactLoader(logger *utils.ETLLogger) *FactLoader {
	return &FactLoader{logger: logger}
}

// LoadSessionEvents replaces fact_session_events with events
func (l *FactLoader) LoadSessionEvents(ctx context.Context, tx *sql.Tx, batchID string, events []models.SessionEvent) error {
	return replaceRows(ctx, tx, l.logger, sessionEventsTable, sessionEventRows(batchID, events))
}

// LoadFunnel replaces fact_funnel with records
func (l *FactLoader) LoadFunnel(ctx context.Context, tx *sql.Tx, batchID string, records []models.FunnelRecord) error {
	return replaceRows(ctx, tx, l.logger, funnelTable, funnelRows(batchID, records))
}

// LoadAttribution replaces fact_attribution with records
func (l *FactLoader) LoadAttribution(ctx context.Context, tx *sql.Tx, batchID string, records []models.AttributionRecord) error {
	return replaceRows(ctx, tx, l.logger, attributionTable, attributionRows(batchID, records))
}
