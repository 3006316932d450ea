package load

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

var clickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS fact_session_events (
		batch_id String,
		visitor_id String,
		session_id Int64,
		event_name LowCardinality(String),
		event_timestamp DateTime64(6, 'UTC'),
		page_url String,
		referrer Nullable(String),
		user_agent String,
		device_type LowCardinality(String),
		utm_source Nullable(String),
		utm_medium Nullable(String),
		utm_campaign Nullable(String),
		event_data String
	) ENGINE = MergeTree ORDER BY (visitor_id, session_id, event_timestamp)`,
	`CREATE TABLE IF NOT EXISTS fact_funnel (
		batch_id String,
		visitor_id String,
		session_id Int64,
		product_views Int64,
		add_to_cart Int64,
		checkout Int64,
		purchase Int64,
		session_start DateTime64(6, 'UTC'),
		session_end DateTime64(6, 'UTC')
	) ENGINE = MergeTree ORDER BY (visitor_id, session_id)`,
	`CREATE TABLE IF NOT EXISTS fact_attribution (
		batch_id String,
		visitor_id String,
		session_id Int64,
		purchase_timestamp DateTime64(6, 'UTC'),
		attribution_fc String,
		attribution_lc String
	) ENGINE = MergeTree ORDER BY (visitor_id, purchase_timestamp)`,
	`CREATE TABLE IF NOT EXISTS dim_users (
		batch_id String,
		visitor_id String,
		first_seen DateTime64(6, 'UTC'),
		last_seen DateTime64(6, 'UTC'),
		total_events Int64,
		total_sessions Int64
	) ENGINE = MergeTree ORDER BY visitor_id`,
	`CREATE TABLE IF NOT EXISTS dim_devices (
		batch_id String,
		visitor_id String,
		device_type LowCardinality(String),
		browser String,
		os String
	) ENGINE = MergeTree ORDER BY visitor_id`,
}

// ClickHouseLoader mirrors the derived tables into ClickHouse
type ClickHouseLoader struct {
	conn   clickhouse.Conn
	logger *utils.ETLLogger
}

// NewClickHouseLoader creates a new ClickHouseLoader
func NewClickHouseLoader(conn clickhouse.Conn, logger *utils.ETLLogger) *ClickHouseLoader {
	return &ClickHouseLoader{
		conn:   conn,
		logger: logger,
	}
}

// Name implements Loader
func (l *ClickHouseLoader) Name() string {
	return "clickhouse"
}

// EnsureSchema creates the MergeTree tables
func (l *ClickHouseLoader) EnsureSchema(ctx context.Context) error {
	for _, statement := range clickHouseSchema {
		if err := l.conn.Exec(ctx, statement); err != nil {
			return fmt.Errorf("failed to create clickhouse schema: %w", err)
		}
	}
	return nil
}

// Load truncates and refills each table in turn. ClickHouse has no multi-table
// transaction, so a failed mirror load can leave tables from different batches.
func (l *ClickHouseLoader) Load(ctx context.Context, data *models.TransformedData) error {
	batchID := data.Metadata.BatchID

	steps := []struct {
		table table
		rows  [][]interface{}
	}{
		{usersTable, userRows(batchID, data.Users)},
		{devicesTable, deviceRows(batchID, data.Devices)},
		{sessionEventsTable, sessionEventRows(batchID, data.Events)},
		{funnelTable, funnelRows(batchID, data.Funnel)},
		{attributionTable, attributionRows(batchID, data.Attribution)},
	}

	for _, step := range steps {
		if err := l.replace(ctx, step.table, step.rows); err != nil {
			return err
		}
	}
	return nil
}

// replace truncates t and sends rows as one batch
func (l *ClickHouseLoader) replace(ctx context.Context, t table, rows [][]interface{}) error {
	startTime := time.Now()

	if err := l.conn.Exec(ctx, "TRUNCATE TABLE IF EXISTS "+t.name); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", t.name, err)
	}
	if len(rows) == 0 {
		return nil
	}

	batch, err := l.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (%s)", t.name, strings.Join(t.columns, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", t.name, err)
	}

	for i, row := range rows {
		if err := batch.Append(row...); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append row %d to %s: %w", i, t.name, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch for %s: %w", t.name, err)
	}

	l.logger.Debug("Mirrored %d rows into clickhouse %s in %v", len(rows), t.name, time.Since(startTime))
	return nil
}
