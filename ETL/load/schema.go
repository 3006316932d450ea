package load

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// table describes one output table and the column order of its rows
type table struct {
	name    string
	columns []string
}

var (
	sessionEventsTable = table{
		name: "fact_session_events",
		columns: []string{
			"batch_id", "visitor_id", "session_id", "event_name", "event_timestamp", "page_url",
			"referrer", "user_agent", "device_type", "utm_source", "utm_medium", "utm_campaign", "event_data",
		},
	}
	funnelTable = table{
		name: "fact_funnel",
		columns: []string{
			"batch_id", "visitor_id", "session_id", "product_views", "add_to_cart",
			"checkout", "purchase", "session_start", "session_end",
		},
	}
	attributionTable = table{
		name: "fact_attribution",
		columns: []string{
			"batch_id", "visitor_id", "session_id", "purchase_timestamp", "attribution_fc", "attribution_lc",
		},
	}
	usersTable = table{
		name:    "dim_users",
		columns: []string{"batch_id", "visitor_id", "first_seen", "last_seen", "total_events", "total_sessions"},
	}
	devicesTable = table{
		name:    "dim_devices",
		columns: []string{"batch_id", "visitor_id", "device_type", "browser", "os"},
	}
)

// insertSQL builds a positional INSERT for every column of the table
func (t table) insertSQL() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(t.columns, ", "), placeholders)
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS fact_session_events (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		batch_id CHAR(36) NOT NULL,
		visitor_id VARCHAR(128) NOT NULL,
		session_id INT NOT NULL,
		event_name VARCHAR(64) NOT NULL,
		event_timestamp DATETIME(6) NOT NULL,
		page_url TEXT NOT NULL,
		referrer TEXT NULL,
		user_agent TEXT NOT NULL,
		device_type VARCHAR(16) NOT NULL,
		utm_source VARCHAR(255) NULL,
		utm_medium VARCHAR(255) NULL,
		utm_campaign VARCHAR(255) NULL,
		event_data TEXT NOT NULL,
		INDEX idx_session_events_session (visitor_id, session_id)
	)`,
	`CREATE TABLE IF NOT EXISTS fact_funnel (
		batch_id CHAR(36) NOT NULL,
		visitor_id VARCHAR(128) NOT NULL,
		session_id INT NOT NULL,
		product_views INT NOT NULL,
		add_to_cart INT NOT NULL,
		checkout INT NOT NULL,
		purchase INT NOT NULL,
		session_start DATETIME(6) NOT NULL,
		session_end DATETIME(6) NOT NULL,
		PRIMARY KEY (visitor_id, session_id),
		INDEX idx_funnel_start (session_start)
	)`,
	`CREATE TABLE IF NOT EXISTS fact_attribution (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		batch_id CHAR(36) NOT NULL,
		visitor_id VARCHAR(128) NOT NULL,
		session_id INT NOT NULL,
		purchase_timestamp DATETIME(6) NOT NULL,
		attribution_fc VARCHAR(255) NOT NULL,
		attribution_lc VARCHAR(255) NOT NULL,
		INDEX idx_attribution_visitor (visitor_id, purchase_timestamp)
	)`,
	`CREATE TABLE IF NOT EXISTS dim_users (
		visitor_id VARCHAR(128) PRIMARY KEY,
		batch_id CHAR(36) NOT NULL,
		first_seen DATETIME(6) NOT NULL,
		last_seen DATETIME(6) NOT NULL,
		total_events INT NOT NULL,
		total_sessions INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dim_devices (
		visitor_id VARCHAR(128) PRIMARY KEY,
		batch_id CHAR(36) NOT NULL,
		device_type VARCHAR(16) NOT NULL,
		browser VARCHAR(64) NOT NULL,
		os VARCHAR(64) NOT NULL
	)`,
}

// ensureSchema executes each DDL statement in order
func ensureSchema(ctx context.Context, db *sql.DB, statements []string) error {
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
