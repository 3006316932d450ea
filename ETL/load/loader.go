package load

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// Loader writes the derived tables of one ETL run into a store
type Loader interface {
	// Name identifies the store in logs
	Name() string

	// EnsureSchema creates the output tables when they do not exist
	EnsureSchema(ctx context.Context) error

	// Load replaces every output table with the rows of data, stamped with data.Metadata.BatchID
	Load(ctx context.Context, data *models.TransformedData) error
}

// OLAPLoader implements Loader for the MySQL analytics database
type OLAPLoader struct {
	db     *sql.DB
	logger *utils.ETLLogger

	factLoader      *FactLoader
	dimensionLoader *DimensionLoader
}

// NewOLAPLoader creates a new OLAPLoader
func NewOLAPLoader(db *sql.DB, logger *utils.ETLLogger) *OLAPLoader {
	return &OLAPLoader{
		db:              db,
		logger:          logger,
		factLoader:      NewFactLoader(logger),
		dimensionLoader: NewDimensionLoader(logger),
	}
}

// Name implements Loader
func (l *OLAPLoader) Name() string {
	return "mysql"
}

// EnsureSchema creates the fact and dimension tables
func (l *OLAPLoader) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, l.db, mysqlSchema)
}

// Load replaces all five tables in one transaction, so readers never see two batches at once
func (l *OLAPLoader) Load(ctx context.Context, data *models.TransformedData) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := l.loadTables(ctx, tx, data); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch %s: %w", data.Metadata.BatchID, err)
	}
	return nil
}

func (l *OLAPLoader) loadTables(ctx context.Context, tx *sql.Tx, data *models.TransformedData) error {
	batchID := data.Metadata.BatchID

	// 1. Dimensions
	if err := l.dimensionLoader.LoadUsers(ctx, tx, batchID, data.Users); err != nil {
		return fmt.Errorf("failed to load user dimension: %w", err)
	}
	if err := l.dimensionLoader.LoadDevices(ctx, tx, batchID, data.Devices); err != nil {
		return fmt.Errorf("failed to load device dimension: %w", err)
	}

	// 2. Session-tagged events
	if err := l.factLoader.LoadSessionEvents(ctx, tx, batchID, data.Events); err != nil {
		return fmt.Errorf("failed to load session events: %w", err)
	}

	// 3. Funnel
	if err := l.factLoader.LoadFunnel(ctx, tx, batchID, data.Funnel); err != nil {
		return fmt.Errorf("failed to load funnel: %w", err)
	}

	// 4. Attribution
	if err := l.factLoader.LoadAttribution(ctx, tx, batchID, data.Attribution); err != nil {
		return fmt.Errorf("failed to load attribution: %w", err)
	}

	return nil
}
