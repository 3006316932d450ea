package load

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// replaceRows swaps the contents of t for rows inside tx. The caller owns commit and rollback.
func replaceRows(ctx context.Context, tx *sql.Tx, logger *utils.ETLLogger, t table, rows [][]interface{}) error {
	startTime := time.Now()
	logger.Info("Loading %s (rows: %d)", t.name, len(rows))

	// 1. Clear the previous run
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.name); err != nil {
		return fmt.Errorf("failed to clear %s: %w", t.name, err)
	}

	// 2. Insert the new rows
	stmt, err := tx.PrepareContext(ctx, t.insertSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", t.name, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			logger.Error("Failed to insert row %d into %s: %v", i, t.name, err)
			return fmt.Errorf("failed to insert into %s: %w", t.name, err)
		}

		if (i+1)%1000 == 0 {
			logger.Debug("Inserted %d of %d rows into %s...", i+1, len(rows), t.name)
		}
	}

	logger.Info("Staged %s. Rows: %d. Duration: %v", t.name, len(rows), time.Since(startTime))
	return nil
}
