package load

import (
	"context"
	"database/sql"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// DimensionLoader loads the visitor and device dimensions
type DimensionLoader struct {
	logger *utils.ETLLogger
}

// NewDimensionLoader creates a new DimensionLoader
func NewDimensionLoader(logger *utils.ETLLogger) *DimensionLoader {
	return &DimensionLoader{logger: logger}
}

// LoadUsers replaces dim_users
func (l *DimensionLoader) LoadUsers(ctx context.Context, tx *sql.Tx, batchID string, users []models.UserDimension) error {
	if len(users) == 0 {
		l.logger.Debug("No visitors to load")
	}
	return replaceRows(ctx, tx, l.logger, usersTable, userRows(batchID, users))
}

// LoadDevices replaces dim_devices
func (l *DimensionLoader) LoadDevices(ctx context.Context, tx *sql.Tx, batchID string, devices []models.DeviceDimension) error {
	if len(devices) == 0 {
		l.logger.Debug("No devices to load")
	}
	return replaceRows(ctx, tx, l.logger, devicesTable, deviceRows(batchID, devices))
}
