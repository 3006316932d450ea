package load

import (
	"context"
	"fmt"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// LoadManager drives the load phase over the primary store and its mirrors
type LoadManager struct {
	logger  *utils.ETLLogger
	primary Loader
	mirrors []Loader
}

// NewLoadManager creates a new LoadManager. Mirror failures are logged but do not fail the run.
func NewLoadManager(logger *utils.ETLLogger, primary Loader, mirrors ...Loader) *LoadManager {
	return &LoadManager{
		logger:  logger,
		primary: primary,
		mirrors: mirrors,
	}
}

// EnsureSchema creates the output tables in every store
func (m *LoadManager) EnsureSchema(ctx context.Context) error {
	if err := m.primary.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("%s: %w", m.primary.Name(), err)
	}

	for _, mirror := range m.mirrors {
		if err := mirror.EnsureSchema(ctx); err != nil {
			m.logger.Warn("Failed to prepare %s schema: %v", mirror.Name(), err)
		}
	}
	return nil
}

// Load runs the load phase for the output of the transform phase
func (m *LoadManager) Load(ctx context.Context, transformedData *models.TransformedData) error {
	startTime := time.Now()
	m.logger.Info("Starting Load phase")

	if err := m.primary.Load(ctx, transformedData); err != nil {
		m.logger.Error("Load into %s failed: %v", m.primary.Name(), err)
		return fmt.Errorf("failed to load into %s: %w", m.primary.Name(), err)
	}

	for _, mirror := range m.mirrors {
		if err := mirror.Load(ctx, transformedData); err != nil {
			m.logger.Warn("Load into mirror %s failed: %v", mirror.Name(), err)
		}
	}

	m.logger.LogLoadComplete(time.Since(startTime))
	return nil
}
