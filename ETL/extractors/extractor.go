package extractors

import (
	"context"
	"fmt"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// EventSource supplies the complete raw event batch of one run
type EventSource interface {
	ExtractEvents(ctx context.Context) ([]models.RawEvent, error)
}

// Extractor coordinates the extract phase
type Extractor struct {
	source EventSource
	logger *utils.ETLLogger
}

// NewExtractor creates a new Extractor reading from source
func NewExtractor(source EventSource, logger *utils.ETLLogger) *Extractor {
	return &Extractor{
		source: source,
		logger: logger,
	}
}

// Extract reads the raw event batch for an ETL run
func (e *Extractor) Extract(ctx context.Context) (*models.ExtractedData, error) {
	startTime := time.Now()
	e.logger.LogExtractStart()

	events, err := e.source.ExtractEvents(ctx)
	if err != nil {
		e.logger.Error("Failed to extract events: %v", err)
		return nil, fmt.Errorf("failed to extract events: %w", err)
	}

	extractedData := &models.ExtractedData{
		Events: events,
	}

	e.logger.LogExtractComplete(len(events), time.Since(startTime))
	return extractedData, nil
}
