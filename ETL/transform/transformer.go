package transform

import (
	"fmt"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// Transformer coordinates the transform phase: sessions, funnel, attribution and dimensions
type Transformer struct {
	logger               *utils.ETLLogger
	sessionProcessor     *SessionProcessor
	funnelProcessor      *FunnelProcessor
	attributionProcessor *AttributionProcessor
	dimensionProcessor   *DimensionProcessor
}

// NewTransformer creates a new Transformer processing visitor partitions on workers goroutines
func NewTransformer(logger *utils.ETLLogger, workers int) *Transformer {
	return &Transformer{
		logger:               logger,
		sessionProcessor:     NewSessionProcessor(logger, workers),
		funnelProcessor:      NewFunnelProcessor(logger),
		attributionProcessor: NewAttributionProcessor(logger, workers),
		dimensionProcessor:   NewDimensionProcessor(logger),
	}
}

// Transform runs the full transform phase over the extracted events
func (t *Transformer) Transform(extractedData *models.ExtractedData) (*models.TransformedData, error) {
	startTime := time.Now()
	t.logger.Info("Transform phase started")

	transformedData := &models.TransformedData{}

	// 1. Sessions
	t.logger.Info("Building sessions...")
	stepStart := time.Now()
	events, err := t.sessionProcessor.ProcessSessions(extractedData.Events)
	if err != nil {
		t.logger.Error("Failed to build sessions: %v", err)
		return nil, fmt.Errorf("failed to build sessions: %w", err)
	}
	transformedData.Events = events
	t.logger.Debug("Sessions built in %v", time.Since(stepStart))

	// 2. Funnel
	t.logger.Info("Building funnel metrics...")
	stepStart = time.Now()
	transformedData.Funnel = t.funnelProcessor.ProcessFunnel(events)
	t.logger.Debug("Funnel built in %v", time.Since(stepStart))

	// 3. Attribution
	t.logger.Info("Building first-click and last-click attribution...")
	stepStart = time.Now()
	transformedData.Attribution = t.attributionProcessor.ProcessAttribution(events)
	t.logger.Debug("Attribution built in %v", time.Since(stepStart))

	// 4. Dimensions
	t.logger.Info("Building user and device dimensions...")
	transformedData.Users, transformedData.Devices = t.dimensionProcessor.ProcessDimensions(events)

	transformedData.Metadata = models.ETLMetadata{
		EventsProcessed:     len(events),
		VisitorsProcessed:   len(transformedData.Users),
		SessionsBuilt:       len(transformedData.Funnel),
		PurchasesAttributed: len(transformedData.Attribution),
	}

	for _, e := range events {
		if e.Timestamp.After(transformedData.Metadata.LastEventTimestamp) {
			transformedData.Metadata.LastEventTimestamp = e.Timestamp
		}
	}

	t.logger.LogTransformComplete(
		transformedData.Metadata.SessionsBuilt,
		len(transformedData.Funnel),
		len(transformedData.Attribution),
		time.Since(startTime),
	)

	return transformedData, nil
}
