package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/clickstream_etl/ETL/config"
	"github.com/LilVoxy/clickstream_etl/ETL/extractors"
	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/transform"
	"github.com/LilVoxy/clickstream_etl/ETL/trend"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

type sliceSource []models.RawEvent

func (s sliceSource) ExtractEvents(ctx context.Context) ([]models.RawEvent, error) {
	return s, nil
}

type failingSource struct{ err error }

func (s failingSource) ExtractEvents(ctx context.Context) ([]models.RawEvent, error) {
	return nil, s.err
}

type capturingLoadManager struct {
	loaded *models.TransformedData
	err    error
}

func (c *capturingLoadManager) EnsureSchema(ctx context.Context) error { return nil }

func (c *capturingLoadManager) Load(ctx context.Context, data *models.TransformedData) error {
	c.loaded = data
	return c.err
}

// memoryRunLog records run log updates
type memoryRunLog struct {
	batchID  string
	success  *models.ETLMetadata
	failure  string
	createID int
}

func (m *memoryRunLog) CreateETLLogTable(ctx context.Context) error { return nil }

func (m *memoryRunLog) CreateLogEntry(ctx context.Context, batchID string, startTime time.Time) (int, error) {
	m.batchID = batchID
	m.createID++
	return m.createID, nil
}

func (m *memoryRunLog) UpdateLogEntrySuccess(ctx context.Context, id int, endTime time.Time, metadata models.ETLMetadata) error {
	m.success = &metadata
	return nil
}

func (m *memoryRunLog) UpdateLogEntryFailure(ctx context.Context, id int, endTime time.Time, errorMessage string) error {
	m.failure = errorMessage
	return nil
}

func (m *memoryRunLog) GetLastSuccessfulRun(ctx context.Context) (*models.ETLRunLog, error) {
	return nil, nil
}

func (m *memoryRunLog) GetETLRunStats(ctx context.Context, days int) ([]models.ETLRunLog, error) {
	return nil, nil
}

func (m *memoryRunLog) GetETLStateMonitor(ctx context.Context) (*models.ETLStateMonitor, error) {
	return &models.ETLStateMonitor{}, nil
}

func newTestRunner(source extractors.EventSource, loadManager *capturingLoadManager, runLog *memoryRunLog) *ETLRunner {
	logger := utils.NewETLLoggerWithWriter(io.Discard, false)
	return &ETLRunner{
		config:      config.ETLConfig{Workers: 2, Trend: config.TrendConfig{Enabled: true}},
		logger:      logger,
		extractor:   extractors.NewExtractor(source, logger),
		transformer: transform.NewTransformer(logger, 2),
		loadManager: loadManager,
		etlLogRepo:  runLog,
		runTrend: func(ctx context.Context, cfg trend.Config) error {
			return models.ErrNoData
		},
		newBatchID: func() string { return "batch-1" },
	}
}

func exampleEvents() []models.RawEvent {
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	ref := "https://news.example.com"
	return []models.RawEvent{
		{VisitorID: "A", EventName: models.EventPageViewed, Timestamp: t0, PageURL: "https://shop.example.com/?utm_source=fb", UserAgent: ua},
		{VisitorID: "A", EventName: models.EventPageViewed, Timestamp: t0.Add(5 * time.Minute), PageURL: "https://shop.example.com/products/p1", UserAgent: ua},
		{VisitorID: "A", EventName: models.EventPurchase, Timestamp: t0.Add(10 * time.Minute), PageURL: "https://shop.example.com/thank-you", UserAgent: ua},
		{VisitorID: "B", EventName: models.EventPurchase, Timestamp: t0, PageURL: "https://shop.example.com/", Referrer: &ref, UserAgent: ua},
	}
}

func TestExecuteETL_Success(t *testing.T) {
	loadManager := &capturingLoadManager{}
	runLog := &memoryRunLog{}
	runner := newTestRunner(sliceSource(exampleEvents()), loadManager, runLog)

	require.NoError(t, runner.ExecuteETL(context.Background()))

	require.NotNil(t, loadManager.loaded)
	assert.Equal(t, "batch-1", loadManager.loaded.Metadata.BatchID)
	assert.Len(t, loadManager.loaded.Funnel, 2)
	require.Len(t, loadManager.loaded.Attribution, 2)
	assert.Equal(t, "fb", loadManager.loaded.Attribution[0].AttributionFC)
	assert.Equal(t, models.ChannelReferral, loadManager.loaded.Attribution[1].AttributionLC)

	assert.Equal(t, "batch-1", runLog.batchID)
	require.NotNil(t, runLog.success)
	assert.Equal(t, 4, runLog.success.EventsProcessed)
	assert.Equal(t, 2, runLog.success.VisitorsProcessed)
	assert.Equal(t, 2, runLog.success.PurchasesAttributed)
	assert.Empty(t, runLog.failure)
}

func TestExecuteETL_ExtractFailure(t *testing.T) {
	loadManager := &capturingLoadManager{}
	runLog := &memoryRunLog{}
	runner := newTestRunner(failingSource{err: errors.New("raw_events unavailable")}, loadManager, runLog)

	err := runner.ExecuteETL(context.Background())
	assert.ErrorContains(t, err, "Extract phase failed")
	assert.Contains(t, runLog.failure, "raw_events unavailable")
	assert.Nil(t, runLog.success)
	assert.Nil(t, loadManager.loaded)
}

func TestExecuteETL_RejectsBatchWithMissingFields(t *testing.T) {
	events := exampleEvents()
	events[2].VisitorID = ""

	loadManager := &capturingLoadManager{}
	runLog := &memoryRunLog{}
	err := newTestRunner(sliceSource(events), loadManager, runLog).ExecuteETL(context.Background())

	assert.ErrorIs(t, err, models.ErrMissingRequiredField)
	assert.Contains(t, runLog.failure, "Transform phase failed")
	assert.Nil(t, loadManager.loaded)
}

func TestExecuteETL_LoadFailure(t *testing.T) {
	loadManager := &capturingLoadManager{err: errors.New("deadlock")}
	runLog := &memoryRunLog{}

	err := newTestRunner(sliceSource(exampleEvents()), loadManager, runLog).ExecuteETL(context.Background())
	assert.ErrorContains(t, err, "deadlock")
	assert.Contains(t, runLog.failure, "Load phase failed")
}

func TestExecuteETL_EmptyInput(t *testing.T) {
	loadManager := &capturingLoadManager{}
	runLog := &memoryRunLog{}

	require.NoError(t, newTestRunner(sliceSource(nil), loadManager, runLog).ExecuteETL(context.Background()))
	assert.Empty(t, loadManager.loaded.Funnel)
	assert.Empty(t, loadManager.loaded.Attribution)
	require.NotNil(t, runLog.success)
	assert.Equal(t, 0, runLog.success.EventsProcessed)
}
