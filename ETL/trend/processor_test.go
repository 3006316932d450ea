package trend

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/clickstream_etl/ETL/config"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

type staticSource struct {
	points   []DataPoint
	err      error
	daysBack int
}

func (s *staticSource) GetDailyPurchases(ctx context.Context, daysBack int) ([]DataPoint, error) {
	s.daysBack = daysBack
	return s.points, s.err
}

type memoryRepository struct {
	saved       []ForecastPoint
	result      *RegressionResult
	prunedUntil time.Time
	pruneErr    error
}

func (m *memoryRepository) EnsureTableExists(ctx context.Context) error { return nil }

func (m *memoryRepository) SaveMultiplePredictions(ctx context.Context, result RegressionResult, forecasts []ForecastPoint) error {
	m.result = &result
	m.saved = append(m.saved, forecasts...)
	return nil
}

func (m *memoryRepository) GetForecasts(ctx context.Context, startDate, endDate time.Time) ([]ForecastPoint, error) {
	return m.saved, nil
}

func (m *memoryRepository) GetLastRegressionResult(ctx context.Context) (*RegressionResult, error) {
	return m.result, nil
}

func (m *memoryRepository) DeleteOldPredictions(ctx context.Context, olderThan time.Time) error {
	m.prunedUntil = olderThan
	return m.pruneErr
}

func newTestProcessor(source PurchaseSource, repo PredictionRepository) *TrendProcessor {
	p := NewTrendProcessor(source, repo, utils.NewETLLoggerWithWriter(io.Discard, false), DefaultConfig())
	p.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestTrendProcessor_Process(t *testing.T) {
	source := &staticSource{points: series(1, 3, 5, 7, 9)}
	repo := &memoryRepository{}

	require.NoError(t, newTestProcessor(source, repo).Process(context.Background()))

	assert.Equal(t, 30, source.daysBack)
	assert.Len(t, repo.saved, 14)
	assert.Equal(t, 2.0, repo.result.A)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), repo.prunedUntil)
}

func TestTrendProcessor_PruneFailureIsNotFatal(t *testing.T) {
	repo := &memoryRepository{pruneErr: errors.New("locked")}

	err := newTestProcessor(&staticSource{points: series(1, 2, 4)}, repo).Process(context.Background())
	assert.NoError(t, err)
	assert.Len(t, repo.saved, 14)
}

func TestTrendProcessor_SourceError(t *testing.T) {
	err := newTestProcessor(&staticSource{err: errors.New("no funnel")}, &memoryRepository{}).Process(context.Background())
	assert.ErrorContains(t, err, "no funnel")
}

func TestTrendProcessor_TooFewPoints(t *testing.T) {
	repo := &memoryRepository{}
	err := newTestProcessor(&staticSource{points: series(3)}, repo).Process(context.Background())
	assert.Error(t, err)
	assert.Empty(t, repo.saved)
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(config.TrendConfig{AnalysisPeriodDays: 60, ForecastDays: 7, ConfidenceLevel: 0.99, MinR2Threshold: 0.5})
	assert.Equal(t, Config{AnalysisPeriodDays: 60, ForecastDays: 7, ConfidenceLevel: 0.99, MinR2Threshold: 0.5}, cfg)
}
