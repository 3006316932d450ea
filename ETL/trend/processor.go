package trend

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/config"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// PredictionRetention is how long stored predictions are kept
const PredictionRetention = 90 * 24 * time.Hour

// Config controls the purchase trend forecast
type Config struct {
	// Days of history to fit
	AnalysisPeriodDays int
	// Days to forecast
	ForecastDays int
	// 0.90, 0.95 or 0.99
	ConfidenceLevel float64
	// Minimum r² for the model to count as significant
	MinR2Threshold float64
}

// DefaultConfig returns the default forecast settings
func DefaultConfig() Config {
	return Config{
		AnalysisPeriodDays: 30,
		ForecastDays:       14,
		ConfidenceLevel:    0.95,
		MinR2Threshold:     0.30,
	}
}

// ConfigFromSettings converts the environment settings
func ConfigFromSettings(settings config.TrendConfig) Config {
	return Config{
		AnalysisPeriodDays: settings.AnalysisPeriodDays,
		ForecastDays:       settings.ForecastDays,
		ConfidenceLevel:    settings.ConfidenceLevel,
		MinR2Threshold:     settings.MinR2Threshold,
	}
}

// PurchaseSource supplies the daily purchase series
type PurchaseSource interface {
	GetDailyPurchases(ctx context.Context, daysBack int) ([]DataPoint, error)
}

// TrendProcessor fits the purchase trend and stores its forecasts
type TrendProcessor struct {
	source     PurchaseSource
	repository PredictionRepository
	logger     *utils.ETLLogger
	config     Config
	now        func() time.Time
}

// NewTrendProcessor creates a new TrendProcessor
func NewTrendProcessor(source PurchaseSource, repository PredictionRepository, logger *utils.ETLLogger, cfg Config) *TrendProcessor {
	return &TrendProcessor{
		source:     source,
		repository: repository,
		logger:     logger,
		config:     cfg,
		now:        time.Now,
	}
}

// Process reads the series, fits the model and stores the forecasts
func (p *TrendProcessor) Process(ctx context.Context) error {
	startTime := time.Now()
	p.logger.Info("Starting purchase trend forecast")

	// 1. Make sure the predictions table exists
	if err := p.repository.EnsureTableExists(ctx); err != nil {
		return err
	}

	// 2. Read the series
	p.logger.Info("Reading daily purchases for the last %d days", p.config.AnalysisPeriodDays)
	dataPoints, err := p.source.GetDailyPurchases(ctx, p.config.AnalysisPeriodDays)
	if err != nil {
		return fmt.Errorf("failed to read daily purchases: %w", err)
	}
	p.logger.Debug("Got %d data points", len(dataPoints))

	// 3. Fit
	result, err := LinearRegression(dataPoints)
	if err != nil {
		return fmt.Errorf("failed to fit purchase trend: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"a":  result.A,
		"b":  result.B,
		"r":  result.R,
		"r2": result.R2,
	}).Info("Purchase trend %s to %s",
		result.PeriodStart.Format("2006-01-02"),
		result.PeriodEnd.Format("2006-01-02"))

	if result.R2 < p.config.MinR2Threshold {
		p.logger.Warn("Weak purchase trend (R²=%.3f < %.3f), forecasting anyway", result.R2, p.config.MinR2Threshold)
	}

	// 4. Forecast and store
	forecasts := GenerateForecasts(result, p.config.ForecastDays, p.config.ConfidenceLevel)
	if err := p.repository.SaveMultiplePredictions(ctx, *result, forecasts); err != nil {
		return fmt.Errorf("failed to save forecasts: %w", err)
	}

	// 5. Prune
	if err := p.repository.DeleteOldPredictions(ctx, p.now().Add(-PredictionRetention)); err != nil {
		p.logger.Warn("Failed to prune old predictions: %v", err)
	}

	p.logger.Info("Purchase trend forecast done: %d forecasts in %v", len(forecasts), time.Since(startTime))
	return nil
}

// Run builds the MySQL-backed processor and runs it once
func Run(ctx context.Context, olapDB *sql.DB, logger *utils.ETLLogger, cfg Config) error {
	processor := NewTrendProcessor(NewDataService(olapDB), NewMySQLPredictionRepository(olapDB), logger, cfg)
	return processor.Process(ctx)
}
