package trend

import (
	"context"
	"time"
)

// DataPoint is one day of the purchase series
type DataPoint struct {
	X    float64   // day offset from the start of the period
	Y    float64   // purchases on that day
	Date time.Time // calendar day
}

// RegressionResult holds the fitted line y = A*x + B
type RegressionResult struct {
	A           float64     `json:"a"`
	B           float64     `json:"b"`
	R           float64     `json:"r"`
	R2          float64     `json:"r2"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
	DataPoints  []DataPoint `json:"-"`
}

// ForecastPoint is the predicted purchase count of one future day
type ForecastPoint struct {
	Date          time.Time `json:"date"`
	ForecastValue float64   `json:"forecast_value"`
	CILower       float64   `json:"ci_lower"`
	CIUpper       float64   `json:"ci_upper"`
}

// PredictionRepository stores forecasts
type PredictionRepository interface {
	// EnsureTableExists creates the predictions table
	EnsureTableExists(ctx context.Context) error

	// SaveMultiplePredictions stores every forecast of one model
	SaveMultiplePredictions(ctx context.Context, result RegressionResult, forecasts []ForecastPoint) error

	// GetForecasts returns forecasts with a date inside [startDate, endDate]
	GetForecasts(ctx context.Context, startDate, endDate time.Time) ([]ForecastPoint, error)

	// GetLastRegressionResult returns the most recent model, or nil
	GetLastRegressionResult(ctx context.Context) (*RegressionResult, error)

	// DeleteOldPredictions removes predictions created before olderThan
	DeleteOldPredictions(ctx context.Context, olderThan time.Time) error
}
