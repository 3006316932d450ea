package trend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const insertPredictionQuery = `
	INSERT INTO purchase_trend_predictions
		(period_start, period_end, a, b, r, r2, forecast_date, forecast_value, ci_lower, ci_upper)
	VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// MySQLPredictionRepository implements PredictionRepository over MySQL
type MySQLPredictionRepository struct {
	db *sql.DB
}

// NewMySQLPredictionRepository creates a new MySQLPredictionRepository
func NewMySQLPredictionRepository(db *sql.DB) *MySQLPredictionRepository {
	return &MySQLPredictionRepository{
		db: db,
	}
}

// EnsureTableExists creates purchase_trend_predictions when missing
func (r *MySQLPredictionRepository) EnsureTableExists(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS purchase_trend_predictions (
		id INT AUTO_INCREMENT PRIMARY KEY,
		period_start DATE NOT NULL,
		period_end DATE NOT NULL,
		a DOUBLE NOT NULL,
		b DOUBLE NOT NULL,
		r DOUBLE NOT NULL,
		r2 DOUBLE NOT NULL,
		forecast_date DATE NOT NULL,
		forecast_value DOUBLE NOT NULL,
		ci_lower DOUBLE NOT NULL,
		ci_upper DOUBLE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_forecast_date (forecast_date),
		INDEX idx_period (period_start, period_end)
	)`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create purchase_trend_predictions: %w", err)
	}
	return nil
}

// SaveMultiplePredictions stores forecasts in one transaction
func (r *MySQLPredictionRepository) SaveMultiplePredictions(ctx context.Context, result RegressionResult, forecasts []ForecastPoint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertPredictionQuery)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare prediction insert: %w", err)
	}
	defer stmt.Close()

	for _, forecast := range forecasts {
		_, err := stmt.ExecContext(ctx,
			result.PeriodStart,
			result.PeriodEnd,
			result.A,
			result.B,
			result.R,
			result.R2,
			forecast.Date,
			forecast.ForecastValue,
			forecast.CILower,
			forecast.CIUpper,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert prediction for %s: %w", forecast.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}

	return nil
}

// GetForecasts returns the latest forecast per day inside [startDate, endDate]
func (r *MySQLPredictionRepository) GetForecasts(ctx context.Context, startDate, endDate time.Time) ([]ForecastPoint, error) {
	query := `
	SELECT p.forecast_date, p.forecast_value, p.ci_lower, p.ci_upper
	FROM purchase_trend_predictions p
	JOIN (
		SELECT forecast_date, MAX(id) AS id
		FROM purchase_trend_predictions
		WHERE forecast_date BETWEEN ? AND ?
		GROUP BY forecast_date
	) latest ON latest.id = p.id
	ORDER BY p.forecast_date`

	rows, err := r.db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	forecasts := make([]ForecastPoint, 0)
	for rows.Next() {
		var f ForecastPoint
		if err := rows.Scan(&f.Date, &f.ForecastValue, &f.CILower, &f.CIUpper); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		forecasts = append(forecasts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating forecasts: %w", err)
	}

	return forecasts, nil
}

// GetLastRegressionResult returns the most recently stored model, or nil when none exists
func (r *MySQLPredictionRepository) GetLastRegressionResult(ctx context.Context) (*RegressionResult, error) {
	query := `
	SELECT a, b, r, r2, period_start, period_end
	FROM purchase_trend_predictions
	ORDER BY id DESC
	LIMIT 1`

	var result RegressionResult
	err := r.db.QueryRowContext(ctx, query).Scan(
		&result.A,
		&result.B,
		&result.R,
		&result.R2,
		&result.PeriodStart,
		&result.PeriodEnd,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read the last regression result: %w", err)
	}

	return &result, nil
}

// DeleteOldPredictions removes predictions created before olderThan
func (r *MySQLPredictionRepository) DeleteOldPredictions(ctx context.Context, olderThan time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM purchase_trend_predictions WHERE created_at < ?`, olderThan)
	if err != nil {
		return fmt.Errorf("failed to delete old predictions: %w", err)
	}
	return nil
}
