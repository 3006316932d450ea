package trend

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

// DataService reads the daily purchase series from the funnel table
type DataService struct {
	db *sql.DB
}

// NewDataService creates a new DataService
func NewDataService(db *sql.DB) *DataService {
	return &DataService{
		db: db,
	}
}

// GetDailyPurchases returns one point per day for the daysBack days ending at the
// latest session day in fact_funnel. Days without sessions count as zero purchases.
func (s *DataService) GetDailyPurchases(ctx context.Context, daysBack int) ([]DataPoint, error) {
	var lastDate sql.NullTime
	err := s.db.QueryRowContext(ctx, `SELECT MAX(DATE(session_start)) FROM fact_funnel`).Scan(&lastDate)
	if err != nil {
		return nil, fmt.Errorf("failed to find the latest funnel day: %w", err)
	}
	if !lastDate.Valid {
		return nil, fmt.Errorf("fact_funnel is empty: %w", models.ErrNoData)
	}

	query := `
	SELECT
		DATE(session_start) AS day,
		SUM(purchase) AS purchases
	FROM fact_funnel
	WHERE DATE(session_start) >= DATE_SUB(?, INTERVAL ? DAY)
		AND DATE(session_start) <= ?
	GROUP BY day
	ORDER BY day`

	rows, err := s.db.QueryContext(ctx, query, lastDate.Time, daysBack, lastDate.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily purchases: %w", err)
	}
	defer rows.Close()

	totals := make(map[time.Time]float64)
	var first, last time.Time
	for rows.Next() {
		var day time.Time
		var purchases float64
		if err := rows.Scan(&day, &purchases); err != nil {
			return nil, fmt.Errorf("failed to scan daily purchases: %w", err)
		}

		day = truncateDay(day)
		totals[day] = purchases
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating daily purchases: %w", err)
	}

	if len(totals) == 0 {
		return nil, fmt.Errorf("no purchases in the last %d days before %s: %w",
			daysBack, lastDate.Time.Format("2006-01-02"), models.ErrNoData)
	}

	var points []DataPoint
	for day, x := first, 0.0; !day.After(last); day, x = day.AddDate(0, 0, 1), x+1 {
		points = append(points, DataPoint{X: x, Y: totals[day], Date: day})
	}

	return points, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
