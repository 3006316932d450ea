// routes/trend_handlers.go
package routes

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/LilVoxy/clickstream_etl/ETL/trend"
)

// TrendResponse is the latest purchase trend model with its upcoming forecasts
type TrendResponse struct {
	Model     *trend.RegressionResult `json:"model"`
	Forecasts []trend.ForecastPoint   `json:"forecasts"`
}

// now is replaced in tests
var now = time.Now

// GetTrendHandler returns forecasts for the next days (default 14)
func GetTrendHandler(repo trend.PredictionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := positiveIntParam(r, "days", 14, 90)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		model, err := repo.GetLastRegressionResult(r.Context())
		if err != nil {
			log.WithError(err).Error("Failed to read purchase trend model")
			writeError(w, http.StatusInternalServerError, "failed to read purchase trend")
			return
		}

		today := now().UTC().Truncate(24 * time.Hour)
		forecasts, err := repo.GetForecasts(r.Context(), today, today.AddDate(0, 0, days))
		if err != nil {
			log.WithError(err).Error("Failed to read purchase forecasts")
			writeError(w, http.StatusInternalServerError, "failed to read purchase trend")
			return
		}
		if forecasts == nil {
			forecasts = []trend.ForecastPoint{}
		}

		writeJSON(w, http.StatusOK, TrendResponse{Model: model, Forecasts: forecasts})
	}
}
