// routes/etl_handlers.go
package routes

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

// RunsResponse lists recent ETL runs
type RunsResponse struct {
	Days int                `json:"days"`
	Runs []models.ETLRunLog `json:"runs"`
}

// GetETLRunsHandler returns the runs started in the last days (default 7)
func GetETLRunsHandler(repo models.ETLLogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := positiveIntParam(r, "days", 7, 365)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		runs, err := repo.GetETLRunStats(r.Context(), days)
		if err != nil {
			log.WithError(err).Error("Failed to read ETL runs")
			writeError(w, http.StatusInternalServerError, "failed to read ETL runs")
			return
		}
		if runs == nil {
			runs = []models.ETLRunLog{}
		}

		writeJSON(w, http.StatusOK, RunsResponse{Days: days, Runs: runs})
	}
}

// GetETLStateHandler returns the run log summary
func GetETLStateHandler(repo models.ETLLogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := repo.GetETLStateMonitor(r.Context())
		if err != nil {
			log.WithError(err).Error("Failed to read ETL state")
			writeError(w, http.StatusInternalServerError, "failed to read ETL state")
			return
		}

		writeJSON(w, http.StatusOK, state)
	}
}
