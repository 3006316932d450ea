// routes/api_routes.go
package routes

import (
	"database/sql"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/trend"
	"github.com/LilVoxy/clickstream_etl/middleware"
)

// Dependencies are the stores behind the read API
type Dependencies struct {
	DB          *sql.DB
	RunLog      models.ETLLogRepository
	Predictions trend.PredictionRepository
}

// SetupRoutes registers every API route
func SetupRoutes(router *mux.Router, deps Dependencies) {
	router.Use(middleware.CORSMiddleware)

	api := router.PathPrefix("/api").Subrouter()

	// Funnel
	api.HandleFunc("/funnel", GetFunnelHandler(deps.DB)).Methods("GET", "OPTIONS")
	api.HandleFunc("/funnel/summary", GetFunnelSummaryHandler(deps.DB)).Methods("GET", "OPTIONS")

	// Attribution
	api.HandleFunc("/attribution", GetAttributionHandler(deps.DB)).Methods("GET", "OPTIONS")
	api.HandleFunc("/attribution/channels", GetChannelsHandler(deps.DB)).Methods("GET", "OPTIONS")

	// ETL run log
	api.HandleFunc("/etl/runs", GetETLRunsHandler(deps.RunLog)).Methods("GET", "OPTIONS")
	api.HandleFunc("/etl/state", GetETLStateHandler(deps.RunLog)).Methods("GET", "OPTIONS")

	// Purchase trend
	api.HandleFunc("/trend", GetTrendHandler(deps.Predictions)).Methods("GET", "OPTIONS")
}
