// routes/attribution_handlers.go
package routes

import (
	"database/sql"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

// attributionColumns maps the model query parameter to its column
var attributionColumns = map[string]string{
	"fc": "attribution_fc",
	"lc": "attribution_lc",
}

// AttributionResponse lists the attributed purchases of one visitor
type AttributionResponse struct {
	VisitorID string                     `json:"visitor_id"`
	Purchases []models.AttributionRecord `json:"purchases"`
}

// ChannelCount is the number of purchases credited to one channel
type ChannelCount struct {
	Channel   string `json:"channel"`
	Purchases int    `json:"purchases"`
}

// ChannelsResponse is the channel breakdown under one attribution model
type ChannelsResponse struct {
	Model    string         `json:"model"`
	Total    int            `json:"total"`
	Channels []ChannelCount `json:"channels"`
}

// GetAttributionHandler returns the attribution rows of a visitor
func GetAttributionHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := visitorParam(r)
		if visitorID == "" {
			writeError(w, http.StatusBadRequest, "visitor_id is required")
			return
		}

		rows, err := db.QueryContext(r.Context(), `
			SELECT visitor_id, session_id, purchase_timestamp, attribution_fc, attribution_lc
			FROM fact_attribution
			WHERE visitor_id = ?
			ORDER BY purchase_timestamp, id
		`, visitorID)
		if err != nil {
			log.WithError(err).Error("Failed to query attribution")
			writeError(w, http.StatusInternalServerError, "failed to read attribution")
			return
		}
		defer rows.Close()

		purchases := make([]models.AttributionRecord, 0)
		for rows.Next() {
			var a models.AttributionRecord
			if err := rows.Scan(&a.VisitorID, &a.SessionID, &a.PurchaseTimestamp, &a.AttributionFC, &a.AttributionLC); err != nil {
				log.WithError(err).Error("Failed to scan attribution row")
				writeError(w, http.StatusInternalServerError, "failed to read attribution")
				return
			}
			purchases = append(purchases, a)
		}

		if err := rows.Err(); err != nil {
			log.WithError(err).Error("Failed iterating attribution rows")
			writeError(w, http.StatusInternalServerError, "failed to read attribution")
			return
		}

		writeJSON(w, http.StatusOK, AttributionResponse{VisitorID: visitorID, Purchases: purchases})
	}
}

// GetChannelsHandler counts purchases per channel for model=fc or model=lc (default)
func GetChannelsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model := r.URL.Query().Get("model")
		if model == "" {
			model = "lc"
		}

		column, ok := attributionColumns[model]
		if !ok {
			writeError(w, http.StatusBadRequest, "model must be fc or lc")
			return
		}

		rows, err := db.QueryContext(r.Context(), fmt.Sprintf(`
			SELECT %s AS channel, COUNT(*) AS purchases
			FROM fact_attribution
			GROUP BY channel
			ORDER BY purchases DESC, channel
		`, column))
		if err != nil {
			log.WithError(err).Error("Failed to query channels")
			writeError(w, http.StatusInternalServerError, "failed to read channels")
			return
		}
		defer rows.Close()

		response := ChannelsResponse{Model: model, Channels: make([]ChannelCount, 0)}
		for rows.Next() {
			var c ChannelCount
			if err := rows.Scan(&c.Channel, &c.Purchases); err != nil {
				log.WithError(err).Error("Failed to scan channel row")
				writeError(w, http.StatusInternalServerError, "failed to read channels")
				return
			}
			response.Channels = append(response.Channels, c)
			response.Total += c.Purchases
		}

		if err := rows.Err(); err != nil {
			log.WithError(err).Error("Failed iterating channel rows")
			writeError(w, http.StatusInternalServerError, "failed to read channels")
			return
		}

		writeJSON(w, http.StatusOK, response)
	}
}
