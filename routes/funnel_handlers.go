// routes/funnel_handlers.go
package routes

import (
	"context"
	"database/sql"
	"math"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

// FunnelResponse lists the sessions of one visitor
type FunnelResponse struct {
	VisitorID string                `json:"visitor_id"`
	Sessions  []models.FunnelRecord `json:"sessions"`
}

// FunnelSummary aggregates the funnel table
type FunnelSummary struct {
	Sessions               int     `json:"sessions"`
	ProductViewSessions    int     `json:"product_view_sessions"`
	AddToCartSessions      int     `json:"add_to_cart_sessions"`
	CheckoutSessions       int     `json:"checkout_sessions"`
	PurchaseSessions       int     `json:"purchase_sessions"`
	Purchases              int     `json:"purchases"`
	ViewToCartRate         float64 `json:"view_to_cart_rate"`
	CartToCheckoutRate     float64 `json:"cart_to_checkout_rate"`
	CheckoutToPurchaseRate float64 `json:"checkout_to_purchase_rate"`
	SessionConversionRate  float64 `json:"session_conversion_rate"`
}

// GetFunnelHandler returns the funnel rows of a visitor
func GetFunnelHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := visitorParam(r)
		if visitorID == "" {
			writeError(w, http.StatusBadRequest, "visitor_id is required")
			return
		}

		rows, err := db.QueryContext(r.Context(), `
			SELECT visitor_id, session_id, product_views, add_to_cart, checkout, purchase, session_start, session_end
			FROM fact_funnel
			WHERE visitor_id = ?
			ORDER BY session_id
		`, visitorID)
		if err != nil {
			log.WithError(err).Error("Failed to query funnel")
			writeError(w, http.StatusInternalServerError, "failed to read funnel")
			return
		}
		defer rows.Close()

		sessions := make([]models.FunnelRecord, 0)
		for rows.Next() {
			var f models.FunnelRecord
			if err := rows.Scan(&f.VisitorID, &f.SessionID, &f.ProductViews, &f.AddToCart,
				&f.Checkout, &f.Purchase, &f.SessionStart, &f.SessionEnd); err != nil {
				log.WithError(err).Error("Failed to scan funnel row")
				writeError(w, http.StatusInternalServerError, "failed to read funnel")
				return
			}
			sessions = append(sessions, f)
		}

		if err := rows.Err(); err != nil {
			log.WithError(err).Error("Failed iterating funnel rows")
			writeError(w, http.StatusInternalServerError, "failed to read funnel")
			return
		}

		writeJSON(w, http.StatusOK, FunnelResponse{VisitorID: visitorID, Sessions: sessions})
	}
}

// GetFunnelSummaryHandler returns stage totals and stage-to-stage conversion
func GetFunnelSummaryHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := summarizeFunnel(r.Context(), db)
		if err != nil {
			log.WithError(err).Error("Failed to summarize funnel")
			writeError(w, http.StatusInternalServerError, "failed to summarize funnel")
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

func summarizeFunnel(ctx context.Context, db *sql.DB) (*FunnelSummary, error) {
	var s FunnelSummary
	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(product_views > 0), 0),
			COALESCE(SUM(add_to_cart > 0), 0),
			COALESCE(SUM(checkout > 0), 0),
			COALESCE(SUM(purchase > 0), 0),
			COALESCE(SUM(purchase), 0)
		FROM fact_funnel
	`).Scan(&s.Sessions, &s.ProductViewSessions, &s.AddToCartSessions, &s.CheckoutSessions, &s.PurchaseSessions, &s.Purchases)
	if err != nil {
		return nil, err
	}

	s.ViewToCartRate = conversionRate(s.AddToCartSessions, s.ProductViewSessions)
	s.CartToCheckoutRate = conversionRate(s.CheckoutSessions, s.AddToCartSessions)
	s.CheckoutToPurchaseRate = conversionRate(s.PurchaseSessions, s.CheckoutSessions)
	s.SessionConversionRate = conversionRate(s.PurchaseSessions, s.Sessions)
	return &s, nil
}

// conversionRate is converted/total rounded to four places, 0 when total is 0
func conversionRate(converted, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(converted)/float64(total)*10000) / 10000
}
