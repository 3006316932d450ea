package transform

import (
	"sort"
	"strings"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// Funnel stages in conversion order
const (
	StageNone        = ""
	StageProductView = "product_view"
	StageAddToCart   = "add_to_cart"
	StageCheckout    = "checkout"
	StagePurchase    = "purchase"
)

const productDetailPath = "/products/"

// FunnelProcessor builds the per-session funnel table
type FunnelProcessor struct {
	logger *utils.ETLLogger
}

// NewFunnelProcessor creates a new FunnelProcessor
func NewFunnelProcessor(logger *utils.ETLLogger) *FunnelProcessor {
	return &FunnelProcessor{
		logger: logger,
	}
}

// ProcessFunnel builds the funnel table from session-tagged events
func (p *FunnelProcessor) ProcessFunnel(events []models.SessionEvent) []models.FunnelRecord {
	p.logger.Debug("Aggregating funnel for %d events", len(events))

	funnel := BuildFunnel(events)

	p.logger.Debug("Built %d funnel rows", len(funnel))
	return funnel
}

// ClassifyStage returns the funnel stage of an event, or StageNone
func ClassifyStage(eventName, pageURL string) string {
	switch eventName {
	case models.EventPageViewed:
		if strings.Contains(pageURL, productDetailPath) {
			return StageProductView
		}
	case models.EventProductAddedToCart:
		return StageAddToCart
	case models.EventCheckoutStarted:
		return StageCheckout
	case models.EventPurchase:
		return StagePurchase
	}
	return StageNone
}

type sessionKey struct {
	visitorID string
	sessionID int
}

// BuildFunnel returns one row per (visitor_id, session_id) with stage counts and
// session bounds, ordered by visitor and session. Sessions without conversions are kept.
func BuildFunnel(events []models.SessionEvent) []models.FunnelRecord {
	index := make(map[sessionKey]int)
	funnel := make([]models.FunnelRecord, 0)

	for i := range events {
		e := &events[i]
		key := sessionKey{visitorID: e.VisitorID, sessionID: e.SessionID}

		pos, ok := index[key]
		if !ok {
			pos = len(funnel)
			index[key] = pos
			funnel = append(funnel, models.FunnelRecord{
				VisitorID:    e.VisitorID,
				SessionID:    e.SessionID,
				SessionStart: e.Timestamp,
				SessionEnd:   e.Timestamp,
			})
		}

		record := &funnel[pos]
		if e.Timestamp.Before(record.SessionStart) {
			record.SessionStart = e.Timestamp
		}
		if e.Timestamp.After(record.SessionEnd) {
			record.SessionEnd = e.Timestamp
		}

		switch ClassifyStage(e.EventName, e.PageURL) {
		case StageProductView:
			record.ProductViews++
		case StageAddToCart:
			record.AddToCart++
		case StageCheckout:
			record.Checkout++
		case StagePurchase:
			record.Purchase++
		}
	}

	sort.Slice(funnel, func(i, j int) bool {
		if funnel[i].VisitorID != funnel[j].VisitorID {
			return funnel[i].VisitorID < funnel[j].VisitorID
		}
		return funnel[i].SessionID < funnel[j].SessionID
	})

	return funnel
}
