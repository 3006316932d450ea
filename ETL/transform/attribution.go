package transform

import (
	"sort"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// AttributionLookback is the trailing window searched for marketing touches before a purchase
const AttributionLookback = 7 * 24 * time.Hour

// AttributionProcessor credits purchases to marketing channels
type AttributionProcessor struct {
	logger  *utils.ETLLogger
	workers int
}

// NewAttributionProcessor creates a new AttributionProcessor
func NewAttributionProcessor(logger *utils.ETLLogger, workers int) *AttributionProcessor {
	return &AttributionProcessor{
		logger:  logger,
		workers: workers,
	}
}

// ProcessAttribution builds the attribution table from session-tagged events
func (p *AttributionProcessor) ProcessAttribution(events []models.SessionEvent) []models.AttributionRecord {
	p.logger.Debug("Attributing purchases over %d events", len(events))

	attribution := BuildAttribution(events, p.workers)

	direct, referral := 0, 0
	for _, a := range attribution {
		switch a.AttributionLC {
		case models.ChannelDirect:
			direct++
		case models.ChannelReferral:
			referral++
		}
	}
	p.logger.Debug("Attributed %d purchases (%d direct, %d referral fallbacks)", len(attribution), direct, referral)

	return attribution
}

// BuildAttribution returns one first-click/last-click record per purchase event,
// ordered by visitor and purchase time. Input order does not matter.
func BuildAttribution(events []models.SessionEvent, workers int) []models.AttributionRecord {
	ordered := make([]*models.SessionEvent, len(events))
	for i := range events {
		ordered[i] = &events[i]
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].VisitorID != ordered[j].VisitorID {
			return ordered[i].VisitorID < ordered[j].VisitorID
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	spans := visitorSpans(len(ordered), func(i int) string { return ordered[i].VisitorID })
	perVisitor := make([][]models.AttributionRecord, len(spans))
	forEachSpan(spans, workers, func(i int, s span) {
		perVisitor[i] = attributeVisitor(ordered[s.start:s.end])
	})

	attribution := make([]models.AttributionRecord, 0)
	for _, records := range perVisitor {
		attribution = append(attribution, records...)
	}
	return attribution
}

// attributeVisitor attributes every purchase of one visitor's time-ordered history
func attributeVisitor(history []*models.SessionEvent) []models.AttributionRecord {
	var records []models.AttributionRecord
	for _, e := range history {
		if e.EventName == models.EventPurchase {
			records = append(records, AttributePurchase(history, e))
		}
	}
	return records
}

// AttributePurchase credits one purchase using the visitor's history sorted by timestamp.
// Touches are events with a utm_source inside [purchase-7d, purchase]. Without touches
// both channels fall back to "direct" or "referral" depending on the purchase referrer.
func AttributePurchase(history []*models.SessionEvent, purchase *models.SessionEvent) models.AttributionRecord {
	windowStart := purchase.Timestamp.Add(-AttributionLookback)

	lo := sort.Search(len(history), func(i int) bool {
		return !history[i].Timestamp.Before(windowStart)
	})
	hi := sort.Search(len(history), func(i int) bool {
		return history[i].Timestamp.After(purchase.Timestamp)
	})

	var first, last *models.SessionEvent
	for _, e := range history[lo:hi] {
		if !models.IsPresent(e.UTMSource) {
			continue
		}
		if first == nil {
			first = e
		}
		last = e
	}

	record := models.AttributionRecord{
		VisitorID:         purchase.VisitorID,
		SessionID:         purchase.SessionID,
		PurchaseTimestamp: purchase.Timestamp,
	}

	if first == nil {
		channel := FallbackChannel(purchase.Referrer)
		record.AttributionFC = channel
		record.AttributionLC = channel
		return record
	}

	record.AttributionFC = *first.UTMSource
	record.AttributionLC = *last.UTMSource
	return record
}

// FallbackChannel classifies a purchase without marketing touches by its referrer
func FallbackChannel(referrer *string) string {
	if models.IsPresent(referrer) {
		return models.ChannelReferral
	}
	return models.ChannelDirect
}
