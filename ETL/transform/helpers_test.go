package transform

import (
	"io"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	mobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return baseTime.Add(d)
}

func rawEvent(visitorID, eventName string, ts time.Time, pageURL string) models.RawEvent {
	return models.RawEvent{
		VisitorID: visitorID,
		EventName: eventName,
		Timestamp: ts,
		PageURL:   pageURL,
		UserAgent: desktopUA,
	}
}

func withUA(e models.RawEvent, ua string) models.RawEvent {
	e.UserAgent = ua
	return e
}

func withReferrer(e models.RawEvent, referrer string) models.RawEvent {
	e.Referrer = models.StringPtr(referrer)
	return e
}

func sessionIDs(events []models.SessionEvent) []int {
	ids := make([]int, len(events))
	for i, e := range events {
		ids[i] = e.SessionID
	}
	return ids
}

func testLogger() *utils.ETLLogger {
	return utils.NewETLLoggerWithWriter(io.Discard, true)
}

// exampleVisitorA is a direct landing followed by a google campaign visit ending in a purchase
func exampleVisitorA() []models.RawEvent {
	return []models.RawEvent{
		rawEvent("A", models.EventPageViewed, at(0), "https://shop.example.com/"),
		rawEvent("A", models.EventPageViewed, at(10*time.Minute), "https://shop.example.com/products/mattress?utm_source=google&utm_medium=cpc&utm_campaign=spring"),
		rawEvent("A", models.EventProductAddedToCart, at(20*time.Minute), "https://shop.example.com/products/mattress"),
		rawEvent("A", models.EventCheckoutStarted, at(25*time.Minute), "https://shop.example.com/checkout"),
		rawEvent("A", models.EventPurchase, at(26*time.Minute), "https://shop.example.com/checkout/thank-you"),
	}
}
