package models

import (
	"time"
)

// Event names of the tracked storefront funnel
const (
	EventPageViewed         = "page_viewed"
	EventEmailFilledOnPopup = "email_filled_on_popup"
	EventProductAddedToCart = "product_added_to_cart"
	EventCheckoutStarted    = "checkout_started"
	EventPurchase           = "purchase"
)

// RawEvent represents one behavioral event as stored in the source event table
type RawEvent struct {
	VisitorID string
	EventName string
	Timestamp time.Time
	PageURL   string
	Referrer  *string
	UserAgent string
	EventData string
}

// ExtractedData holds the events extracted for one ETL run
type ExtractedData struct {
	Events []RawEvent
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsPresent reports whether a nullable string carries a value
func IsPresent(s *string) bool {
	return s != nil && *s != ""
}

// StringValue returns the value of a nullable string or "" for null
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
