package models

import (
	"time"
)

// Device types assigned to session-tagged events
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// Fallback channels for purchases without a marketing touch
const (
	ChannelDirect   = "direct"
	ChannelReferral = "referral"
)

// SessionEvent is a raw event annotated with device, UTM fields and its session
type SessionEvent struct {
	RawEvent
	DeviceType  string
	UTMSource   *string
	UTMMedium   *string
	UTMCampaign *string
	SessionID   int
}

// FunnelRecord represents one session row of the funnel fact table
type FunnelRecord struct {
	VisitorID    string    `json:"visitor_id"`
	SessionID    int       `json:"session_id"`
	ProductViews int       `json:"product_views"`
	AddToCart    int       `json:"add_to_cart"`
	Checkout     int       `json:"checkout"`
	Purchase     int       `json:"purchase"`
	SessionStart time.Time `json:"session_start"`
	SessionEnd   time.Time `json:"session_end"`
}

// AttributionRecord represents the channel credit of one purchase event
type AttributionRecord struct {
	VisitorID         string    `json:"visitor_id"`
	SessionID         int       `json:"session_id"`
	PurchaseTimestamp time.Time `json:"purchase_timestamp"`
	AttributionFC     string    `json:"attribution_fc"`
	AttributionLC     string    `json:"attribution_lc"`
}

// UserDimension represents one visitor row of the user dimension
type UserDimension struct {
	VisitorID     string
	FirstSeen     time.Time
	LastSeen      time.Time
	TotalEvents   int
	TotalSessions int
}

// DeviceDimension represents the device a visitor was first seen on
type DeviceDimension struct {
	VisitorID  string
	DeviceType string
	Browser    string
	OS         string
}

// ETLMetadata contains metadata about one ETL run
type ETLMetadata struct {
	BatchID             string
	LastEventTimestamp  time.Time
	EventsProcessed     int
	VisitorsProcessed   int
	SessionsBuilt       int
	PurchasesAttributed int
}
