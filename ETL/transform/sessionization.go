package transform

import (
	"sort"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
)

// SessionTimeout is the inactivity gap after which a new session starts
const SessionTimeout = 30 * time.Minute

// SessionProcessor tags raw events with device, UTM fields and session ids
type SessionProcessor struct {
	logger  *utils.ETLLogger
	workers int
}

// NewSessionProcessor creates a new SessionProcessor
func NewSessionProcessor(logger *utils.ETLLogger, workers int) *SessionProcessor {
	return &SessionProcessor{
		logger:  logger,
		workers: workers,
	}
}

// ProcessSessions builds the session-tagged event table
func (p *SessionProcessor) ProcessSessions(events []models.RawEvent) ([]models.SessionEvent, error) {
	p.logger.Debug("Building sessions for %d events on %d workers", len(events), p.workers)

	tagged, err := BuildSessions(events, p.workers)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Built %d sessions", CountSessions(tagged))
	return tagged, nil
}

// BuildSessions returns every event annotated with device type, UTM fields and a
// per-visitor session id. The result is sorted by visitor and timestamp; events of
// one visitor sharing a timestamp keep their input order.
func BuildSessions(events []models.RawEvent, workers int) ([]models.SessionEvent, error) {
	if err := ValidateEvents(events); err != nil {
		return nil, err
	}

	tagged := make([]models.SessionEvent, len(events))
	for i, e := range events {
		tagged[i] = models.SessionEvent{RawEvent: e}
	}

	sort.SliceStable(tagged, func(i, j int) bool {
		if tagged[i].VisitorID != tagged[j].VisitorID {
			return tagged[i].VisitorID < tagged[j].VisitorID
		}
		return tagged[i].Timestamp.Before(tagged[j].Timestamp)
	})

	spans := visitorSpans(len(tagged), func(i int) string { return tagged[i].VisitorID })
	forEachSpan(spans, workers, func(_ int, s span) {
		sessionizeVisitor(tagged[s.start:s.end])
	})

	return tagged, nil
}

// sessionizeVisitor annotates one visitor's time-ordered events in place
func sessionizeVisitor(events []models.SessionEvent) {
	sessionID := 0
	for i := range events {
		e := &events[i]

		utm := ExtractUTM(e.PageURL)
		e.UTMSource = utm.Source
		e.UTMMedium = utm.Medium
		e.UTMCampaign = utm.Campaign
		e.DeviceType = ClassifyDevice(e.UserAgent)

		if i > 0 && IsSessionBoundary(&events[i-1], e) {
			sessionID++
		}
		e.SessionID = sessionID
	}
}

// IsSessionBoundary reports whether cur starts a new session after prev.
// Arriving on a new campaign source starts a session; losing the source does not.
func IsSessionBoundary(prev, cur *models.SessionEvent) bool {
	if cur.Timestamp.Sub(prev.Timestamp) > SessionTimeout {
		return true
	}

	if models.IsPresent(cur.UTMSource) &&
		(!models.IsPresent(prev.UTMSource) || *cur.UTMSource != *prev.UTMSource) {
		return true
	}

	return cur.DeviceType != prev.DeviceType
}

// CountSessions returns the number of distinct (visitor, session) pairs of a visitor-sorted table
func CountSessions(events []models.SessionEvent) int {
	count := 0
	for i := range events {
		if i == 0 || events[i].VisitorID != events[i-1].VisitorID || events[i].SessionID != events[i-1].SessionID {
			count++
		}
	}
	return count
}

// RawEvents strips the session annotations from a session-tagged table
func RawEvents(events []models.SessionEvent) []models.RawEvent {
	raw := make([]models.RawEvent, len(events))
	for i := range events {
		raw[i] = events[i].RawEvent
	}
	return raw
}
