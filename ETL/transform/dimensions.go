package transform

import (
	"sort"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
	"github.com/mssola/user_agent"
)

// DimensionProcessor builds the user and device dimensions
type DimensionProcessor struct {
	logger *utils.ETLLogger
}

// NewDimensionProcessor creates a new DimensionProcessor
func NewDimensionProcessor(logger *utils.ETLLogger) *DimensionProcessor {
	return &DimensionProcessor{
		logger: logger,
	}
}

// ProcessDimensions builds both dimensions from session-tagged events
func (p *DimensionProcessor) ProcessDimensions(events []models.SessionEvent) ([]models.UserDimension, []models.DeviceDimension) {
	p.logger.Debug("Building user and device dimensions...")

	users := BuildUserDimension(events)
	devices := BuildDeviceDimension(events)

	p.logger.Debug("Built %d user rows and %d device rows", len(users), len(devices))
	return users, devices
}

// BuildUserDimension returns one row per visitor with first/last seen times and activity counts
func BuildUserDimension(events []models.SessionEvent) []models.UserDimension {
	index := make(map[string]int)
	sessions := make(map[sessionKey]struct{})
	users := make([]models.UserDimension, 0)

	for i := range events {
		e := &events[i]

		pos, ok := index[e.VisitorID]
		if !ok {
			pos = len(users)
			index[e.VisitorID] = pos
			users = append(users, models.UserDimension{
				VisitorID: e.VisitorID,
				FirstSeen: e.Timestamp,
				LastSeen:  e.Timestamp,
			})
		}

		user := &users[pos]
		user.TotalEvents++
		if e.Timestamp.Before(user.FirstSeen) {
			user.FirstSeen = e.Timestamp
		}
		if e.Timestamp.After(user.LastSeen) {
			user.LastSeen = e.Timestamp
		}

		key := sessionKey{visitorID: e.VisitorID, sessionID: e.SessionID}
		if _, seen := sessions[key]; !seen {
			sessions[key] = struct{}{}
			user.TotalSessions++
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i].VisitorID < users[j].VisitorID })
	return users
}

// BuildDeviceDimension returns, per visitor, the device of the visitor's earliest event
// with browser and OS names parsed from its user agent
func BuildDeviceDimension(events []models.SessionEvent) []models.DeviceDimension {
	firstEvents := make(map[string]*models.SessionEvent)
	for i := range events {
		e := &events[i]
		if first, ok := firstEvents[e.VisitorID]; !ok || e.Timestamp.Before(first.Timestamp) {
			firstEvents[e.VisitorID] = e
		}
	}

	devices := make([]models.DeviceDimension, 0, len(firstEvents))
	for visitorID, e := range firstEvents {
		ua := user_agent.New(e.UserAgent)
		browser, _ := ua.Browser()

		deviceType := e.DeviceType
		if deviceType == "" {
			deviceType = ClassifyDevice(e.UserAgent)
		}

		devices = append(devices, models.DeviceDimension{
			VisitorID:  visitorID,
			DeviceType: deviceType,
			Browser:    browser,
			OS:         ua.OSInfo().Name,
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].VisitorID < devices[j].VisitorID })
	return devices
}
