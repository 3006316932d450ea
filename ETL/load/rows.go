package load

import (
	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

// nullable converts an optional string into a driver value
func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func sessionEventRows(batchID string, events []models.SessionEvent) [][]interface{} {
	rows := make([][]interface{}, 0, len(events))
	for _, e := range events {
		rows = append(rows, []interface{}{
			batchID,
			e.VisitorID,
			int64(e.SessionID),
			e.EventName,
			e.Timestamp,
			e.PageURL,
			nullable(e.Referrer),
			e.UserAgent,
			e.DeviceType,
			nullable(e.UTMSource),
			nullable(e.UTMMedium),
			nullable(e.UTMCampaign),
			e.EventData,
		})
	}
	return rows
}

func funnelRows(batchID string, records []models.FunnelRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{
			batchID,
			r.VisitorID,
			int64(r.SessionID),
			int64(r.ProductViews),
			int64(r.AddToCart),
			int64(r.Checkout),
			int64(r.Purchase),
			r.SessionStart,
			r.SessionEnd,
		})
	}
	return rows
}

func attributionRows(batchID string, records []models.AttributionRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{
			batchID,
			r.VisitorID,
			int64(r.SessionID),
			r.PurchaseTimestamp,
			r.AttributionFC,
			r.AttributionLC,
		})
	}
	return rows
}

func userRows(batchID string, users []models.UserDimension) [][]interface{} {
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{
			batchID,
			u.VisitorID,
			u.FirstSeen,
			u.LastSeen,
			int64(u.TotalEvents),
			int64(u.TotalSessions),
		})
	}
	return rows
}

func deviceRows(batchID string, devices []models.DeviceDimension) [][]interface{} {
	rows := make([][]interface{}, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []interface{}{batchID, d.VisitorID, d.DeviceType, d.Browser, d.OS})
	}
	return rows
}
