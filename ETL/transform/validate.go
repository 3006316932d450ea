package transform

import (
	"fmt"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

// ValidateEvents rejects the batch when an event lacks visitor_id, timestamp or event_name
func ValidateEvents(events []models.RawEvent) error {
	for i, e := range events {
		switch {
		case e.VisitorID == "":
			return fmt.Errorf("event %d: visitor_id: %w", i, models.ErrMissingRequiredField)
		case e.Timestamp.IsZero():
			return fmt.Errorf("event %d (visitor %s): timestamp: %w", i, e.VisitorID, models.ErrMissingRequiredField)
		case e.EventName == "":
			return fmt.Errorf("event %d (visitor %s): event_name: %w", i, e.VisitorID, models.ErrMissingRequiredField)
		}
	}
	return nil
}
