package models

import "errors"

var (
	// ErrMissingRequiredField rejects a batch containing an event without visitor_id, timestamp or event_name
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrNoData is returned when a query has nothing to work on
	ErrNoData = errors.New("no data")
)
