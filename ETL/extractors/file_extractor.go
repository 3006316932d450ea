package extractors

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/utils"
	"github.com/golang/snappy"
)

// SnappySuffix marks event exports compressed with the snappy framing format
const SnappySuffix = ".sz"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
}

// FileExtractor reads raw events from a CSV export
type FileExtractor struct {
	path   string
	logger *utils.ETLLogger
}

// NewFileExtractor creates a new FileExtractor for the CSV file at path
func NewFileExtractor(path string, logger *utils.ETLLogger) *FileExtractor {
	return &FileExtractor{
		path:   path,
		logger: logger,
	}
}

// ExtractEvents reads every event of the export
func (e *FileExtractor) ExtractEvents(ctx context.Context) ([]models.RawEvent, error) {
	e.logger.Debug("Reading events from %s", e.path)

	f, err := os.Open(e.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event export: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(e.path, SnappySuffix) {
		r = snappy.NewReader(f)
	}

	return ReadEventsCSV(ctx, r)
}

// csvColumns maps the known column names to their positions in the header
type csvColumns map[string]int

func (c csvColumns) value(record []string, names ...string) string {
	for _, name := range names {
		if i, ok := c[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
	}
	return ""
}

// ReadEventsCSV parses an event table with a header row. The visitor column may be
// named visitor_id or client_id; referrer, user_agent and event_data are optional.
func ReadEventsCSV(ctx context.Context, r io.Reader) ([]models.RawEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.RawEvent{}, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(csvColumns, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	_, hasVisitor := columns["visitor_id"]
	_, hasClient := columns["client_id"]
	if !hasVisitor && !hasClient {
		return nil, fmt.Errorf("CSV header has no visitor_id or client_id column")
	}
	for _, required := range []string{"event_name", "timestamp", "page_url"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("CSV header has no %s column", required)
		}
	}

	events := make([]models.RawEvent, 0)
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		timestamp, err := ParseTimestamp(columns.value(record, "timestamp"))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}

		events = append(events, models.RawEvent{
			VisitorID: columns.value(record, "visitor_id", "client_id"),
			EventName: columns.value(record, "event_name"),
			Timestamp: timestamp,
			PageURL:   columns.value(record, "page_url"),
			Referrer:  models.StringPtr(columns.value(record, "referrer")),
			UserAgent: columns.value(record, "user_agent"),
			EventData: columns.value(record, "event_data"),
		})
	}

	return events, nil
}

// ParseTimestamp parses an event timestamp as UTC. An empty value yields the zero time.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
