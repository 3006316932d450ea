package extractors

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

const eventsCSV = `client_id,page_url,referrer,timestamp,event_name,event_data,user_agent
c1,https://shop.example.com/?utm_source=google,,2025-03-10T12:00:00Z,page_viewed,,Mozilla/5.0
c1,https://shop.example.com/checkout,https://google.com,2025-03-10 12:05:30,purchase,"{""revenue"": 99.5}",Mozilla/5.0
`

func TestReadEventsCSV(t *testing.T) {
	events, err := ReadEventsCSV(context.Background(), strings.NewReader(eventsCSV))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "c1", events[0].VisitorID)
	assert.Equal(t, models.EventPageViewed, events[0].EventName)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), events[0].Timestamp)
	assert.Nil(t, events[0].Referrer)

	assert.Equal(t, time.Date(2025, 3, 10, 12, 5, 30, 0, time.UTC), events[1].Timestamp)
	assert.Equal(t, "https://google.com", models.StringValue(events[1].Referrer))
	assert.Equal(t, `{"revenue": 99.5}`, events[1].EventData)
}

func TestReadEventsCSV_VisitorIDColumn(t *testing.T) {
	input := "visitor_id,event_name,timestamp,page_url\nv9,purchase,2025-03-10T12:00:00+02:00,/\n"

	events, err := ReadEventsCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "v9", events[0].VisitorID)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), events[0].Timestamp)
}

func TestReadEventsCSV_MissingColumns(t *testing.T) {
	_, err := ReadEventsCSV(context.Background(), strings.NewReader("event_name,timestamp,page_url\n"))
	assert.ErrorContains(t, err, "visitor_id")

	_, err = ReadEventsCSV(context.Background(), strings.NewReader("visitor_id,timestamp,page_url\n"))
	assert.ErrorContains(t, err, "event_name")
}

func TestReadEventsCSV_BadTimestamp(t *testing.T) {
	input := "visitor_id,event_name,timestamp,page_url\nv,purchase,yesterday,/\n"

	_, err := ReadEventsCSV(context.Background(), strings.NewReader(input))
	assert.ErrorContains(t, err, "line 2")
}

func TestReadEventsCSV_Empty(t *testing.T) {
	events, err := ReadEventsCSV(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFileExtractor_PlainAndSnappy(t *testing.T) {
	dir := t.TempDir()

	plainPath := filepath.Join(dir, "events.csv")
	require.NoError(t, os.WriteFile(plainPath, []byte(eventsCSV), 0o644))

	compressedPath := filepath.Join(dir, "events.csv"+SnappySuffix)
	f, err := os.Create(compressedPath)
	require.NoError(t, err)
	w := snappy.NewBufferedWriter(f)
	_, err = w.Write([]byte(eventsCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	plain, err := NewFileExtractor(plainPath, testLogger()).ExtractEvents(context.Background())
	require.NoError(t, err)

	compressed, err := NewFileExtractor(compressedPath, testLogger()).ExtractEvents(context.Background())
	require.NoError(t, err)

	assert.Len(t, plain, 2)
	assert.Equal(t, plain, compressed)
}

func TestFileExtractor_MissingFile(t *testing.T) {
	_, err := NewFileExtractor(filepath.Join(t.TempDir(), "nope.csv"), testLogger()).ExtractEvents(context.Background())
	assert.Error(t, err)
}
