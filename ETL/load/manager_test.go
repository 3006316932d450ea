package load

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
)

// recordingLoader remembers which calls reached it
type recordingLoader struct {
	name    string
	failOn  string
	calls   []string
	batchID string
}

func (r *recordingLoader) record(call string) error {
	r.calls = append(r.calls, call)
	if call == r.failOn {
		return errors.New(r.name + " unavailable")
	}
	return nil
}

func (r *recordingLoader) Name() string { return r.name }

func (r *recordingLoader) EnsureSchema(ctx context.Context) error {
	return r.record("schema")
}

func (r *recordingLoader) Load(ctx context.Context, data *models.TransformedData) error {
	r.batchID = data.Metadata.BatchID
	return r.record("load")
}

func transformedFixture() *models.TransformedData {
	return &models.TransformedData{Metadata: models.ETLMetadata{BatchID: testBatchID}}
}

func TestLoadManager_LoadsEveryStore(t *testing.T) {
	primary := &recordingLoader{name: "primary"}
	mirror := &recordingLoader{name: "mirror"}

	err := NewLoadManager(testLogger(), primary, mirror).Load(context.Background(), transformedFixture())
	require.NoError(t, err)

	assert.Equal(t, []string{"load"}, primary.calls)
	assert.Equal(t, []string{"load"}, mirror.calls)
	assert.Equal(t, testBatchID, primary.batchID)
	assert.Equal(t, testBatchID, mirror.batchID)
}

func TestLoadManager_PrimaryFailureStops(t *testing.T) {
	primary := &recordingLoader{name: "primary", failOn: "load"}
	mirror := &recordingLoader{name: "mirror"}

	err := NewLoadManager(testLogger(), primary, mirror).Load(context.Background(), transformedFixture())
	assert.ErrorContains(t, err, "primary unavailable")
	assert.Empty(t, mirror.calls)
}

func TestLoadManager_MirrorFailureIsNotFatal(t *testing.T) {
	primary := &recordingLoader{name: "primary"}
	mirror := &recordingLoader{name: "mirror", failOn: "load"}

	err := NewLoadManager(testLogger(), primary, mirror).Load(context.Background(), transformedFixture())
	assert.NoError(t, err)
	assert.Equal(t, []string{"load"}, primary.calls)
	assert.Equal(t, []string{"load"}, mirror.calls)
}

func TestLoadManager_EnsureSchema(t *testing.T) {
	primary := &recordingLoader{name: "primary", failOn: "schema"}
	err := NewLoadManager(testLogger(), primary).EnsureSchema(context.Background())
	assert.ErrorContains(t, err, "primary")

	mirror := &recordingLoader{name: "mirror", failOn: "schema"}
	err = NewLoadManager(testLogger(), &recordingLoader{name: "ok"}, mirror).EnsureSchema(context.Background())
	assert.NoError(t, err)
}
