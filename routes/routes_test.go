package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/clickstream_etl/ETL/models"
	"github.com/LilVoxy/clickstream_etl/ETL/trend"
)

var sessionStart = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type stubRunLog struct {
	models.ETLLogRepository
	runs     []models.ETLRunLog
	days     int
	state    *models.ETLStateMonitor
	stateErr error
}

func (s *stubRunLog) GetETLRunStats(ctx context.Context, days int) ([]models.ETLRunLog, error) {
	s.days = days
	return s.runs, nil
}

func (s *stubRunLog) GetETLStateMonitor(ctx context.Context) (*models.ETLStateMonitor, error) {
	return s.state, s.stateErr
}

type stubPredictions struct {
	trend.PredictionRepository
	model      *trend.RegressionResult
	forecasts  []trend.ForecastPoint
	start, end time.Time
}

func (s *stubPredictions) GetLastRegressionResult(ctx context.Context) (*trend.RegressionResult, error) {
	return s.model, nil
}

func (s *stubPredictions) GetForecasts(ctx context.Context, start, end time.Time) ([]trend.ForecastPoint, error) {
	s.start, s.end = start, end
	return s.forecasts, nil
}

func newTestRouter(t *testing.T, runLog *stubRunLog, predictions *stubPredictions) (*mux.Router, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	router := mux.NewRouter()
	SetupRoutes(router, Dependencies{DB: db, RunLog: runLog, Predictions: predictions})
	return router, mock
}

func serve(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestFunnelHandler(t *testing.T) {
	router, mock := newTestRouter(t, &stubRunLog{}, &stubPredictions{})

	mock.ExpectQuery(regexp.QuoteMeta("FROM fact_funnel")).
		WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"visitor_id", "session_id", "product_views", "add_to_cart", "checkout", "purchase", "session_start", "session_end"}).
			AddRow("A", 0, 1, 0, 0, 0, sessionStart, sessionStart.Add(10*time.Minute)).
			AddRow("A", 1, 0, 1, 1, 1, sessionStart.Add(time.Hour), sessionStart.Add(time.Hour)))

	rec := serve(router, "/api/funnel?visitor_id=A")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body FunnelResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "A", body.VisitorID)
	require.Len(t, body.Sessions, 2)
	assert.Equal(t, 1, body.Sessions[1].Purchase)
	assert.True(t, sessionStart.Equal(body.Sessions[0].SessionStart))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFunnelHandler_RequiresVisitor(t *testing.T) {
	router, _ := newTestRouter(t, &stubRunLog{}, &stubPredictions{})

	rec := serve(router, "/api/funnel")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "visitor_id is required")
}

func TestFunnelSummaryHandler(t *testing.T) {
	router, mock := newTestRouter(t, &stubRunLog{}, &stubPredictions{})

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(product_views > 0), 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"sessions", "views", "carts", "checkouts", "purchase_sessions", "purchases"}).
			AddRow(10, 8, 4, 3, 2, 3))

	rec := serve(router, "/api/funnel/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary FunnelSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 10, summary.Sessions)
	assert.Equal(t, 3, summary.Purchases)
	assert.Equal(t, 0.5, summary.ViewToCartRate)
	assert.Equal(t, 0.75, summary.CartToCheckoutRate)
	assert.Equal(t, 0.6667, summary.CheckoutToPurchaseRate)
	assert.Equal(t, 0.2, summary.SessionConversionRate)
}

func TestFunnelSummaryHandler_DatabaseError(t *testing.T) {
	router, mock := newTestRouter(t, &stubRunLog{}, &stubPredictions{})
	mock.ExpectQuery("FROM fact_funnel").WillReturnError(errors.New("gone away"))

	rec := serve(router, "/api/funnel/summary")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConversionRate(t *testing.T) {
	assert.Equal(t, 0.0, conversionRate(3, 0))
	assert.Equal(t, 1.0, conversionRate(4, 4))
	assert.Equal(t, 0.3333, conversionRate(1, 3))
}

func TestAttributionHandler(t *testing.T) {
	router, mock := newTestRouter(t, &stubRunLog{}, &stubPredictions{})

	mock.ExpectQuery(regexp.QuoteMeta("FROM fact_attribution")).
		WithArgs("A").
		WillReturnRows(sqlmock.NewRows([]string{"visitor_id", "session_id", "purchase_timestamp", "attribution_fc", "attribution_lc"}).
			AddRow("A", 2, sessionStart, "fb", "google"))

	rec := serve(router, "/api/attribution?visitorId=A")
	require.Equal(t, http.StatusOK, rec.Code)

	var body AttributionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Purchases, 1)
	assert.Equal(t, "fb", body.Purchases[0].AttributionFC)
	assert.Equal(t, "google", body.Purchases[0].AttributionLC)
}

func TestChannelsHandler(t *testing.T) {
	router, mock := newTestRouter(t, &stubRunLog{}, &stubPredictions{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT attribution_fc AS channel")).
		WillReturnRows(sqlmock.NewRows([]string{"channel", "purchases"}).
			AddRow("fb", 5).
			AddRow("direct", 2))

	rec := serve(router, "/api/attribution/channels?model=fc")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ChannelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fc", body.Model)
	assert.Equal(t, 7, body.Total)
	assert.Equal(t, []ChannelCount{{Channel: "fb", Purchases: 5}, {Channel: "direct", Purchases: 2}}, body.Channels)
}

func TestChannelsHandler_DefaultsToLastClick(t *testing.T) {
	router, mock := newTestRouter(t, &stubRunLog{}, &stubPredictions{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT attribution_lc AS channel")).
		WillReturnRows(sqlmock.NewRows([]string{"channel", "purchases"}))

	rec := serve(router, "/api/attribution/channels")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"model":"lc","total":0,"channels":[]}`, rec.Body.String())
}

func TestChannelsHandler_UnknownModel(t *testing.T) {
	router, _ := newTestRouter(t, &stubRunLog{}, &stubPredictions{})

	rec := serve(router, "/api/attribution/channels?model=linear")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestETLRunsHandler(t *testing.T) {
	runLog := &stubRunLog{runs: []models.ETLRunLog{{ID: 3, BatchID: "b", Status: models.RunStatusSuccess}}}
	router, _ := newTestRouter(t, runLog, &stubPredictions{})

	rec := serve(router, "/api/etl/runs?days=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, runLog.days)

	var body RunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "b", body.Runs[0].BatchID)

	assert.Equal(t, http.StatusBadRequest, serve(router, "/api/etl/runs?days=abc").Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, "/api/etl/runs?days=0").Code)
}

func TestETLStateHandler(t *testing.T) {
	runLog := &stubRunLog{state: &models.ETLStateMonitor{TotalSuccessfulRuns: 4, TotalEventsProcessed: 1200}}
	router, _ := newTestRouter(t, runLog, &stubPredictions{})

	rec := serve(router, "/api/etl/state")
	require.Equal(t, http.StatusOK, rec.Code)

	var state models.ETLStateMonitor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 4, state.TotalSuccessfulRuns)
	assert.Equal(t, 1200, state.TotalEventsProcessed)

	runLog.stateErr = errors.New("timeout")
	assert.Equal(t, http.StatusInternalServerError, serve(router, "/api/etl/state").Code)
}

func TestTrendHandler(t *testing.T) {
	now = func() time.Time { return time.Date(2025, 4, 2, 15, 30, 0, 0, time.UTC) }
	defer func() { now = time.Now }()

	predictions := &stubPredictions{
		model:     &trend.RegressionResult{A: 0.5, B: 3},
		forecasts: []trend.ForecastPoint{{Date: time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), ForecastValue: 12}},
	}
	router, _ := newTestRouter(t, &stubRunLog{}, predictions)

	rec := serve(router, "/api/trend?days=7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), predictions.start)
	assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), predictions.end)

	var body TrendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Model)
	assert.Equal(t, 0.5, body.Model.A)
	require.Len(t, body.Forecasts, 1)
	assert.Equal(t, 12.0, body.Forecasts[0].ForecastValue)
}
