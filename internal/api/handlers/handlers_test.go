package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/query"
	"github.com/floatchat/backend/internal/storage/models"
)

type fakeEngine struct {
	texts      []string
	historyArg int
	historyErr error
	summaryErr error
}

func (f *fakeEngine) ProcessQuery(_ context.Context, text string) *query.Envelope {
	f.texts = append(f.texts, text)
	return &query.Envelope{
		ID: "q-1", Success: true, OriginalQuery: text, Response: "Found it.",
		Data: []argo.Row{{"float_count": int64(3)}}, NumResults: 1, Timestamp: time.Now(),
	}
}

func (f *fakeEngine) DataSummary(context.Context) (*query.Summary, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return &query.Summary{Database: &models.DataSummary{TotalFloats: 3}, VectorStore: map[string]int64{}, Queries: map[string]int64{}}, nil
}

func (f *fakeEngine) History(_ context.Context, limit int) ([]models.QueryLogEntry, error) {
	f.historyArg = limit
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return []models.QueryLogEntry{{ID: "a", UserQuery: "how many floats", Success: true}}, nil
}

type fakeBrowser struct {
	track *argo.Result
	err   error
}

func (f fakeBrowser) GetFloatTrajectory(context.Context, string) (*argo.Result, error) {
	return f.track, f.err
}

func (f fakeBrowser) GetMeasurementsByProfile(_ context.Context, _ string, cycle int) (*argo.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &argo.Result{Columns: []string{"pressure"}, Rows: []argo.Row{{"pressure": float64(cycle)}}}, nil
}

func newApp(engine *fakeEngine, browser FloatBrowser) *fiber.App {
	app := fiber.New()
	qh := NewQueryHandler(engine, 0)
	fh := NewFloatHandler(browser)

	api := app.Group("/api/v1")
	api.Post("/query", qh.HandleQuery)
	api.Get("/query/history", qh.GetQueryHistory)
	api.Get("/summary", qh.GetSummary)
	api.Get("/floats/:id/trajectory", fh.GetTrajectory)
	api.Get("/floats/:id/profiles/:cycle/measurements", fh.GetProfileMeasurements)
	return app
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHandleQuery(t *testing.T) {
	engine := &fakeEngine{}
	app := newApp(engine, fakeBrowser{})

	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{"query":"  how many floats  "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Found it.", body["response"])
	assert.Equal(t, []string{"how many floats"}, engine.texts)
}

func TestHandleQueryRejectsBadInput(t *testing.T) {
	app := newApp(&fakeEngine{}, fakeBrowser{})

	for _, payload := range []string{`{"query":""}`, `{"query":"   "}`, `not json`} {
		req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode, payload)
	}
}

func TestGetQueryHistory(t *testing.T) {
	engine := &fakeEngine{}
	app := newApp(engine, fakeBrowser{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/query/history", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 50, engine.historyArg)
	assert.Equal(t, 1.0, decode(t, resp.Body)["count"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/query/history?limit=10", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 10, engine.historyArg)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/query/history?limit=9000", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestGetQueryHistoryStoreError(t *testing.T) {
	app := newApp(&fakeEngine{historyErr: errors.New("locked")}, fakeBrowser{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/query/history", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestGetSummary(t *testing.T) {
	resp, err := newApp(&fakeEngine{}, fakeBrowser{}).Test(httptest.NewRequest("GET", "/api/v1/summary", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	db := body["database"].(map[string]any)
	assert.Equal(t, 3.0, db["total_floats"])

	resp, err = newApp(&fakeEngine{summaryErr: errors.New("down")}, fakeBrowser{}).
		Test(httptest.NewRequest("GET", "/api/v1/summary", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestFloatRoutes(t *testing.T) {
	track := &argo.Result{Columns: []string{"latitude"}, Rows: []argo.Row{{"latitude": 15.2}}}
	app := newApp(&fakeEngine{}, fakeBrowser{track: track})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/floats/2902746/trajectory", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "2902746", decode(t, resp.Body)["float_id"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/floats/2902746/profiles/4/measurements", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, 4.0, body["cycle_number"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/floats/2902746/profiles/x/measurements", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestFloatTrajectoryNotFound(t *testing.T) {
	app := newApp(&fakeEngine{}, fakeBrowser{track: &argo.Result{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/floats/0000/trajectory", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestSplitSentences(t *testing.T) {
	assert.Nil(t, splitSentences("   "))

	chunks := splitSentences("Found 12 profiles in the Arabian Sea. Surface temperatures were near 28 C. Salinity was stable.")
	require.Len(t, chunks, 3)
	assert.Equal(t, "Found 12 profiles in the Arabian Sea. ", chunks[0])
	assert.Equal(t, "Salinity was stable.", chunks[2])
	assert.Equal(t,
		"Found 12 profiles in the Arabian Sea. Surface temperatures were near 28 C. Salinity was stable.",
		strings.Join(chunks, ""))
}
