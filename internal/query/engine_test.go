package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/llm"
	"github.com/floatchat/backend/internal/response"
	"github.com/floatchat/backend/internal/sqlgen"
	"github.com/floatchat/backend/internal/storage/models"
	"github.com/floatchat/backend/internal/vector/milvus"
)

type fakeStats struct {
	counts map[string]int64
	err    error
}

func (f *fakeStats) Increment(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.counts[name]++
	return nil
}

func (f *fakeStats) Counters(context.Context) (map[string]int64, error) {
	return f.counts, f.err
}

// panicStats panics when asked to bump the named counter.
type panicStats struct {
	fakeStats
	on string
}

func (p *panicStats) Increment(ctx context.Context, name string) error {
	if name == p.on {
		panic("counter overflow")
	}
	return p.fakeStats.Increment(ctx, name)
}

func newTestEngine(store *mockStore, oracle llm.Oracle, extra func(*Components)) *Engine {
	c := Components{
		Store:       store,
		Processor:   intent.NewProcessor(intent.NewClassifier(), llm.Disabled(), intent.DefaultConfidenceThreshold),
		Synthesizer: sqlgen.NewSynthesizer(0, 0),
		Executor:    NewExecutor(store, 0, 0),
		Responder:   response.NewGenerator(oracle),
	}
	if extra != nil {
		extra(&c)
	}
	return NewEngine(c)
}

func loggedEntries(store *mockStore) []*models.QueryLogEntry {
	var out []*models.QueryLogEntry
	for _, c := range store.Calls {
		if c.Method == "LogQuery" {
			out = append(out, c.Arguments.Get(1).(*models.QueryLogEntry))
		}
	}
	return out
}

func TestProcessQuerySuccess(t *testing.T) {
	store := &mockStore{}
	arabian := intent.NewClassifier().Classify("Show temperature distribution in the Arabian Sea").Criteria()
	store.On("GetMeasurementsForAnalysis", anyArg, argo.Temperature, arabian, 1000).Return(rows(3), nil).Once()
	store.On("LogQuery", anyArg, anyArg).Return(nil).Once()

	e := newTestEngine(store, llm.NewMockOracle("Three profiles were found."), nil)
	env := e.ProcessQuery(context.Background(), "Show temperature distribution in the Arabian Sea")

	require.True(t, env.Success)
	assert.Equal(t, "Show temperature distribution in the Arabian Sea", env.OriginalQuery)
	assert.Equal(t, "Three profiles were found.", env.Response)
	assert.Equal(t, 3, env.NumResults)
	assert.Len(t, env.Data, 3)
	assert.Contains(t, env.SQLQuery, "ap.latitude BETWEEN $1 AND $2")
	assert.Equal(t, intent.MeasurementAnalysis, env.ProcessedQuery.Intent)
	assert.Equal(t, "Arabian Sea", env.ProcessedQuery.Geo.Region)
	assert.Len(t, env.Suggestions, 3)
	assert.Empty(t, env.Context)

	entries := loggedEntries(store)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
	assert.Equal(t, env.ID, entries[0].ID)
	assert.Equal(t, env.SQLQuery, entries[0].SQLQuery)
	assert.Contains(t, entries[0].ProcessedQuery, `"intent":"measurement_analysis"`)
	store.AssertExpectations(t)
}

func TestProcessQueryZeroCountIsStillAnswered(t *testing.T) {
	store := &mockStore{}
	store.On("CountFloats", anyArg, anyArg).Return(int64(0), nil)
	store.On("LogQuery", anyArg, anyArg).Return(nil)

	oracle := llm.NewMockOracle("unused")
	env := newTestEngine(store, oracle, nil).ProcessQuery(context.Background(), "how many floats are there")

	require.True(t, env.Success)
	assert.Equal(t, 1, env.NumResults)
	assert.Equal(t, int64(0), env.Data[0]["float_count"])
	assert.Equal(t, 1, oracle.CallCount())
}

func TestProcessQueryStoreFailure(t *testing.T) {
	store := &mockStore{}
	store.On("GetTrajectories", anyArg, anyArg, anyArg).Return(nil, errors.New("relation argo_trajectories does not exist"))
	store.On("LogQuery", anyArg, anyArg).Return(nil)

	env := newTestEngine(store, nil, nil).ProcessQuery(context.Background(), "trajectory of floats in the Pacific")

	require.False(t, env.Success)
	assert.Contains(t, env.Error, "relation argo_trajectories does not exist")
	assert.Equal(t,
		"I encountered an error processing your query: "+env.Error+". Please try rephrasing your question.",
		env.Response)

	entries := loggedEntries(store)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, env.Error, entries[0].ErrorMessage)
	assert.Empty(t, entries[0].SQLQuery)
}

func TestProcessQueryRecoversPanics(t *testing.T) {
	store := &mockStore{}
	store.On("CountProfiles", anyArg, anyArg).Run(func(mock.Arguments) { panic("driver bug") })
	store.On("LogQuery", anyArg, anyArg).Return(nil)

	var env *Envelope
	assert.NotPanics(t, func() {
		env = newTestEngine(store, nil, nil).ProcessQuery(context.Background(), "count of profiles")
	})

	require.False(t, env.Success)
	assert.Contains(t, env.Error, "driver bug")
	assert.Len(t, loggedEntries(store), 1)
}

func TestProcessQueryLateFailureIsLoggedAsFailure(t *testing.T) {
	store := &mockStore{}
	store.On("CountFloats", anyArg, anyArg).Return(int64(3), nil)
	store.On("LogQuery", anyArg, anyArg).Return(nil)

	stats := &panicStats{fakeStats: fakeStats{counts: map[string]int64{}}, on: "queries_succeeded"}
	env := newTestEngine(store, nil, func(c *Components) { c.Stats = stats }).
		ProcessQuery(context.Background(), "how many floats")

	require.False(t, env.Success)
	assert.Contains(t, env.Error, "counter overflow")

	entries := loggedEntries(store)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, env.Error, entries[0].ErrorMessage)
}

func TestProcessQueryLogFailureKeepsAnswer(t *testing.T) {
	store := &mockStore{}
	store.On("CountMeasurements", anyArg, anyArg).Return(int64(12), nil)
	store.On("LogQuery", anyArg, anyArg).Return(errors.New("disk full"))

	env := newTestEngine(store, nil, nil).ProcessQuery(context.Background(), "how many measurements")

	assert.True(t, env.Success)
	assert.Len(t, loggedEntries(store), 1)
}

func TestProcessQueryLogPanicIsContained(t *testing.T) {
	store := &mockStore{}
	store.On("CountMeasurements", anyArg, anyArg).Return(int64(12), nil)
	store.On("LogQuery", anyArg, anyArg).Run(func(mock.Arguments) { panic("closed pool") })

	env := newTestEngine(store, nil, nil).ProcessQuery(context.Background(), "how many measurements")

	assert.True(t, env.Success)
	assert.Len(t, loggedEntries(store), 1)
}

func TestProcessQueryCountsQueries(t *testing.T) {
	store := &mockStore{}
	store.On("CountFloats", anyArg, anyArg).Return(int64(3), nil)
	store.On("LogQuery", anyArg, anyArg).Return(nil)

	stats := &fakeStats{counts: map[string]int64{}}
	e := newTestEngine(store, nil, func(c *Components) { c.Stats = stats })
	e.ProcessQuery(context.Background(), "how many floats")
	e.ProcessQuery(context.Background(), "number of floats")

	assert.Equal(t, int64(2), stats.counts["queries_total"])
	assert.Equal(t, int64(2), stats.counts["queries_succeeded"])
	assert.Equal(t, int64(2), stats.counts["intent:float_count"])
}

func TestProcessQueryWithContext(t *testing.T) {
	store := &mockStore{}
	store.On("CountFloats", anyArg, anyArg).Return(int64(3), nil)
	store.On("LogQuery", anyArg, anyArg).Return(nil)

	searcher := &fakeSearcher{hits: map[string][]milvus.Hit{
		"argo_profiles": {{ID: "p1", Document: "profile", Collection: "argo_profiles"}},
		"argo_floats":   {{ID: "f1", Document: "float", Collection: "argo_floats"}},
	}}
	retriever := NewRetriever(searcher, fakeEmbedder{}, nil, RetrieverConfig{})
	e := newTestEngine(store, nil, func(c *Components) { c.Retriever = retriever })

	env := e.ProcessQuery(context.Background(), "how many floats")
	require.True(t, env.Success)
	require.Len(t, env.Context, 2)
	assert.Equal(t, "p1", env.Context[0].ID)
	assert.Equal(t, "f1", env.Context[1].ID)
}

func TestEnvelopeJSON(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ok, err := json.Marshal(Envelope{
		Success: true, OriginalQuery: "q", NumResults: 0, ExecutionTime: 1500 * time.Microsecond, Timestamp: ts,
	})
	require.NoError(t, err)
	var success map[string]any
	require.NoError(t, json.Unmarshal(ok, &success))
	for _, key := range []string{"success", "original_query", "processed_query", "sql_query", "context", "data", "response", "suggestions", "metadata"} {
		assert.Contains(t, success, key)
	}
	assert.Equal(t, []any{}, success["data"])
	meta := success["metadata"].(map[string]any)
	assert.Equal(t, 0.0, meta["num_results"])
	assert.Equal(t, 1.5, meta["execution_time_ms"])
	assert.Equal(t, "2024-05-01T12:00:00Z", meta["timestamp"])

	bad, err := json.Marshal(Envelope{OriginalQuery: "q", Error: "boom", Response: FailureResponse(errors.New("boom")), Timestamp: ts})
	require.NoError(t, err)
	var failure map[string]any
	require.NoError(t, json.Unmarshal(bad, &failure))
	assert.Equal(t, false, failure["success"])
	assert.Equal(t, "boom", failure["error"])
	assert.NotContains(t, failure, "data")
	assert.NotContains(t, failure, "sql_query")
	assert.Equal(t, map[string]any{"timestamp": "2024-05-01T12:00:00Z"}, failure["metadata"])
}

func TestDataSummary(t *testing.T) {
	store := &mockStore{}
	store.On("GetDataSummary", anyArg).Return(&models.DataSummary{TotalFloats: 4}, nil)

	stats := &fakeStats{counts: map[string]int64{"queries_total": 9}}
	searcher := &fakeSearcher{rowCounts: map[string]int64{"argo_profiles": 120, "argo_floats": 4}}
	e := newTestEngine(store, nil, func(c *Components) {
		c.Stats = stats
		c.Retriever = NewRetriever(searcher, fakeEmbedder{}, nil, RetrieverConfig{})
	})

	s, err := e.DataSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), s.Database.TotalFloats)
	assert.Equal(t, map[string]int64{"argo_profiles": 120, "argo_floats": 4}, s.VectorStore)
	assert.Equal(t, int64(9), s.Queries["queries_total"])
	assert.False(t, s.LastUpdated.IsZero())
}

func TestDataSummaryStoreError(t *testing.T) {
	store := &mockStore{}
	store.On("GetDataSummary", anyArg).Return(nil, errors.New("timeout"))

	_, err := newTestEngine(store, nil, nil).DataSummary(context.Background())
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	store := &mockStore{}
	store.On("RecentQueries", anyArg, 5).Return(nil, nil)

	entries, err := newTestEngine(store, nil, nil).History(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
