// Package query answers natural-language questions about ARGO data: it
// classifies the question, gathers context, runs the typed store accessors,
// phrases an answer and records the exchange in the query log.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/metrics"
	"github.com/floatchat/backend/internal/response"
	"github.com/floatchat/backend/internal/sqlgen"
	"github.com/floatchat/backend/internal/storage/models"
	"github.com/floatchat/backend/pkg/logger"
)

// StatsRecorder keeps cross-process query counters. Optional.
type StatsRecorder interface {
	Increment(ctx context.Context, name string) error
	Counters(ctx context.Context) (map[string]int64, error)
}

// Components are the collaborators of an Engine. Store, Processor,
// Synthesizer, Executor and Responder are required; Retriever and Stats
// may be nil.
type Components struct {
	Store       DataStore
	Processor   *intent.Processor
	Synthesizer *sqlgen.Synthesizer
	Executor    *Executor
	Responder   *response.Generator
	Retriever   *Retriever
	Stats       StatsRecorder
}

type Engine struct {
	store     DataStore
	processor *intent.Processor
	synth     *sqlgen.Synthesizer
	executor  *Executor
	responder *response.Generator
	retriever *Retriever
	stats     StatsRecorder
	now       func() time.Time
}

func NewEngine(c Components) *Engine {
	return &Engine{
		store:     c.Store,
		processor: c.Processor,
		synth:     c.Synthesizer,
		executor:  c.Executor,
		responder: c.Responder,
		retriever: c.Retriever,
		stats:     c.Stats,
		now:       time.Now,
	}
}

// call tracks the one query log write allowed per question.
type call struct {
	id     string
	text   string
	start  time.Time
	logged bool
}

// ProcessQuery never returns an error and never panics; failures come back
// as an envelope with Success false.
func (e *Engine) ProcessQuery(ctx context.Context, text string) (env *Envelope) {
	c := &call{id: uuid.NewString(), text: text, start: e.now()}

	logger.Info("Processing query",
		zap.String("query_id", c.id),
		zap.String("query", text),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Query pipeline panicked",
				zap.String("query_id", c.id),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			env = e.fail(ctx, c, fmt.Errorf("internal error: %v", r))
		}
	}()

	env, err := e.answer(ctx, c)
	if err != nil {
		return e.fail(ctx, c, err)
	}
	return env
}

func (e *Engine) answer(ctx context.Context, c *call) (*Envelope, error) {
	parsed := e.processor.Process(ctx, c.text)
	metrics.IntentTotal.WithLabelValues(string(parsed.Intent), string(parsed.Source)).Inc()
	metrics.ConfidenceScore.Observe(parsed.Confidence)

	logger.Debug("Query classified",
		zap.String("query_id", c.id),
		zap.String("intent", string(parsed.Intent)),
		zap.Float64("confidence", parsed.Confidence),
		zap.String("source", string(parsed.Source)),
		zap.String("region", parsed.Geo.Region),
	)

	hits := e.retriever.Retrieve(ctx, parsed)
	plan := e.synth.Synthesize(parsed)

	result, err := e.executor.Execute(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &argo.Result{Rows: []argo.Row{}}
	}

	answer := e.responder.Summarize(ctx, result, c.text, parsed)
	elapsed := e.now().Sub(c.start)

	env := &Envelope{
		ID:             c.id,
		Success:        true,
		OriginalQuery:  c.text,
		ProcessedQuery: &parsed,
		SQLQuery:       plan.SQL,
		Context:        hits,
		Columns:        result.Columns,
		Data:           result.Rows,
		Response:       answer,
		Suggestions:    Suggestions(parsed, result),
		NumResults:     result.Len(),
		ExecutionTime:  elapsed,
		Timestamp:      e.now().UTC(),
	}

	processed, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parsed query: %w", err)
	}

	metrics.QueryDuration.WithLabelValues(string(parsed.Intent)).Observe(elapsed.Seconds())
	metrics.QueryTotal.WithLabelValues("success").Inc()
	metrics.ResultRows.WithLabelValues(string(parsed.Intent)).Observe(float64(result.Len()))
	e.count(ctx, "queries_total", "queries_succeeded", "intent:"+string(parsed.Intent))

	logger.Info("Query processed successfully",
		zap.String("query_id", c.id),
		zap.String("intent", string(parsed.Intent)),
		zap.Int("rows", result.Len()),
		zap.Duration("latency", elapsed),
	)

	// Last step: anything that panics before this is logged as a failure.
	e.writeLog(ctx, c, &models.QueryLogEntry{
		ID:             c.id,
		UserQuery:      c.text,
		ProcessedQuery: string(processed),
		SQLQuery:       plan.SQL,
		Response:       answer,
		ExecutionTime:  elapsed.Seconds(),
		Success:        true,
		CreatedAt:      env.Timestamp,
	})

	return env, nil
}

func (e *Engine) fail(ctx context.Context, c *call, err error) *Envelope {
	elapsed := e.now().Sub(c.start)
	now := e.now().UTC()

	logger.Error("Error processing query",
		zap.String("query_id", c.id),
		zap.Error(err),
	)

	e.writeLog(ctx, c, &models.QueryLogEntry{
		ID:            c.id,
		UserQuery:     c.text,
		ExecutionTime: elapsed.Seconds(),
		Success:       false,
		ErrorMessage:  err.Error(),
		CreatedAt:     now,
	})

	metrics.QueryDuration.WithLabelValues("failed").Observe(elapsed.Seconds())
	metrics.QueryTotal.WithLabelValues("error").Inc()
	e.count(ctx, "queries_total", "queries_failed")

	return &Envelope{
		ID:            c.id,
		Success:       false,
		OriginalQuery: c.text,
		Error:         err.Error(),
		Response:      FailureResponse(err),
		ExecutionTime: elapsed,
		Timestamp:     now,
	}
}

// writeLog appends the exchange to the query log at most once per call. A
// log failure is reported but does not change the answer.
func (e *Engine) writeLog(ctx context.Context, c *call, entry *models.QueryLogEntry) {
	if c.logged {
		return
	}
	c.logged = true

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Query log write panicked", zap.String("query_id", c.id), zap.Any("panic", r))
		}
	}()

	if err := e.store.LogQuery(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("Failed to write query log", zap.String("query_id", c.id), zap.Error(err))
	}
}

func (e *Engine) count(ctx context.Context, names ...string) {
	if e.stats == nil {
		return
	}
	for _, name := range names {
		if err := e.stats.Increment(ctx, name); err != nil {
			logger.Debug("Failed to update query counter", zap.String("counter", name), zap.Error(err))
			return
		}
	}
}

// DataSummary reports what the store and vector index hold and how many
// questions have been answered.
func (e *Engine) DataSummary(ctx context.Context) (*Summary, error) {
	db, err := e.store.GetDataSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get data summary: %w", err)
	}

	queries := map[string]int64{}
	if e.stats != nil {
		counters, err := e.stats.Counters(ctx)
		if err != nil {
			logger.Warn("Failed to read query counters", zap.Error(err))
		} else {
			queries = counters
		}
	}

	return &Summary{
		Database:    db,
		VectorStore: e.retriever.CollectionStats(ctx),
		Queries:     queries,
		LastUpdated: e.now().UTC(),
	}, nil
}

func (e *Engine) History(ctx context.Context, limit int) ([]models.QueryLogEntry, error) {
	entries, err := e.store.RecentQueries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	if entries == nil {
		entries = []models.QueryLogEntry{}
	}
	return entries, nil
}
