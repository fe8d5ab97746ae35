package query

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/storage/models"
	"github.com/floatchat/backend/internal/vector/milvus"
)

// Envelope is the answer to one question. Success and failure envelopes
// serialize different field sets.
type Envelope struct {
	ID             string
	Success        bool
	OriginalQuery  string
	ProcessedQuery *intent.ParsedQuery
	SQLQuery       string
	Context        []milvus.Hit
	Data           []argo.Row
	Columns        []string
	Response       string
	Suggestions    []string
	Error          string
	NumResults     int
	ExecutionTime  time.Duration
	Timestamp      time.Time
}

type successMetadata struct {
	NumResults      int     `json:"num_results"`
	ExecutionTimeMS float64 `json:"execution_time_ms"`
	Timestamp       string  `json:"timestamp"`
}

type failureMetadata struct {
	Timestamp string `json:"timestamp"`
}

type successJSON struct {
	ID             string              `json:"id"`
	Success        bool                `json:"success"`
	OriginalQuery  string              `json:"original_query"`
	ProcessedQuery *intent.ParsedQuery `json:"processed_query"`
	SQLQuery       string              `json:"sql_query"`
	Context        []milvus.Hit        `json:"context"`
	Columns        []string            `json:"columns"`
	Data           []argo.Row          `json:"data"`
	Response       string              `json:"response"`
	Suggestions    []string            `json:"suggestions"`
	Metadata       successMetadata     `json:"metadata"`
}

type failureJSON struct {
	ID            string          `json:"id"`
	Success       bool            `json:"success"`
	OriginalQuery string          `json:"original_query"`
	Error         string          `json:"error"`
	Response      string          `json:"response"`
	Metadata      failureMetadata `json:"metadata"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	ts := e.Timestamp.UTC().Format(time.RFC3339Nano)
	if !e.Success {
		return json.Marshal(failureJSON{
			ID:            e.ID,
			OriginalQuery: e.OriginalQuery,
			Error:         e.Error,
			Response:      e.Response,
			Metadata:      failureMetadata{Timestamp: ts},
		})
	}

	out := successJSON{
		ID:             e.ID,
		Success:        true,
		OriginalQuery:  e.OriginalQuery,
		ProcessedQuery: e.ProcessedQuery,
		SQLQuery:       e.SQLQuery,
		Context:        nonNil(e.Context),
		Columns:        nonNil(e.Columns),
		Data:           nonNil(e.Data),
		Response:       e.Response,
		Suggestions:    nonNil(e.Suggestions),
		Metadata: successMetadata{
			NumResults:      e.NumResults,
			ExecutionTimeMS: float64(e.ExecutionTime.Microseconds()) / 1000,
			Timestamp:       ts,
		},
	}
	return json.Marshal(out)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// FailureResponse is the apology shown when a question could not be answered.
func FailureResponse(err error) string {
	return fmt.Sprintf("I encountered an error processing your query: %s. Please try rephrasing your question.", err)
}

// Summary describes what data is available to ask about.
type Summary struct {
	Database    *models.DataSummary `json:"database"`
	VectorStore map[string]int64    `json:"vector_store"`
	Queries     map[string]int64    `json:"queries"`
	LastUpdated time.Time           `json:"last_updated"`
}
