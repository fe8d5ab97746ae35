package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/query"
	"github.com/floatchat/backend/internal/storage/models"
)

type fakeEngine struct {
	questions  []string
	fail       bool
	summaryErr error
	limit      int
}

func (f *fakeEngine) ProcessQuery(_ context.Context, text string) *query.Envelope {
	f.questions = append(f.questions, text)
	if f.fail {
		return &query.Envelope{ID: "q-2", OriginalQuery: text, Error: "store down", Timestamp: time.Now()}
	}
	return &query.Envelope{
		ID: "q-1", Success: true, OriginalQuery: text, Response: "Found 3 floats.",
		Columns: []string{"float_count"}, Data: []argo.Row{{"float_count": int64(3)}}, NumResults: 1,
		Timestamp: time.Now(),
	}
}

func (f *fakeEngine) DataSummary(context.Context) (*query.Summary, error) {
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return &query.Summary{Database: &models.DataSummary{TotalProfiles: 12}}, nil
}

func (f *fakeEngine) History(_ context.Context, limit int) ([]models.QueryLogEntry, error) {
	f.limit = limit
	return []models.QueryLogEntry{{ID: "a", UserQuery: "how many floats"}}, nil
}

type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	} `json:"result"`
}

func call(t *testing.T, s *Server, payload string) toolResponse {
	t.Helper()
	raw := s.MCP().HandleMessage(context.Background(), []byte(payload))
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestToolsAreListed(t *testing.T) {
	s := NewServer("test", &fakeEngine{}, zap.NewNop())
	resp := call(t, s, `{"jsonrpc":"2.0","method":"tools/list","id":1}`)

	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask_argo", "data_summary", "query_history"}, names)
}

func TestAskArgo(t *testing.T) {
	engine := &fakeEngine{}
	s := NewServer("test", engine, zap.NewNop())

	resp := call(t, s, `{"jsonrpc":"2.0","method":"tools/call","id":2,
		"params":{"name":"ask_argo","arguments":{"question":"  how many floats  "}}}`)
	require.Len(t, resp.Result.Content, 1)
	assert.False(t, resp.Result.IsError)
	assert.Equal(t, []string{"how many floats"}, engine.questions)

	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &env))
	assert.Equal(t, true, env["success"])
	assert.Equal(t, "Found 3 floats.", env["response"])
}

func TestAskArgoFailureIsToolError(t *testing.T) {
	s := NewServer("test", &fakeEngine{fail: true}, zap.NewNop())
	resp := call(t, s, `{"jsonrpc":"2.0","method":"tools/call","id":3,
		"params":{"name":"ask_argo","arguments":{"question":"salinity"}}}`)
	assert.True(t, resp.Result.IsError)
}

func TestAskArgoRequiresQuestion(t *testing.T) {
	engine := &fakeEngine{}
	s := NewServer("test", engine, zap.NewNop())

	for _, args := range []string{`{}`, `{"question":"   "}`} {
		resp := call(t, s, `{"jsonrpc":"2.0","method":"tools/call","id":4,
			"params":{"name":"ask_argo","arguments":`+args+`}}`)
		assert.True(t, resp.Result.IsError, args)
	}
	assert.Empty(t, engine.questions)
}

func TestDataSummary(t *testing.T) {
	s := NewServer("test", &fakeEngine{}, zap.NewNop())
	resp := call(t, s, `{"jsonrpc":"2.0","method":"tools/call","id":5,"params":{"name":"data_summary"}}`)
	require.Len(t, resp.Result.Content, 1)
	assert.Contains(t, resp.Result.Content[0].Text, `"total_profiles":12`)

	s = NewServer("test", &fakeEngine{summaryErr: errors.New("locked")}, zap.NewNop())
	resp = call(t, s, `{"jsonrpc":"2.0","method":"tools/call","id":6,"params":{"name":"data_summary"}}`)
	assert.True(t, resp.Result.IsError)
}

func TestQueryHistoryLimit(t *testing.T) {
	engine := &fakeEngine{}
	s := NewServer("test", engine, zap.NewNop())

	resp := call(t, s, `{"jsonrpc":"2.0","method":"tools/call","id":7,"params":{"name":"query_history"}}`)
	assert.False(t, resp.Result.IsError)
	assert.Equal(t, 20, engine.limit)

	resp = call(t, s, `{"jsonrpc":"2.0","method":"tools/call","id":8,
		"params":{"name":"query_history","arguments":{"limit":5}}}`)
	assert.False(t, resp.Result.IsError)
	assert.Equal(t, 5, engine.limit)

	resp = call(t, s, `{"jsonrpc":"2.0","method":"tools/call","id":9,
		"params":{"name":"query_history","arguments":{"limit":9999}}}`)
	assert.True(t, resp.Result.IsError)
}
