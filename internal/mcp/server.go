// Package mcp exposes the query engine as Model Context Protocol tools so
// assistants can ask ARGO questions over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/query"
	"github.com/floatchat/backend/internal/storage/models"
)

const maxHistoryLimit = 500

type Answerer interface {
	ProcessQuery(ctx context.Context, text string) *query.Envelope
	DataSummary(ctx context.Context) (*query.Summary, error)
	History(ctx context.Context, limit int) ([]models.QueryLogEntry, error)
}

type Server struct {
	mcp    *server.MCPServer
	engine Answerer
	logger *zap.Logger
}

func NewServer(version string, engine Answerer, logger *zap.Logger) *Server {
	s := &Server{
		mcp:    server.NewMCPServer("floatchat", version, server.WithToolCapabilities(true)),
		engine: engine,
		logger: logger,
	}
	s.registerTools()
	return s
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio speaks JSON-RPC over in and out until ctx ends or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("MCP server listening on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	ask := mcp.NewTool(
		"ask_argo",
		mcp.WithDescription("Answer a natural-language question about ARGO float data. "+
			"Returns the interpreted question, the SQL that answers it, result rows and a summary."),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("Question, e.g. \"temperature profiles in the Arabian Sea in 2023\""),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	s.mcp.AddTool(ask, s.handleAsk)

	summary := mcp.NewTool(
		"data_summary",
		mcp.WithDescription("Counts, geographic bounds and date range of the stored ARGO data"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcp.AddTool(summary, s.handleSummary)

	history := mcp.NewTool(
		"query_history",
		mcp.WithDescription("Most recent questions and whether they were answered"),
		mcp.WithNumber(
			"limit",
			mcp.Description("Number of entries to return (default: 20, max: 500)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.mcp.AddTool(history, s.handleHistory)
}

func (s *Server) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return mcp.NewToolResultError("question must not be empty"), nil
	}

	env := s.engine.ProcessQuery(ctx, question)
	s.logger.Debug("MCP question answered", zap.String("id", env.ID), zap.Bool("success", env.Success))

	result, err := jsonResult(env)
	if err != nil {
		return nil, err
	}
	result.IsError = !env.Success
	return result, nil
}

func (s *Server) handleSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.engine.DataSummary(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("data summary unavailable: %v", err)), nil
	}
	return jsonResult(summary)
}

func (s *Server) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 || limit > maxHistoryLimit {
		return mcp.NewToolResultError("limit must be between 1 and 500"), nil
	}

	entries, err := s.engine.History(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query history unavailable: %v", err)), nil
	}
	return jsonResult(map[string]any{"history": entries, "count": len(entries)})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
