// Package response turns a query result into the natural-language answer
// shown to the user.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/llm"
	"github.com/floatchat/backend/internal/metrics"
	"github.com/floatchat/backend/pkg/logger"
)

const NoData = "No ARGO data found matching your query criteria."

const sampleRows = 3

const summaryTemplate = `Based on the following ARGO data query results, provide a clear and informative response to the user's question.

Original Query: "{{.query}}"
Detected intent: {{.intent}}

Query Results Summary:
- Number of records: {{.count}}
- Columns: {{.columns}}
- Sample data: {{.sample}}

Please provide a natural language response that:
1. Answers the user's question directly
2. Highlights key findings from the data
3. Mentions relevant statistics (number of profiles, geographic coverage, etc.)
4. Suggests follow-up questions if appropriate

Keep the response concise but informative, suitable for both scientists and general users.`

// Fallback is the answer used whenever the oracle cannot produce one.
func Fallback(n int) string {
	return fmt.Sprintf("Found %d ARGO profiles matching your query. Please refer to the data table for details.", n)
}

type Generator struct {
	oracle   llm.Oracle
	template prompts.PromptTemplate
}

func NewGenerator(oracle llm.Oracle) *Generator {
	if oracle == nil {
		oracle = llm.Disabled()
	}
	return &Generator{
		oracle:   oracle,
		template: prompts.NewPromptTemplate(summaryTemplate, []string{"query", "intent", "count", "columns", "sample"}),
	}
}

// Summarize never fails: an empty result gets the fixed no-data answer
// without consulting the oracle, and any oracle problem gets Fallback.
func (g *Generator) Summarize(ctx context.Context, result *argo.Result, text string, parsed intent.ParsedQuery) string {
	if result.Empty() {
		return NoData
	}
	n := result.Len()

	prompt, err := g.prompt(result, text, parsed)
	if err != nil {
		logger.Warn("Failed to render response prompt", zap.Error(err))
		return Fallback(n)
	}

	reply, err := g.oracle.Generate(ctx, prompt)
	if err != nil {
		metrics.OracleCalls.WithLabelValues("respond", outcome(err)).Inc()
		logger.Warn("Response generation fell back", zap.String("oracle", g.oracle.Name()), zap.Error(err))
		return Fallback(n)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		metrics.OracleCalls.WithLabelValues("respond", "empty").Inc()
		return Fallback(n)
	}

	metrics.OracleCalls.WithLabelValues("respond", "ok").Inc()
	return reply
}

func (g *Generator) prompt(result *argo.Result, text string, parsed intent.ParsedQuery) (string, error) {
	rows := result.Rows
	if len(rows) > sampleRows {
		rows = rows[:sampleRows]
	}
	sample, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode sample rows: %w", err)
	}

	return g.template.Format(map[string]any{
		"query":   text,
		"intent":  string(parsed.Intent),
		"count":   result.Len(),
		"columns": strings.Join(result.Columns, ", "),
		"sample":  string(sample),
	})
}

func outcome(err error) string {
	if errors.Is(err, llm.ErrOracleDisabled) {
		return "disabled"
	}
	return "error"
}
