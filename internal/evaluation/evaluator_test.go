package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/llm"
)

func newRuleEvaluator() *Evaluator {
	return NewEvaluator(intent.NewProcessor(intent.NewClassifier(), llm.Disabled(), 0.7))
}

func TestRunOnDataset(t *testing.T) {
	dataset, err := LoadDataset("testdata/questions.yaml")
	require.NoError(t, err)
	require.Len(t, dataset.Items, 10)

	report, err := newRuleEvaluator().Run(context.Background(), dataset)
	require.NoError(t, err)

	assert.Equal(t, 10, report.IntentCorrect)
	assert.Equal(t, 9, report.RegionScored)
	assert.Equal(t, 9, report.RegionCorrect)
	assert.Equal(t, 6, report.ParameterScored)
	assert.Equal(t, 5, report.ParameterCorrect)
	assert.InDelta(t, 100.0, report.IntentAccuracy, 1e-9)
	assert.InDelta(t, 83.33, report.ParamAccuracy, 0.01)
	assert.InDelta(t, 0.78, report.AvgConfidence, 1e-9)
	assert.Equal(t, 2, report.ByIntent["measurement_analysis"])

	// "graph" contains "ph".
	require.Len(t, report.Misses, 1)
	assert.Equal(t, Miss{
		Query:    "chlorophyll graph for the atlantic ocean",
		Field:    "parameters",
		Expected: "chlorophyll",
		Actual:   "chlorophyll,ph",
	}, report.Misses[0])
}

func TestGenerateReport(t *testing.T) {
	report := &Report{
		TotalQueries: 2, IntentCorrect: 1, IntentAccuracy: 50,
		ByIntent: map[string]int{"summary": 1, "float_count": 1},
		Misses:   []Miss{{Query: "q", Field: "intent", Expected: "summary", Actual: "float_count"}},
	}

	text := GenerateReport(report)
	assert.Contains(t, text, "- Intent: 1/2 (50.0%)")
	assert.Contains(t, text, "- float_count: 1\n- summary: 1\n")
	assert.Contains(t, text, `- "q" intent: expected "summary", got "float_count"`)
}

func TestParseDatasetValidates(t *testing.T) {
	tests := map[string]string{
		"no query":       "items:\n  - intent: summary\n",
		"unknown intent": "items:\n  - query: hi\n    intent: chat\n",
		"unknown param":  "items:\n  - query: hi\n    intent: summary\n    parameters: [density]\n",
		"malformed yaml": "items: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDataset([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRuleEvaluator().Run(ctx, &Dataset{Items: []DatasetItem{{Query: "x", Intent: "summary"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
