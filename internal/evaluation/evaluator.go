// Package evaluation scores the question reader against a labelled dataset.
package evaluation

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/pkg/logger"
)

// Reader is anything that turns a question into a ParsedQuery.
type Reader interface {
	Process(ctx context.Context, text string) intent.ParsedQuery
}

type Dataset struct {
	Items []DatasetItem `yaml:"items"`
}

// DatasetItem is one labelled question. Region and Parameters are only
// scored when set.
type DatasetItem struct {
	Query      string   `yaml:"query"`
	Intent     string   `yaml:"intent"`
	Region     string   `yaml:"region,omitempty"`
	Parameters []string `yaml:"parameters,omitempty"`
	Category   string   `yaml:"category,omitempty"`
}

type Miss struct {
	Query    string `json:"query"`
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

type Report struct {
	TotalQueries     int            `json:"total_queries"`
	IntentCorrect    int            `json:"intent_correct"`
	RegionScored     int            `json:"region_scored"`
	RegionCorrect    int            `json:"region_correct"`
	ParameterScored  int            `json:"parameter_scored"`
	ParameterCorrect int            `json:"parameter_correct"`
	IntentAccuracy   float64        `json:"intent_accuracy"`
	RegionAccuracy   float64        `json:"region_accuracy"`
	ParamAccuracy    float64        `json:"parameter_accuracy"`
	AvgConfidence    float64        `json:"avg_confidence"`
	ByIntent         map[string]int `json:"by_intent"`
	Misses           []Miss         `json:"misses"`
}

type Evaluator struct {
	reader Reader
}

func NewEvaluator(reader Reader) *Evaluator {
	return &Evaluator{reader: reader}
}

func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return ParseDataset(data)
}

func ParseDataset(data []byte) (*Dataset, error) {
	var dataset Dataset
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	for i, item := range dataset.Items {
		if strings.TrimSpace(item.Query) == "" {
			return nil, fmt.Errorf("dataset item %d has no query", i)
		}
		if _, err := intent.ParseIntent(item.Intent); err != nil {
			return nil, fmt.Errorf("dataset item %d: %w", i, err)
		}
		for _, p := range item.Parameters {
			if _, ok := argo.ParseParameter(p); !ok {
				return nil, fmt.Errorf("dataset item %d: unknown parameter %q", i, p)
			}
		}
	}

	return &dataset, nil
}

func (e *Evaluator) Run(ctx context.Context, dataset *Dataset) (*Report, error) {
	logger.Info("Running dataset evaluation", zap.Int("items", len(dataset.Items)))

	report := &Report{
		TotalQueries: len(dataset.Items),
		ByIntent:     make(map[string]int),
	}

	var totalConfidence float64
	for _, item := range dataset.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parsed := e.reader.Process(ctx, item.Query)
		totalConfidence += parsed.Confidence
		report.ByIntent[string(parsed.Intent)]++

		if string(parsed.Intent) == item.Intent {
			report.IntentCorrect++
		} else {
			report.Misses = append(report.Misses, Miss{
				Query: item.Query, Field: "intent", Expected: item.Intent, Actual: string(parsed.Intent),
			})
		}

		if item.Region != "" {
			report.RegionScored++
			if strings.EqualFold(item.Region, parsed.Geo.Region) {
				report.RegionCorrect++
			} else {
				report.Misses = append(report.Misses, Miss{
					Query: item.Query, Field: "region", Expected: item.Region, Actual: parsed.Geo.Region,
				})
			}
		}

		if len(item.Parameters) > 0 {
			report.ParameterScored++
			got := parameterNames(parsed.Parameters)
			if sameSet(item.Parameters, got) {
				report.ParameterCorrect++
			} else {
				report.Misses = append(report.Misses, Miss{
					Query: item.Query, Field: "parameters",
					Expected: strings.Join(item.Parameters, ","), Actual: strings.Join(got, ","),
				})
			}
		}
	}

	report.IntentAccuracy = ratio(report.IntentCorrect, report.TotalQueries)
	report.RegionAccuracy = ratio(report.RegionCorrect, report.RegionScored)
	report.ParamAccuracy = ratio(report.ParameterCorrect, report.ParameterScored)
	if report.TotalQueries > 0 {
		report.AvgConfidence = totalConfidence / float64(report.TotalQueries)
	}

	logger.Info("Dataset evaluation completed",
		zap.Int("total", report.TotalQueries),
		zap.Float64("intent_accuracy", report.IntentAccuracy),
		zap.Float64("region_accuracy", report.RegionAccuracy),
		zap.Float64("parameter_accuracy", report.ParamAccuracy),
	)

	return report, nil
}

func parameterNames(params []argo.Parameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = string(p)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = slices.Clone(a), slices.Clone(b)
	sort.Strings(a)
	sort.Strings(b)
	return slices.Equal(a, b)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}

func GenerateReport(report *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
Evaluation Report
=================

Total Queries: %d

Accuracy:
- Intent: %d/%d (%.1f%%)
- Region: %d/%d (%.1f%%)
- Parameters: %d/%d (%.1f%%)

Average Confidence: %.2f

Intents:
`,
		report.TotalQueries,
		report.IntentCorrect, report.TotalQueries, report.IntentAccuracy,
		report.RegionCorrect, report.RegionScored, report.RegionAccuracy,
		report.ParameterCorrect, report.ParameterScored, report.ParamAccuracy,
		report.AvgConfidence,
	)

	names := make([]string, 0, len(report.ByIntent))
	for name := range report.ByIntent {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %d\n", name, report.ByIntent[name])
	}

	if len(report.Misses) > 0 {
		b.WriteString("\nMisses:\n")
		for _, m := range report.Misses {
			fmt.Fprintf(&b, "- %q %s: expected %q, got %q\n", m.Query, m.Field, m.Expected, m.Actual)
		}
	}

	return b.String()
}
