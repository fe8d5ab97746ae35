package intent

import (
	"strings"
	"time"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/gazetteer"
)

const (
	regionConfidence   = 0.8
	noRegionConfidence = 0.6
)

// parameterKeywords is matched by plain substring containment, so "graph"
// also selects ph.
var parameterKeywords = []struct {
	param    argo.Parameter
	keywords []string
}{
	{argo.Temperature, []string{"temperature", "temp"}},
	{argo.Salinity, []string{"salinity", "salt"}},
	{argo.Oxygen, []string{"oxygen", "doxy"}},
	{argo.Chlorophyll, []string{"chlorophyll", "chla"}},
	{argo.Nitrate, []string{"nitrate"}},
	{argo.PH, []string{"ph", "ph_in_situ"}},
}

var (
	countWords       = []string{"how many", "count", "number of"}
	measurementWords = []string{"measurement", "measurements", "data point", "data points", "observation", "observations"}
	timeSeriesWords  = []string{"time series", "timeseries", "over time", "temporal", "plot", "chart", "graph"}
	coreVariables    = []string{"temperature", "salinity", "oxygen"}
	fetchWords       = []string{"show", "get", "fetch", "retrieve", "data"}
	trajectoryWords  = []string{"trajectory", "path", "route"}
	comparisonWords  = []string{"compare", "comparison"}
	searchWords      = []string{"nearest", "near", "close", "find"}
	summaryWords     = []string{"summary", "overview", "statistics", "range"}
)

// Classifier is the deterministic keyword reader. It never fails.
type Classifier struct {
	now func() time.Time
}

func NewClassifier() *Classifier {
	return &Classifier{now: time.Now}
}

func (c *Classifier) Classify(text string) ParsedQuery {
	lower := strings.ToLower(text)

	q := ParsedQuery{
		Parameters:   extractParameters(lower),
		OriginalText: text,
		ProcessedAt:  c.now().UTC(),
		Source:       SourceRules,
		Confidence:   noRegionConfidence,
	}

	if region, ok := gazetteer.Match(lower); ok {
		q.Geo = region.Box.Constraints(region.Name)
		q.Confidence = regionConfidence
	}

	q.Intent = classifyIntent(lower)
	q.AnalysisType = AnalysisTypeFor(q.Intent)

	return q
}

func extractParameters(lower string) []argo.Parameter {
	params := []argo.Parameter{}
	for _, pk := range parameterKeywords {
		if containsAny(lower, pk.keywords) {
			params = append(params, pk.param)
		}
	}
	return params
}

// classifyIntent applies the rules in priority order; the first match wins.
func classifyIntent(lower string) Intent {
	switch {
	case containsAny(lower, countWords):
		switch {
		case containsAny(lower, measurementWords):
			return MeasurementCount
		case strings.Contains(lower, "float"):
			return FloatCount
		default:
			return ProfileCount
		}
	case containsAny(lower, timeSeriesWords) &&
		(containsAny(lower, coreVariables) || strings.Contains(lower, "measurement")):
		return MeasurementAnalysis
	case containsAny(lower, measurementWords),
		containsAny(lower, coreVariables) && containsAny(lower, fetchWords):
		return MeasurementAnalysis
	case containsAny(lower, trajectoryWords):
		return TrajectoryAnalysis
	case containsAny(lower, comparisonWords):
		return Comparison
	case containsAny(lower, searchWords):
		return FloatSearch
	case containsAny(lower, summaryWords):
		return Summary
	default:
		return ProfileAnalysis
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
