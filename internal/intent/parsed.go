// Package intent turns a natural-language question about ARGO data into a
// ParsedQuery, first with keyword rules and, for low-confidence results,
// with an LLM.
package intent

import (
	"fmt"
	"time"

	"github.com/floatchat/backend/internal/argo"
)

type Intent string

const (
	MeasurementCount    Intent = "measurement_count"
	FloatCount          Intent = "float_count"
	ProfileCount        Intent = "profile_count"
	MeasurementAnalysis Intent = "measurement_analysis"
	TrajectoryAnalysis  Intent = "trajectory_analysis"
	Comparison          Intent = "comparison"
	FloatSearch         Intent = "float_search"
	Summary             Intent = "summary"
	ProfileAnalysis     Intent = "profile_analysis"
)

var Intents = []Intent{
	MeasurementCount, FloatCount, ProfileCount, MeasurementAnalysis,
	TrajectoryAnalysis, Comparison, FloatSearch, Summary, ProfileAnalysis,
}

func ParseIntent(s string) (Intent, error) {
	for _, i := range Intents {
		if string(i) == s {
			return i, nil
		}
	}
	return "", fmt.Errorf("unknown intent %q", s)
}

func (i Intent) IsCount() bool {
	return i == MeasurementCount || i == FloatCount || i == ProfileCount
}

type AnalysisType string

const (
	AnalyzeMeasurements AnalysisType = "measurements"
	AnalyzeFloats       AnalysisType = "floats"
	AnalyzeProfiles     AnalysisType = "profiles"
	AnalyzeTrajectories AnalysisType = "trajectories"
	AnalyzeComparison   AnalysisType = "comparison"
	AnalyzeSummary      AnalysisType = "summary"
)

// AnalysisTypeFor is the analysis type the rules attach to each intent.
func AnalysisTypeFor(i Intent) AnalysisType {
	switch i {
	case MeasurementCount, MeasurementAnalysis:
		return AnalyzeMeasurements
	case FloatCount, FloatSearch:
		return AnalyzeFloats
	case TrajectoryAnalysis:
		return AnalyzeTrajectories
	case Comparison:
		return AnalyzeComparison
	case Summary:
		return AnalyzeSummary
	default:
		return AnalyzeProfiles
	}
}

type Source string

const (
	SourceRules  Source = "rules"
	SourceOracle Source = "oracle"
)

// ParsedQuery is the structured reading of one user question.
type ParsedQuery struct {
	Intent       Intent                   `json:"intent"`
	Parameters   []argo.Parameter         `json:"parameters"`
	Geo          argo.GeoConstraints      `json:"geographic_constraints"`
	Temporal     argo.TemporalConstraints `json:"temporal_constraints"`
	AnalysisType AnalysisType             `json:"analysis_type"`
	Confidence   float64                  `json:"confidence"`
	OriginalText string                   `json:"original_query"`
	ProcessedAt  time.Time                `json:"processed_at"`
	Source       Source                   `json:"source"`
}

// PrimaryParameter is the first recognised parameter, or temperature.
func (q ParsedQuery) PrimaryParameter() argo.Parameter {
	if len(q.Parameters) > 0 {
		return q.Parameters[0]
	}
	return argo.Temperature
}

func (q ParsedQuery) Criteria() argo.Criteria {
	return argo.Criteria{Geo: q.Geo, Time: q.Temporal, Parameters: q.Parameters}
}
