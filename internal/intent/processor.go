package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/llm"
	"github.com/floatchat/backend/internal/metrics"
	"github.com/floatchat/backend/pkg/logger"
)

const DefaultConfidenceThreshold = 0.7

const oraclePrompt = `You interpret questions about ARGO float oceanographic data.
The database holds floats, profiles (one vertical cast per float cycle), depth-resolved
measurements (temperature, salinity, oxygen, chlorophyll, nitrate, ph) and float trajectories.

Return only a JSON object with these fields:
{
  "intent": one of %s,
  "parameters": list drawn from %s,
  "geographic_constraints": {"min_lat": number, "max_lat": number, "min_lon": number, "max_lon": number, "region": string},
  "temporal_constraints": {"start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD", "time_period": string},
  "analysis_type": one of "measurements", "floats", "profiles", "trajectories", "comparison", "summary",
  "confidence": number between 0 and 1
}
Use null for anything the question does not specify.

Question: %s`

var numberField = jsonschema.Definition{Type: jsonschema.Number}
var stringField = jsonschema.Definition{Type: jsonschema.String}

var oracleSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"intent":     stringField,
		"parameters": {Type: jsonschema.Array, Items: &stringField},
		"geographic_constraints": {
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"min_lat": numberField,
				"max_lat": numberField,
				"min_lon": numberField,
				"max_lon": numberField,
				"region":  stringField,
			},
		},
		"temporal_constraints": {
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"start_date":  stringField,
				"end_date":    stringField,
				"time_period": stringField,
			},
		},
		"analysis_type": stringField,
		"confidence":    numberField,
	},
	Required: []string{"intent", "confidence"},
}

type oracleReading struct {
	Intent       string          `json:"intent"`
	Parameters   []string        `json:"parameters"`
	Geo          *oracleGeo      `json:"geographic_constraints"`
	Temporal     *oracleTemporal `json:"temporal_constraints"`
	AnalysisType string          `json:"analysis_type"`
	Confidence   float64         `json:"confidence"`
}

type oracleGeo struct {
	MinLat *float64 `json:"min_lat"`
	MaxLat *float64 `json:"max_lat"`
	MinLon *float64 `json:"min_lon"`
	MaxLon *float64 `json:"max_lon"`
	Region string   `json:"region"`
}

type oracleTemporal struct {
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	TimePeriod string `json:"time_period"`
}

// Processor runs the classifier and asks the oracle for a second reading
// when the rules are unsure.
type Processor struct {
	classifier *Classifier
	oracle     llm.Oracle
	threshold  float64
}

func NewProcessor(classifier *Classifier, oracle llm.Oracle, threshold float64) *Processor {
	if oracle == nil {
		oracle = llm.Disabled()
	}
	return &Processor{classifier: classifier, oracle: oracle, threshold: threshold}
}

// Process never fails: any oracle problem leaves the rule-based reading in
// place.
func (p *Processor) Process(ctx context.Context, text string) ParsedQuery {
	parsed := p.classifier.Classify(text)
	if parsed.Confidence >= p.threshold {
		return parsed
	}

	reply, err := p.oracle.Generate(ctx, buildOraclePrompt(text))
	if err != nil {
		outcome := "error"
		if errors.Is(err, llm.ErrOracleDisabled) {
			outcome = "disabled"
		} else {
			logger.Warn("Oracle classification failed, using rule-based reading",
				zap.String("oracle", p.oracle.Name()),
				zap.Error(err),
			)
		}
		metrics.OracleCalls.WithLabelValues("classify", outcome).Inc()
		return parsed
	}

	merged, err := mergeReading(parsed, reply)
	if err != nil {
		logger.Debug("Discarding oracle classification", zap.Error(err))
		metrics.OracleCalls.WithLabelValues("classify", "invalid").Inc()
		return parsed
	}

	metrics.OracleCalls.WithLabelValues("classify", "ok").Inc()
	return merged
}

func buildOraclePrompt(text string) string {
	intents := make([]string, len(Intents))
	for i, in := range Intents {
		intents[i] = `"` + string(in) + `"`
	}
	params := make([]string, len(argo.Parameters))
	for i, pm := range argo.Parameters {
		params[i] = `"` + string(pm) + `"`
	}
	return fmt.Sprintf(oraclePrompt, strings.Join(intents, ", "), strings.Join(params, ", "), text)
}

// mergeReading replaces the rule-based reading with the oracle's. The
// rule-based geography is kept only when it has a minimum latitude and the
// oracle's has none.
func mergeReading(rules ParsedQuery, reply string) (ParsedQuery, error) {
	var r oracleReading
	if err := llm.DecodeStructured(reply, oracleSchema, &r); err != nil {
		return rules, err
	}

	in, err := ParseIntent(strings.TrimSpace(r.Intent))
	if err != nil {
		return rules, err
	}

	out := ParsedQuery{
		Intent:       in,
		Parameters:   canonicalParameters(r.Parameters),
		Confidence:   clamp(r.Confidence),
		OriginalText: rules.OriginalText,
		ProcessedAt:  rules.ProcessedAt,
		Source:       SourceOracle,
		AnalysisType: AnalysisTypeFor(in),
	}

	if at := AnalysisType(strings.TrimSpace(r.AnalysisType)); validAnalysisType(at) {
		out.AnalysisType = at
	}

	switch {
	case (r.Geo == nil || r.Geo.MinLat == nil) && rules.Geo.MinLat != nil:
		out.Geo = rules.Geo
	case r.Geo != nil:
		geo, err := r.Geo.constraints()
		if err != nil {
			return rules, err
		}
		out.Geo = geo
	}

	if r.Temporal != nil {
		out.Temporal = r.Temporal.constraints()
	}

	return out, nil
}

func (g *oracleGeo) constraints() (argo.GeoConstraints, error) {
	for _, lat := range []*float64{g.MinLat, g.MaxLat} {
		if lat != nil && (*lat < -90 || *lat > 90) {
			return argo.GeoConstraints{}, fmt.Errorf("latitude %v out of range", *lat)
		}
	}
	for _, lon := range []*float64{g.MinLon, g.MaxLon} {
		if lon != nil && (*lon < -180 || *lon > 180) {
			return argo.GeoConstraints{}, fmt.Errorf("longitude %v out of range", *lon)
		}
	}
	if g.MinLat != nil && g.MaxLat != nil && *g.MinLat > *g.MaxLat {
		return argo.GeoConstraints{}, fmt.Errorf("min_lat %v above max_lat %v", *g.MinLat, *g.MaxLat)
	}
	return argo.GeoConstraints{
		MinLat: g.MinLat,
		MaxLat: g.MaxLat,
		MinLon: g.MinLon,
		MaxLon: g.MaxLon,
		Region: strings.TrimSpace(g.Region),
	}, nil
}

func (t *oracleTemporal) constraints() argo.TemporalConstraints {
	return argo.TemporalConstraints{
		StartDate:  parseDate(t.StartDate),
		EndDate:    parseDate(t.EndDate),
		TimePeriod: strings.TrimSpace(t.TimePeriod),
	}
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01"} {
		if ts, err := time.Parse(layout, s); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

func canonicalParameters(raw []string) []argo.Parameter {
	seen := make(map[argo.Parameter]bool, len(raw))
	out := []argo.Parameter{}
	for _, s := range raw {
		p, ok := argo.ParseParameter(strings.ToLower(strings.TrimSpace(s)))
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func validAnalysisType(at AnalysisType) bool {
	switch at {
	case AnalyzeMeasurements, AnalyzeFloats, AnalyzeProfiles, AnalyzeTrajectories, AnalyzeComparison, AnalyzeSummary:
		return true
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
