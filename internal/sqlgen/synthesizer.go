// Package sqlgen renders a ParsedQuery as the SQL statement that answers it.
// The statement is recorded in the query log and returned to callers for
// inspection; rows are fetched through the typed store accessors.
package sqlgen

import (
	"strconv"

	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/storage/argosql"
)

const (
	DefaultMeasurementLimit = 1000
	DefaultRowLimit         = 100
)

type Plan struct {
	Intent intent.Intent `json:"intent"`
	SQL    string        `json:"sql"`
	Args   []any         `json:"args"`
}

type Synthesizer struct {
	dialect          argosql.Dialect
	measurementLimit int
	rowLimit         int
}

func NewSynthesizer(measurementLimit, rowLimit int) *Synthesizer {
	if measurementLimit <= 0 {
		measurementLimit = DefaultMeasurementLimit
	}
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	return &Synthesizer{dialect: argosql.Postgres, measurementLimit: measurementLimit, rowLimit: rowLimit}
}

// Synthesize is pure: equal inputs give byte-identical SQL.
func (s *Synthesizer) Synthesize(q intent.ParsedQuery) Plan {
	b := argosql.NewBuilder(s.dialect)
	cols := argosql.ProfileColumns
	if q.Intent == intent.TrajectoryAnalysis {
		cols = argosql.TrajectoryColumns
	}

	head := selectFor(q)
	b.Geo(cols, q.Geo)
	b.Time(cols, q.Temporal)
	if filtersParameters(q.Intent) {
		b.AnyParameter(q.Parameters)
	}

	stmt := b.Build(head, s.tailFor(q.Intent))
	return Plan{Intent: q.Intent, SQL: stmt.SQL, Args: stmt.Args}
}

func selectFor(q intent.ParsedQuery) string {
	switch q.Intent {
	case intent.MeasurementCount:
		return argosql.SelectMeasurementCount
	case intent.FloatCount:
		return argosql.SelectFloatCount
	case intent.ProfileCount:
		return argosql.SelectProfileCount
	case intent.MeasurementAnalysis:
		return argosql.SelectMeasurements
	case intent.ProfileAnalysis:
		if len(q.Parameters) > 0 {
			return argosql.SelectProfiles + argosql.JoinProfileMeasurements
		}
		return argosql.SelectProfiles
	case intent.TrajectoryAnalysis:
		return argosql.SelectTrajectories
	case intent.FloatSearch:
		return argosql.SelectFloats
	default:
		return argosql.SelectProfileSummary
	}
}

// filtersParameters is true for the intents whose rows carry measurement
// columns the parameters can constrain.
func filtersParameters(i intent.Intent) bool {
	return i == intent.ProfileAnalysis || i == intent.MeasurementAnalysis || i == intent.MeasurementCount
}

func (s *Synthesizer) tailFor(i intent.Intent) string {
	switch {
	case i.IsCount():
		return ""
	case i == intent.MeasurementAnalysis:
		return argosql.OrderByMeasurement + " LIMIT " + strconv.Itoa(s.measurementLimit)
	case i == intent.TrajectoryAnalysis:
		return argosql.OrderByTrajectoryTime + " LIMIT " + strconv.Itoa(s.rowLimit)
	default:
		return argosql.OrderByProfileTime + " LIMIT " + strconv.Itoa(s.rowLimit)
	}
}
