// Package argosql builds the parameterised statements run against the ARGO
// schema. Both the PostgreSQL and SQLite stores use it, as does the SQL
// synthesizer, so every path filters rows the same way.
package argosql

import (
	"strconv"
	"strings"

	"github.com/floatchat/backend/internal/argo"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// Columns names the position and time columns a filter applies to.
type Columns struct {
	Lat  string
	Lon  string
	Time string
}

var (
	ProfileColumns    = Columns{Lat: "ap.latitude", Lon: "ap.longitude", Time: "ap.profile_time"}
	TrajectoryColumns = Columns{Lat: "tr.latitude", Lon: "tr.longitude", Time: "tr.trajectory_time"}
)

// Builder accumulates WHERE conditions and their bound arguments.
type Builder struct {
	dialect Dialect
	conds   []string
	args    []any
}

func NewBuilder(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Arg binds v and returns its placeholder.
func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	return b.dialect.placeholder(len(b.args))
}

func (b *Builder) Where(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *Builder) Args() []any {
	return b.args
}

// Clause renders " WHERE a AND b", or "" without conditions.
func (b *Builder) Clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// Geo adds the latitude range when both latitude bounds are present and the
// longitude range when both longitude bounds are present. A longitude range
// whose minimum exceeds its maximum wraps through 180 degrees.
func (b *Builder) Geo(cols Columns, g argo.GeoConstraints) {
	if g.HasLatitude() {
		b.Where(cols.Lat + " BETWEEN " + b.Arg(*g.MinLat) + " AND " + b.Arg(*g.MaxLat))
	}
	if !g.HasLongitude() {
		return
	}
	if g.CrossesAntimeridian() {
		b.Where("(" + cols.Lon + " >= " + b.Arg(*g.MinLon) + " OR " + cols.Lon + " <= " + b.Arg(*g.MaxLon) + ")")
		return
	}
	b.Where(cols.Lon + " BETWEEN " + b.Arg(*g.MinLon) + " AND " + b.Arg(*g.MaxLon))
}

func (b *Builder) Time(cols Columns, t argo.TemporalConstraints) {
	if t.StartDate != nil {
		b.Where(cols.Time + " >= " + b.Arg(*t.StartDate))
	}
	if t.EndDate != nil {
		b.Where(cols.Time + " <= " + b.Arg(*t.EndDate))
	}
}

// AnyParameter requires at least one of params to be measured. Column names
// come from the closed Parameter set, never from user text.
func (b *Builder) AnyParameter(params []argo.Parameter) {
	var parts []string
	for _, p := range params {
		if _, ok := argo.ParseParameter(string(p)); !ok {
			continue
		}
		parts = append(parts, "am."+string(p)+" IS NOT NULL")
	}
	if len(parts) == 0 {
		return
	}
	b.Where("(" + strings.Join(parts, " OR ") + ")")
}

// Statement is SQL text plus its ordered arguments.
type Statement struct {
	SQL  string
	Args []any
}

func (b *Builder) Build(head, tail string) Statement {
	sql := head + b.Clause()
	if tail != "" {
		sql += " " + tail
	}
	return Statement{SQL: sql, Args: b.Args()}
}
