// Package argo holds the value types shared by the query pipeline and the
// data stores: oceanographic parameters, search constraints and tabular
// results.
package argo

import "time"

// Parameter is a canonical measured variable name. The value doubles as the
// column name in argo_measurements.
type Parameter string

const (
	Temperature Parameter = "temperature"
	Salinity    Parameter = "salinity"
	Oxygen      Parameter = "oxygen"
	Chlorophyll Parameter = "chlorophyll"
	Nitrate     Parameter = "nitrate"
	PH          Parameter = "ph"
)

// Parameters lists every known parameter in recognition order.
var Parameters = []Parameter{Temperature, Salinity, Oxygen, Chlorophyll, Nitrate, PH}

func ParseParameter(s string) (Parameter, bool) {
	for _, p := range Parameters {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// GeoConstraints bounds a search. Every field is optional; a nil bound is
// absent, which is distinct from a zero bound.
type GeoConstraints struct {
	MinLat *float64 `json:"min_lat"`
	MaxLat *float64 `json:"max_lat"`
	MinLon *float64 `json:"min_lon"`
	MaxLon *float64 `json:"max_lon"`
	Region string   `json:"region,omitempty"`
}

func (g GeoConstraints) HasLatitude() bool  { return g.MinLat != nil && g.MaxLat != nil }
func (g GeoConstraints) HasLongitude() bool { return g.MinLon != nil && g.MaxLon != nil }

func (g GeoConstraints) IsEmpty() bool {
	return g.MinLat == nil && g.MaxLat == nil && g.MinLon == nil && g.MaxLon == nil && g.Region == ""
}

// CrossesAntimeridian reports a longitude range such as 120..-70 that wraps
// through 180.
func (g GeoConstraints) CrossesAntimeridian() bool {
	return g.HasLongitude() && *g.MinLon > *g.MaxLon
}

type TemporalConstraints struct {
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	TimePeriod string     `json:"time_period,omitempty"`
}

func (t TemporalConstraints) IsEmpty() bool {
	return t.StartDate == nil && t.EndDate == nil && t.TimePeriod == ""
}

// Criteria is what the typed accessors filter on.
type Criteria struct {
	Geo        GeoConstraints
	Time       TemporalConstraints
	Parameters []Parameter
}

type Row map[string]any

// Result is an ordered table. Rows may be empty; Columns still describes the
// shape when the store knows it.
type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

func (r *Result) Empty() bool { return r.Len() == 0 }

// Scalar builds the one-row result produced by count queries.
func Scalar(column string, value int64) *Result {
	return &Result{Columns: []string{column}, Rows: []Row{{column: value}}}
}

func Float(v float64) *float64 { return &v }
