package argosql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/floatchat/backend/internal/argo"
)

func box(minLat, maxLat, minLon, maxLon float64) argo.GeoConstraints {
	return argo.GeoConstraints{MinLat: &minLat, MaxLat: &maxLat, MinLon: &minLon, MaxLon: &maxLon}
}

func TestBuilderGeoAndTime(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	b := NewBuilder(Postgres)
	b.Geo(ProfileColumns, box(5, 30, 50, 80))
	b.Time(ProfileColumns, argo.TemporalConstraints{StartDate: &start, EndDate: &end})

	assert.Equal(t,
		" WHERE ap.latitude BETWEEN $1 AND $2 AND ap.longitude BETWEEN $3 AND $4 AND ap.profile_time >= $5 AND ap.profile_time <= $6",
		b.Clause())
	assert.Equal(t, []any{5.0, 30.0, 50.0, 80.0, start, end}, b.Args())
}

func TestBuilderAntimeridian(t *testing.T) {
	b := NewBuilder(SQLite)
	b.Geo(ProfileColumns, box(-60, 70, 120, -70))

	assert.Equal(t, " WHERE ap.latitude BETWEEN ? AND ? AND (ap.longitude >= ? OR ap.longitude <= ?)", b.Clause())
	assert.Equal(t, []any{-60.0, 70.0, 120.0, -70.0}, b.Args())
}

func TestBuilderPartialBoundsAreSkipped(t *testing.T) {
	minLat := 10.0
	maxLon := 40.0
	b := NewBuilder(Postgres)
	b.Geo(ProfileColumns, argo.GeoConstraints{MinLat: &minLat, MaxLon: &maxLon})

	assert.Empty(t, b.Clause())
	assert.Empty(t, b.Args())
}

func TestBuilderZeroBoundIsPresent(t *testing.T) {
	b := NewBuilder(Postgres)
	b.Geo(ProfileColumns, box(0, 10, 0, 0.5))
	assert.Equal(t, []any{0.0, 10.0, 0.0, 0.5}, b.Args())
}

func TestAnyParameterIgnoresUnknownNames(t *testing.T) {
	b := NewBuilder(Postgres)
	b.AnyParameter([]argo.Parameter{argo.Temperature, "1=1; DROP TABLE argo_floats", argo.PH})

	assert.Equal(t, " WHERE (am.temperature IS NOT NULL OR am.ph IS NOT NULL)", b.Clause())
	assert.Empty(t, b.Args())
}

func TestAccessorStatements(t *testing.T) {
	geo := box(5, 25, 80, 100)

	tests := []struct {
		name     string
		stmt     Statement
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "count floats",
			stmt:     CountFloats(Postgres, argo.Criteria{Geo: geo}),
			wantSQL:  "SELECT COUNT(DISTINCT ap.float_id) AS float_count FROM argo_profiles ap WHERE ap.latitude BETWEEN $1 AND $2 AND ap.longitude BETWEEN $3 AND $4",
			wantArgs: []any{5.0, 25.0, 80.0, 100.0},
		},
		{
			name:    "count measurements with parameters",
			stmt:    CountMeasurements(SQLite, argo.Criteria{Parameters: []argo.Parameter{argo.Oxygen}}),
			wantSQL: SelectMeasurementCount + " WHERE (am.oxygen IS NOT NULL)",
		},
		{
			name:    "measurements",
			stmt:    MeasurementsForAnalysis(Postgres, argo.Salinity, argo.Criteria{}, 1000),
			wantSQL: SelectMeasurements + " WHERE (am.salinity IS NOT NULL) ORDER BY ap.profile_time DESC, am.pressure ASC LIMIT 1000",
		},
		{
			name:     "profiles",
			stmt:     ProfilesByParameter(SQLite, argo.Temperature, argo.Criteria{Geo: geo}, 100),
			wantSQL:  SelectProfiles + JoinProfileMeasurements + " WHERE ap.latitude BETWEEN ? AND ? AND ap.longitude BETWEEN ? AND ? AND (am.temperature IS NOT NULL) ORDER BY ap.profile_time DESC LIMIT 100",
			wantArgs: []any{5.0, 25.0, 80.0, 100.0},
		},
		{
			name:     "floats by region",
			stmt:     FloatsByRegion(Postgres, 5, 25, -180, 180),
			wantSQL:  SelectFloats + " WHERE ap.latitude BETWEEN $1 AND $2 AND ap.longitude BETWEEN $3 AND $4 ORDER BY ap.profile_time DESC",
			wantArgs: []any{5.0, 25.0, -180.0, 180.0},
		},
		{
			name:     "trajectories",
			stmt:     Trajectories(Postgres, argo.Criteria{Geo: geo}, 100),
			wantSQL:  SelectTrajectories + " WHERE tr.latitude BETWEEN $1 AND $2 AND tr.longitude BETWEEN $3 AND $4 ORDER BY tr.trajectory_time DESC LIMIT 100",
			wantArgs: []any{5.0, 25.0, 80.0, 100.0},
		},
		{
			name:     "single float trajectory",
			stmt:     FloatTrajectory(SQLite, "2902746"),
			wantSQL:  SelectTrajectories + " WHERE tr.float_id = ? ORDER BY tr.trajectory_time ASC",
			wantArgs: []any{"2902746"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSQL, tt.stmt.SQL)
			if tt.wantArgs == nil {
				assert.Empty(t, tt.stmt.Args)
				return
			}
			assert.Equal(t, tt.wantArgs, tt.stmt.Args)
		})
	}
}
