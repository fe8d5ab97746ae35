package argosql

import (
	"strconv"

	"github.com/floatchat/backend/internal/argo"
)

const (
	measurementJoin = "argo_measurements am JOIN argo_profiles ap ON am.float_id = ap.float_id AND am.cycle_number = ap.cycle_number"

	SelectMeasurementCount = "SELECT COUNT(*) AS measurement_count FROM " + measurementJoin
	SelectFloatCount       = "SELECT COUNT(DISTINCT ap.float_id) AS float_count FROM argo_profiles ap"
	SelectProfileCount     = "SELECT COUNT(*) AS profile_count FROM argo_profiles ap"

	SelectMeasurements = "SELECT am.float_id, am.cycle_number, ap.latitude, ap.longitude, ap.profile_time, " +
		"am.pressure, am.temperature, am.salinity, am.oxygen, am.chlorophyll, am.nitrate, am.ph FROM " + measurementJoin

	SelectProfiles = "SELECT DISTINCT ap.float_id, ap.cycle_number, ap.latitude, ap.longitude, ap.profile_time, " +
		"ap.max_depth, ap.num_levels FROM argo_profiles ap"
	JoinProfileMeasurements = " JOIN argo_measurements am ON ap.float_id = am.float_id AND ap.cycle_number = am.cycle_number"

	SelectTrajectories = "SELECT tr.float_id, tr.latitude, tr.longitude, tr.trajectory_time, tr.cycle_number FROM argo_trajectories tr"

	SelectFloats = "SELECT DISTINCT af.float_id, af.wmo_id, af.institution, af.status, ap.latitude, ap.longitude, ap.profile_time " +
		"FROM argo_floats af JOIN argo_profiles ap ON af.float_id = ap.float_id"

	SelectProfileSummary = "SELECT ap.float_id, ap.cycle_number, ap.latitude, ap.longitude, ap.profile_time FROM argo_profiles ap"

	OrderByProfileTime      = "ORDER BY ap.profile_time DESC"
	OrderByMeasurement      = "ORDER BY ap.profile_time DESC, am.pressure ASC"
	OrderByTrajectoryTime   = "ORDER BY tr.trajectory_time DESC"
	OrderByTrajectoryAscend = "ORDER BY tr.trajectory_time ASC"
)

func limitClause(order string, limit int) string {
	if limit <= 0 {
		return order
	}
	return order + " LIMIT " + strconv.Itoa(limit)
}

func CountMeasurements(d Dialect, c argo.Criteria) Statement {
	b := NewBuilder(d)
	b.Geo(ProfileColumns, c.Geo)
	b.Time(ProfileColumns, c.Time)
	b.AnyParameter(c.Parameters)
	return b.Build(SelectMeasurementCount, "")
}

func CountFloats(d Dialect, c argo.Criteria) Statement {
	b := NewBuilder(d)
	b.Geo(ProfileColumns, c.Geo)
	b.Time(ProfileColumns, c.Time)
	return b.Build(SelectFloatCount, "")
}

func CountProfiles(d Dialect, c argo.Criteria) Statement {
	b := NewBuilder(d)
	b.Geo(ProfileColumns, c.Geo)
	b.Time(ProfileColumns, c.Time)
	return b.Build(SelectProfileCount, "")
}

// MeasurementsForAnalysis returns measurement rows where param was observed.
func MeasurementsForAnalysis(d Dialect, param argo.Parameter, c argo.Criteria, limit int) Statement {
	b := NewBuilder(d)
	b.Geo(ProfileColumns, c.Geo)
	b.Time(ProfileColumns, c.Time)
	b.AnyParameter([]argo.Parameter{param})
	return b.Build(SelectMeasurements, limitClause(OrderByMeasurement, limit))
}

// ProfilesByParameter returns distinct profiles with at least one
// measurement of param.
func ProfilesByParameter(d Dialect, param argo.Parameter, c argo.Criteria, limit int) Statement {
	b := NewBuilder(d)
	b.Geo(ProfileColumns, c.Geo)
	b.Time(ProfileColumns, c.Time)
	b.AnyParameter([]argo.Parameter{param})
	return b.Build(SelectProfiles+JoinProfileMeasurements, limitClause(OrderByProfileTime, limit))
}

func FloatsByRegion(d Dialect, minLat, maxLat, minLon, maxLon float64) Statement {
	b := NewBuilder(d)
	b.Geo(ProfileColumns, argo.GeoConstraints{
		MinLat: &minLat, MaxLat: &maxLat, MinLon: &minLon, MaxLon: &maxLon,
	})
	return b.Build(SelectFloats, OrderByProfileTime)
}

func Trajectories(d Dialect, c argo.Criteria, limit int) Statement {
	b := NewBuilder(d)
	b.Geo(TrajectoryColumns, c.Geo)
	b.Time(TrajectoryColumns, c.Time)
	return b.Build(SelectTrajectories, limitClause(OrderByTrajectoryTime, limit))
}

func FloatTrajectory(d Dialect, floatID string) Statement {
	b := NewBuilder(d)
	b.Where("tr.float_id = " + b.Arg(floatID))
	return b.Build(SelectTrajectories, OrderByTrajectoryAscend)
}

func ProfileMeasurements(d Dialect, floatID string, cycle int) Statement {
	b := NewBuilder(d)
	b.Where("am.float_id = " + b.Arg(floatID))
	b.Where("am.cycle_number = " + b.Arg(cycle))
	return b.Build("SELECT am.pressure, am.depth, am.temperature, am.salinity, am.oxygen, am.chlorophyll, "+
		"am.nitrate, am.ph, am.temperature_qc, am.salinity_qc FROM argo_measurements am", "ORDER BY am.pressure ASC")
}
