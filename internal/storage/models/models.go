package models

import "time"

type Float struct {
	FloatID          string     `json:"float_id"`
	WMOID            string     `json:"wmo_id"`
	Institution      string     `json:"institution"`
	DataMode         string     `json:"data_mode"`
	DeploymentDate   *time.Time `json:"deployment_date,omitempty"`
	LastTransmission *time.Time `json:"last_transmission,omitempty"`
	Status           string     `json:"status"`
}

type Profile struct {
	FloatID     string    `json:"float_id"`
	CycleNumber int       `json:"cycle_number"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	ProfileTime time.Time `json:"profile_time"`
	DataMode    string    `json:"data_mode"`
	PositionQC  string    `json:"position_qc,omitempty"`
	MaxDepth    *float64  `json:"max_depth,omitempty"`
	MinDepth    *float64  `json:"min_depth,omitempty"`
	NumLevels   *int      `json:"num_levels,omitempty"`
}

// Measurement is one depth level of a profile. Nil values were not measured.
type Measurement struct {
	FloatID       string   `json:"float_id"`
	CycleNumber   int      `json:"cycle_number"`
	Pressure      *float64 `json:"pressure"`
	Depth         *float64 `json:"depth"`
	Temperature   *float64 `json:"temperature"`
	Salinity      *float64 `json:"salinity"`
	Oxygen        *float64 `json:"oxygen"`
	Chlorophyll   *float64 `json:"chlorophyll"`
	Nitrate       *float64 `json:"nitrate"`
	PH            *float64 `json:"ph"`
	TemperatureQC string   `json:"temperature_qc,omitempty"`
	SalinityQC    string   `json:"salinity_qc,omitempty"`
}

type TrajectoryPoint struct {
	FloatID        string    `json:"float_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	TrajectoryTime time.Time `json:"trajectory_time"`
	CycleNumber    *int      `json:"cycle_number,omitempty"`
}

// QueryLogEntry records one processed question, successful or not.
type QueryLogEntry struct {
	ID             string    `json:"id"`
	UserQuery      string    `json:"user_query"`
	ProcessedQuery string    `json:"processed_query,omitempty"`
	SQLQuery       string    `json:"sql_query,omitempty"`
	Response       string    `json:"response,omitempty"`
	ExecutionTime  float64   `json:"execution_time"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type GeoBounds struct {
	MinLat *float64 `json:"min_lat"`
	MaxLat *float64 `json:"max_lat"`
	MinLon *float64 `json:"min_lon"`
	MaxLon *float64 `json:"max_lon"`
}

type DateRange struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type DataSummary struct {
	TotalFloats       int64     `json:"total_floats"`
	TotalProfiles     int64     `json:"total_profiles"`
	TotalMeasurements int64     `json:"total_measurements"`
	GeographicBounds  GeoBounds `json:"geographic_bounds"`
	DateRange         DateRange `json:"date_range"`
}
