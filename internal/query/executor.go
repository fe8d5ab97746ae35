package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/metrics"
	"github.com/floatchat/backend/internal/sqlgen"
	"github.com/floatchat/backend/internal/storage/models"
)

// DataStore is the typed access the pipeline needs from a backing database.
type DataStore interface {
	CountMeasurements(ctx context.Context, c argo.Criteria) (int64, error)
	CountFloats(ctx context.Context, c argo.Criteria) (int64, error)
	CountProfiles(ctx context.Context, c argo.Criteria) (int64, error)
	GetMeasurementsForAnalysis(ctx context.Context, param argo.Parameter, c argo.Criteria, limit int) (*argo.Result, error)
	GetProfilesByParameter(ctx context.Context, param argo.Parameter, c argo.Criteria, limit int) (*argo.Result, error)
	GetFloatsByRegion(ctx context.Context, minLat, maxLat, minLon, maxLon float64) (*argo.Result, error)
	GetTrajectories(ctx context.Context, c argo.Criteria, limit int) (*argo.Result, error)
	LogQuery(ctx context.Context, entry *models.QueryLogEntry) error
	GetDataSummary(ctx context.Context) (*models.DataSummary, error)
	RecentQueries(ctx context.Context, limit int) ([]models.QueryLogEntry, error)
}

var (
	// Words in the question that ask for raw measurement rows rather than a
	// profile listing.
	measurementWords = []string{"measurement", "measurements", "data", "plot", "graph", "chart", "time series"}
	// The catch-all intents also take the measurement path on these.
	fallbackMeasurementWords = append(append([]string{}, measurementWords...), "show", "create", "temperature", "salinity")
)

// Executor runs a parsed question through the store's typed accessors. The
// synthesized SQL is never executed.
type Executor struct {
	store            DataStore
	measurementLimit int
	rowLimit         int
}

func NewExecutor(store DataStore, measurementLimit, rowLimit int) *Executor {
	if measurementLimit <= 0 {
		measurementLimit = sqlgen.DefaultMeasurementLimit
	}
	if rowLimit <= 0 {
		rowLimit = sqlgen.DefaultRowLimit
	}
	return &Executor{store: store, measurementLimit: measurementLimit, rowLimit: rowLimit}
}

func (e *Executor) Execute(ctx context.Context, q intent.ParsedQuery) (*argo.Result, error) {
	crit := q.Criteria()
	text := strings.ToLower(q.OriginalText)

	switch q.Intent {
	case intent.MeasurementCount:
		return e.count(ctx, "measurement_count", crit, e.store.CountMeasurements)
	case intent.FloatCount:
		return e.count(ctx, "float_count", crit, e.store.CountFloats)
	case intent.ProfileCount:
		return e.count(ctx, "profile_count", crit, e.store.CountProfiles)

	case intent.MeasurementAnalysis:
		return e.measurements(ctx, q, crit)

	case intent.ProfileAnalysis:
		if containsAny(text, measurementWords) {
			return e.measurements(ctx, q, crit)
		}
		return e.profiles(ctx, q, crit)

	case intent.TrajectoryAnalysis:
		res, err := e.store.GetTrajectories(ctx, crit, e.rowLimit)
		return res, storeErr("get_trajectories", err)

	case intent.FloatSearch:
		if !q.Geo.HasLatitude() {
			return &argo.Result{Rows: []argo.Row{}}, nil
		}
		minLon, maxLon := -180.0, 180.0
		if q.Geo.HasLongitude() {
			minLon, maxLon = *q.Geo.MinLon, *q.Geo.MaxLon
		}
		res, err := e.store.GetFloatsByRegion(ctx, *q.Geo.MinLat, *q.Geo.MaxLat, minLon, maxLon)
		return res, storeErr("get_floats_by_region", err)

	default:
		if containsAny(text, fallbackMeasurementWords) {
			return e.measurements(ctx, q, crit)
		}
		return e.profiles(ctx, q, crit)
	}
}

func (e *Executor) count(ctx context.Context, column string, crit argo.Criteria,
	fn func(context.Context, argo.Criteria) (int64, error)) (*argo.Result, error) {
	n, err := fn(ctx, crit)
	if err != nil {
		return nil, storeErr(column, err)
	}
	return argo.Scalar(column, n), nil
}

func (e *Executor) measurements(ctx context.Context, q intent.ParsedQuery, crit argo.Criteria) (*argo.Result, error) {
	res, err := e.store.GetMeasurementsForAnalysis(ctx, q.PrimaryParameter(), crit, e.measurementLimit)
	return res, storeErr("get_measurements_for_analysis", err)
}

func (e *Executor) profiles(ctx context.Context, q intent.ParsedQuery, crit argo.Criteria) (*argo.Result, error) {
	res, err := e.store.GetProfilesByParameter(ctx, q.PrimaryParameter(), crit, e.rowLimit)
	return res, storeErr("get_profiles_by_parameter", err)
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	metrics.StoreErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%s: %w", op, err)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
