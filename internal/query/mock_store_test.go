package query

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/storage/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CountMeasurements(ctx context.Context, c argo.Criteria) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) CountFloats(ctx context.Context, c argo.Criteria) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) CountProfiles(ctx context.Context, c argo.Criteria) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) GetMeasurementsForAnalysis(ctx context.Context, p argo.Parameter, c argo.Criteria, limit int) (*argo.Result, error) {
	args := m.Called(ctx, p, c, limit)
	return asResult(args.Get(0)), args.Error(1)
}

func (m *mockStore) GetProfilesByParameter(ctx context.Context, p argo.Parameter, c argo.Criteria, limit int) (*argo.Result, error) {
	args := m.Called(ctx, p, c, limit)
	return asResult(args.Get(0)), args.Error(1)
}

func (m *mockStore) GetFloatsByRegion(ctx context.Context, minLat, maxLat, minLon, maxLon float64) (*argo.Result, error) {
	args := m.Called(ctx, minLat, maxLat, minLon, maxLon)
	return asResult(args.Get(0)), args.Error(1)
}

func (m *mockStore) GetTrajectories(ctx context.Context, c argo.Criteria, limit int) (*argo.Result, error) {
	args := m.Called(ctx, c, limit)
	return asResult(args.Get(0)), args.Error(1)
}

func (m *mockStore) LogQuery(ctx context.Context, entry *models.QueryLogEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockStore) GetDataSummary(ctx context.Context) (*models.DataSummary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.DataSummary)
	return s, args.Error(1)
}

func (m *mockStore) RecentQueries(ctx context.Context, limit int) ([]models.QueryLogEntry, error) {
	args := m.Called(ctx, limit)
	entries, _ := args.Get(0).([]models.QueryLogEntry)
	return entries, args.Error(1)
}

func asResult(v any) *argo.Result {
	r, _ := v.(*argo.Result)
	return r
}

func rows(n int) *argo.Result {
	res := &argo.Result{Columns: []string{"float_id", "cycle_number"}, Rows: []argo.Row{}}
	for i := 0; i < n; i++ {
		res.Rows = append(res.Rows, argo.Row{"float_id": "2902746", "cycle_number": int64(i + 1)})
	}
	return res
}
