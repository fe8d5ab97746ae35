// Package postgres is the PostgreSQL data store. It runs the same argosql
// statements as the SQLite store with $n placeholders.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/storage/argosql"
	"github.com/floatchat/backend/internal/storage/models"
	"github.com/floatchat/backend/pkg/logger"
)

type Config struct {
	URL      string
	MaxConns int32
	MinConns int32
}

type Client struct {
	pool *pgxpool.Pool
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("PostgreSQL client initialized", zap.Int32("max_conns", poolConfig.MaxConns))

	return &Client{pool: pool}, nil
}

func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("PostgreSQL schema initialized")
	return nil
}

func (c *Client) CountMeasurements(ctx context.Context, crit argo.Criteria) (int64, error) {
	return c.count(ctx, argosql.CountMeasurements(argosql.Postgres, crit))
}

func (c *Client) CountFloats(ctx context.Context, crit argo.Criteria) (int64, error) {
	return c.count(ctx, argosql.CountFloats(argosql.Postgres, crit))
}

func (c *Client) CountProfiles(ctx context.Context, crit argo.Criteria) (int64, error) {
	return c.count(ctx, argosql.CountProfiles(argosql.Postgres, crit))
}

func (c *Client) GetMeasurementsForAnalysis(ctx context.Context, param argo.Parameter, crit argo.Criteria, limit int) (*argo.Result, error) {
	return c.query(ctx, argosql.MeasurementsForAnalysis(argosql.Postgres, param, crit, limit))
}

func (c *Client) GetProfilesByParameter(ctx context.Context, param argo.Parameter, crit argo.Criteria, limit int) (*argo.Result, error) {
	return c.query(ctx, argosql.ProfilesByParameter(argosql.Postgres, param, crit, limit))
}

func (c *Client) GetFloatsByRegion(ctx context.Context, minLat, maxLat, minLon, maxLon float64) (*argo.Result, error) {
	return c.query(ctx, argosql.FloatsByRegion(argosql.Postgres, minLat, maxLat, minLon, maxLon))
}

func (c *Client) GetTrajectories(ctx context.Context, crit argo.Criteria, limit int) (*argo.Result, error) {
	return c.query(ctx, argosql.Trajectories(argosql.Postgres, crit, limit))
}

func (c *Client) GetFloatTrajectory(ctx context.Context, floatID string) (*argo.Result, error) {
	return c.query(ctx, argosql.FloatTrajectory(argosql.Postgres, floatID))
}

func (c *Client) GetMeasurementsByProfile(ctx context.Context, floatID string, cycle int) (*argo.Result, error) {
	return c.query(ctx, argosql.ProfileMeasurements(argosql.Postgres, floatID, cycle))
}

// count and query each hold one pooled connection for the duration of the
// call and release it on every path.
func (c *Client) count(ctx context.Context, stmt argosql.Statement) (int64, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var n int64
	if err := conn.QueryRow(ctx, stmt.SQL, stmt.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func (c *Client) query(ctx context.Context, stmt argosql.Statement) (*argo.Result, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := &argo.Result{Columns: make([]string, len(fields)), Rows: []argo.Row{}}
	for i, fd := range fields {
		result.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		row := make(argo.Row, len(values))
		for i, col := range result.Columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	logger.Debug("PostgreSQL query executed", zap.Int("rows", result.Len()))
	return result, nil
}

func (c *Client) LogQuery(ctx context.Context, entry *models.QueryLogEntry) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO query_logs (id, user_query, processed_query, sql_query, response,
			execution_time, success, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID,
		entry.UserQuery,
		nullable(entry.ProcessedQuery),
		nullable(entry.SQLQuery),
		nullable(entry.Response),
		entry.ExecutionTime,
		entry.Success,
		nullable(entry.ErrorMessage),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}
	return nil
}

func (c *Client) RecentQueries(ctx context.Context, limit int) ([]models.QueryLogEntry, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, user_query, COALESCE(processed_query, ''), COALESCE(sql_query, ''),
			COALESCE(response, ''), COALESCE(execution_time, 0), success,
			COALESCE(error_message, ''), created_at
		FROM query_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.QueryLogEntry, error) {
		var e models.QueryLogEntry
		err := row.Scan(&e.ID, &e.UserQuery, &e.ProcessedQuery, &e.SQLQuery, &e.Response,
			&e.ExecutionTime, &e.Success, &e.ErrorMessage, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan query history: %w", err)
	}
	return entries, nil
}

func (c *Client) GetDataSummary(ctx context.Context) (*models.DataSummary, error) {
	var s models.DataSummary
	err := c.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM argo_floats),
			(SELECT COUNT(*) FROM argo_profiles),
			(SELECT COUNT(*) FROM argo_measurements),
			MIN(latitude), MAX(latitude), MIN(longitude), MAX(longitude),
			MIN(profile_time), MAX(profile_time)
		FROM argo_profiles
	`).Scan(
		&s.TotalFloats, &s.TotalProfiles, &s.TotalMeasurements,
		&s.GeographicBounds.MinLat, &s.GeographicBounds.MaxLat,
		&s.GeographicBounds.MinLon, &s.GeographicBounds.MaxLon,
		&s.DateRange.StartDate, &s.DateRange.EndDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get data summary: %w", err)
	}
	return &s, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
