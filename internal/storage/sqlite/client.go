package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/storage/argosql"
	"github.com/floatchat/backend/internal/storage/models"
	"github.com/floatchat/backend/pkg/logger"
)

// timeLayout keeps stored timestamps in UTC at second precision so that
// text comparison orders them chronologically.
const timeLayout = "2006-01-02T15:04:05Z"

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) CountMeasurements(ctx context.Context, crit argo.Criteria) (int64, error) {
	return c.count(ctx, argosql.CountMeasurements(argosql.SQLite, crit))
}

func (c *Client) CountFloats(ctx context.Context, crit argo.Criteria) (int64, error) {
	return c.count(ctx, argosql.CountFloats(argosql.SQLite, crit))
}

func (c *Client) CountProfiles(ctx context.Context, crit argo.Criteria) (int64, error) {
	return c.count(ctx, argosql.CountProfiles(argosql.SQLite, crit))
}

func (c *Client) GetMeasurementsForAnalysis(ctx context.Context, param argo.Parameter, crit argo.Criteria, limit int) (*argo.Result, error) {
	return c.query(ctx, argosql.MeasurementsForAnalysis(argosql.SQLite, param, crit, limit))
}

func (c *Client) GetProfilesByParameter(ctx context.Context, param argo.Parameter, crit argo.Criteria, limit int) (*argo.Result, error) {
	return c.query(ctx, argosql.ProfilesByParameter(argosql.SQLite, param, crit, limit))
}

func (c *Client) GetFloatsByRegion(ctx context.Context, minLat, maxLat, minLon, maxLon float64) (*argo.Result, error) {
	return c.query(ctx, argosql.FloatsByRegion(argosql.SQLite, minLat, maxLat, minLon, maxLon))
}

func (c *Client) GetTrajectories(ctx context.Context, crit argo.Criteria, limit int) (*argo.Result, error) {
	return c.query(ctx, argosql.Trajectories(argosql.SQLite, crit, limit))
}

func (c *Client) GetFloatTrajectory(ctx context.Context, floatID string) (*argo.Result, error) {
	return c.query(ctx, argosql.FloatTrajectory(argosql.SQLite, floatID))
}

func (c *Client) GetMeasurementsByProfile(ctx context.Context, floatID string, cycle int) (*argo.Result, error) {
	return c.query(ctx, argosql.ProfileMeasurements(argosql.SQLite, floatID, cycle))
}

func (c *Client) count(ctx context.Context, stmt argosql.Statement) (int64, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	var n int64
	if err := conn.QueryRowContext(ctx, stmt.SQL, bindArgs(stmt.Args)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func (c *Client) query(ctx context.Context, stmt argosql.Statement) (*argo.Result, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, stmt.SQL, bindArgs(stmt.Args)...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	result, err := scanResult(rows)
	if err != nil {
		return nil, err
	}

	logger.Debug("SQLite query executed", zap.Int("rows", result.Len()))
	return result, nil
}

func (c *Client) LogQuery(ctx context.Context, entry *models.QueryLogEntry) error {
	query := `
		INSERT INTO query_logs (id, user_query, processed_query, sql_query, response,
			execution_time, success, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	success := 0
	if entry.Success {
		success = 1
	}

	_, err := c.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserQuery,
		nullString(entry.ProcessedQuery),
		nullString(entry.SQLQuery),
		nullString(entry.Response),
		entry.ExecutionTime,
		success,
		nullString(entry.ErrorMessage),
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}

	return nil
}

func (c *Client) RecentQueries(ctx context.Context, limit int) ([]models.QueryLogEntry, error) {
	query := `
		SELECT id, user_query, processed_query, sql_query, response, execution_time,
			success, error_message, created_at
		FROM query_logs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	var entries []models.QueryLogEntry
	for rows.Next() {
		var (
			e                                      models.QueryLogEntry
			processed, sqlText, response, errorMsg sql.NullString
			execTime                               sql.NullFloat64
			success                                int
			createdAt                              any
		)
		if err := rows.Scan(&e.ID, &e.UserQuery, &processed, &sqlText, &response, &execTime,
			&success, &errorMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		e.ProcessedQuery = processed.String
		e.SQLQuery = sqlText.String
		e.Response = response.String
		e.ErrorMessage = errorMsg.String
		e.ExecutionTime = execTime.Float64
		e.Success = success == 1
		if ts, ok := asTime(createdAt); ok {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (c *Client) GetDataSummary(ctx context.Context) (*models.DataSummary, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	var summary models.DataSummary

	counts := []struct {
		table string
		dest  *int64
	}{
		{"argo_floats", &summary.TotalFloats},
		{"argo_profiles", &summary.TotalProfiles},
		{"argo_measurements", &summary.TotalMeasurements},
	}
	for _, cnt := range counts {
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+cnt.table).Scan(cnt.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", cnt.table, err)
		}
	}

	var minLat, maxLat, minLon, maxLon sql.NullFloat64
	err = conn.QueryRowContext(ctx,
		`SELECT MIN(latitude), MAX(latitude), MIN(longitude), MAX(longitude) FROM argo_profiles`,
	).Scan(&minLat, &maxLat, &minLon, &maxLon)
	if err != nil {
		return nil, fmt.Errorf("failed to read geographic bounds: %w", err)
	}
	summary.GeographicBounds = models.GeoBounds{
		MinLat: nullFloat(minLat), MaxLat: nullFloat(maxLat),
		MinLon: nullFloat(minLon), MaxLon: nullFloat(maxLon),
	}

	var start, end sql.NullString
	err = conn.QueryRowContext(ctx, `SELECT MIN(profile_time), MAX(profile_time) FROM argo_profiles`).Scan(&start, &end)
	if err != nil {
		return nil, fmt.Errorf("failed to read date range: %w", err)
	}
	summary.DateRange = models.DateRange{StartDate: parseStored(start), EndDate: parseStored(end)}

	return &summary, nil
}

func bindArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if t, ok := a.(time.Time); ok {
			out[i] = t.UTC().Format(timeLayout)
			continue
		}
		out[i] = a
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func parseStored(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	if t, ok := asTime(s.String); ok {
		return &t
	}
	return nil
}
