package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/storage/models"
	"github.com/floatchat/backend/pkg/logger"
)

func (c *Client) SaveFloat(ctx context.Context, f *models.Float) error {
	query := `
		INSERT INTO argo_floats (float_id, wmo_id, institution, data_mode, deployment_date, last_transmission, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(float_id) DO UPDATE SET
			last_transmission = excluded.last_transmission,
			status = excluded.status
	`

	status := f.Status
	if status == "" {
		status = "active"
	}
	dataMode := f.DataMode
	if dataMode == "" {
		dataMode = "R"
	}

	_, err := c.db.ExecContext(ctx, query, f.FloatID, f.WMOID, f.Institution, dataMode,
		optionalTime(f.DeploymentDate), optionalTime(f.LastTransmission), status)
	if err != nil {
		return fmt.Errorf("failed to save float: %w", err)
	}
	return nil
}

func (c *Client) SaveProfile(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO argo_profiles (float_id, cycle_number, latitude, longitude, profile_time,
			data_mode, position_qc, max_depth, min_depth, num_levels)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(float_id, cycle_number) DO NOTHING
	`

	_, err := c.db.ExecContext(ctx, query, p.FloatID, p.CycleNumber, p.Latitude, p.Longitude,
		p.ProfileTime.UTC().Format(timeLayout), nullString(p.DataMode), nullString(p.PositionQC),
		p.MaxDepth, p.MinDepth, p.NumLevels)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SaveMeasurements writes all levels of one or more profiles in a single
// transaction.
func (c *Client) SaveMeasurements(ctx context.Context, ms []models.Measurement) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO argo_measurements (float_id, cycle_number, pressure, depth, temperature, salinity,
			oxygen, chlorophyll, nitrate, ph, temperature_qc, salinity_qc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, m.FloatID, m.CycleNumber, m.Pressure, m.Depth, m.Temperature,
			m.Salinity, m.Oxygen, m.Chlorophyll, m.Nitrate, m.PH,
			nullString(m.TemperatureQC), nullString(m.SalinityQC)); err != nil {
			return fmt.Errorf("failed to insert measurement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit measurements: %w", err)
	}

	logger.Debug("Measurements saved", zap.Int("count", len(ms)))
	return nil
}

func (c *Client) SaveTrajectoryPoint(ctx context.Context, p *models.TrajectoryPoint) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO argo_trajectories (float_id, latitude, longitude, trajectory_time, cycle_number)
		VALUES (?, ?, ?, ?, ?)
	`, p.FloatID, p.Latitude, p.Longitude, p.TrajectoryTime.UTC().Format(timeLayout), p.CycleNumber)
	if err != nil {
		return fmt.Errorf("failed to save trajectory point: %w", err)
	}
	return nil
}

func optionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}
