package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/floatchat/backend/internal/storage/models"
)

func (c *Client) SaveFloat(ctx context.Context, f *models.Float) error {
	status := f.Status
	if status == "" {
		status = "active"
	}
	dataMode := f.DataMode
	if dataMode == "" {
		dataMode = "R"
	}

	_, err := c.pool.Exec(ctx, `
		INSERT INTO argo_floats (float_id, wmo_id, institution, data_mode, deployment_date, last_transmission, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (float_id) DO UPDATE SET
			last_transmission = EXCLUDED.last_transmission,
			status = EXCLUDED.status
	`, f.FloatID, f.WMOID, f.Institution, dataMode, f.DeploymentDate, f.LastTransmission, status)
	if err != nil {
		return fmt.Errorf("failed to save float: %w", err)
	}
	return nil
}

func (c *Client) SaveProfile(ctx context.Context, p *models.Profile) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO argo_profiles (float_id, cycle_number, latitude, longitude, profile_time,
			data_mode, position_qc, max_depth, min_depth, num_levels)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (float_id, cycle_number) DO NOTHING
	`, p.FloatID, p.CycleNumber, p.Latitude, p.Longitude, p.ProfileTime.UTC(),
		nullable(p.DataMode), nullable(p.PositionQC), p.MaxDepth, p.MinDepth, p.NumLevels)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SaveMeasurements sends every level in one batch inside a transaction.
func (c *Client) SaveMeasurements(ctx context.Context, ms []models.Measurement) error {
	return pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, m := range ms {
			batch.Queue(`
				INSERT INTO argo_measurements (float_id, cycle_number, pressure, depth, temperature, salinity,
					oxygen, chlorophyll, nitrate, ph, temperature_qc, salinity_qc)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			`, m.FloatID, m.CycleNumber, m.Pressure, m.Depth, m.Temperature, m.Salinity,
				m.Oxygen, m.Chlorophyll, m.Nitrate, m.PH, nullable(m.TemperatureQC), nullable(m.SalinityQC))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert measurements: %w", err)
		}
		return nil
	})
}

func (c *Client) SaveTrajectoryPoint(ctx context.Context, p *models.TrajectoryPoint) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO argo_trajectories (float_id, latitude, longitude, trajectory_time, cycle_number)
		VALUES ($1, $2, $3, $4, $5)
	`, p.FloatID, p.Latitude, p.Longitude, p.TrajectoryTime.UTC(), p.CycleNumber)
	if err != nil {
		return fmt.Errorf("failed to save trajectory point: %w", err)
	}
	return nil
}
