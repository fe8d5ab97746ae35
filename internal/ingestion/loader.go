package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/storage/models"
	"github.com/floatchat/backend/pkg/logger"
)

// Writer is the write side of a data store.
type Writer interface {
	SaveFloat(ctx context.Context, f *models.Float) error
	SaveProfile(ctx context.Context, p *models.Profile) error
	SaveMeasurements(ctx context.Context, ms []models.Measurement) error
	SaveTrajectoryPoint(ctx context.Context, p *models.TrajectoryPoint) error
}

// Batch is a JSON document of already-decoded ARGO records.
type Batch struct {
	Floats       []models.Float           `json:"floats"`
	Profiles     []models.Profile         `json:"profiles"`
	Measurements []models.Measurement     `json:"measurements"`
	Trajectories []models.TrajectoryPoint `json:"trajectories"`
}

type LoadStats struct {
	Floats       int `json:"floats"`
	Profiles     int `json:"profiles"`
	Measurements int `json:"measurements"`
	Trajectories int `json:"trajectories"`
}

func ReadBatch(r io.Reader) (*Batch, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var b Batch
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Batch) Validate() error {
	for i, f := range b.Floats {
		if f.FloatID == "" {
			return fmt.Errorf("float %d has no float_id", i)
		}
	}
	for i, p := range b.Profiles {
		if p.FloatID == "" {
			return fmt.Errorf("profile %d has no float_id", i)
		}
		if err := checkPosition(p.Latitude, p.Longitude); err != nil {
			return fmt.Errorf("profile %s/%d: %w", p.FloatID, p.CycleNumber, err)
		}
		if p.ProfileTime.IsZero() {
			return fmt.Errorf("profile %s/%d has no profile_time", p.FloatID, p.CycleNumber)
		}
	}
	for i, m := range b.Measurements {
		if m.FloatID == "" {
			return fmt.Errorf("measurement %d has no float_id", i)
		}
	}
	for i, t := range b.Trajectories {
		if err := checkPosition(t.Latitude, t.Longitude); err != nil {
			return fmt.Errorf("trajectory point %d: %w", i, err)
		}
	}
	return nil
}

func checkPosition(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range", lon)
	}
	return nil
}

// Load writes floats before the profiles that reference them.
func Load(ctx context.Context, w Writer, b *Batch) (*LoadStats, error) {
	stats := &LoadStats{}

	for i := range b.Floats {
		if err := w.SaveFloat(ctx, &b.Floats[i]); err != nil {
			return stats, fmt.Errorf("failed to save float %s: %w", b.Floats[i].FloatID, err)
		}
		stats.Floats++
	}

	for i := range b.Profiles {
		if err := w.SaveProfile(ctx, &b.Profiles[i]); err != nil {
			return stats, fmt.Errorf("failed to save profile %s/%d: %w", b.Profiles[i].FloatID, b.Profiles[i].CycleNumber, err)
		}
		stats.Profiles++
	}

	if len(b.Measurements) > 0 {
		if err := w.SaveMeasurements(ctx, b.Measurements); err != nil {
			return stats, fmt.Errorf("failed to save measurements: %w", err)
		}
		stats.Measurements = len(b.Measurements)
	}

	for i := range b.Trajectories {
		if err := w.SaveTrajectoryPoint(ctx, &b.Trajectories[i]); err != nil {
			return stats, fmt.Errorf("failed to save trajectory point %d: %w", i, err)
		}
		stats.Trajectories++
	}

	logger.Info("Batch loaded",
		zap.Int("floats", stats.Floats),
		zap.Int("profiles", stats.Profiles),
		zap.Int("measurements", stats.Measurements),
		zap.Int("trajectories", stats.Trajectories),
	)

	return stats, nil
}
