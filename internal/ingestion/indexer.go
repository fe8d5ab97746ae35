// Package ingestion describes stored profiles and floats in plain text and
// loads the embedded descriptions into the vector store used for context
// retrieval.
package ingestion

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/gazetteer"
	"github.com/floatchat/backend/internal/vector/milvus"
	"github.com/floatchat/backend/pkg/logger"
)

// Source is the part of a data store the indexer reads.
type Source interface {
	GetProfilesByParameter(ctx context.Context, param argo.Parameter, crit argo.Criteria, limit int) (*argo.Result, error)
	GetFloatsByRegion(ctx context.Context, minLat, maxLat, minLon, maxLon float64) (*argo.Result, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type VectorWriter interface {
	EnsureCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, docs []milvus.Document) error
}

type Config struct {
	ProfilesCollection string
	FloatsCollection   string
	// ProfileLimit caps the profiles read per parameter.
	ProfileLimit int
	BatchSize    int
}

type Stats struct {
	Profiles int `json:"profiles"`
	Floats   int `json:"floats"`
	Skipped  int `json:"skipped"`
}

type Indexer struct {
	source   Source
	embedder Embedder
	vectors  VectorWriter
	cfg      Config
}

func NewIndexer(source Source, embedder Embedder, vectors VectorWriter, cfg Config) *Indexer {
	if cfg.ProfilesCollection == "" {
		cfg.ProfilesCollection = "argo_profiles"
	}
	if cfg.FloatsCollection == "" {
		cfg.FloatsCollection = "argo_floats"
	}
	if cfg.ProfileLimit <= 0 {
		cfg.ProfileLimit = 5000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Indexer{source: source, embedder: embedder, vectors: vectors, cfg: cfg}
}

// Run writes a document per stored profile and float, replacing earlier
// copies with the same ID. A description that fails
// to embed is skipped; store and vector write failures abort.
func (ix *Indexer) Run(ctx context.Context) (*Stats, error) {
	logger.Info("Indexing ARGO descriptions",
		zap.String("profiles_collection", ix.cfg.ProfilesCollection),
		zap.String("floats_collection", ix.cfg.FloatsCollection),
	)

	profiles, err := ix.collectProfiles(ctx)
	if err != nil {
		return nil, err
	}
	floats, err := ix.collectFloats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}

	n, skipped, err := ix.load(ctx, ix.cfg.ProfilesCollection, profileDocuments(profiles))
	if err != nil {
		return nil, err
	}
	stats.Profiles, stats.Skipped = n, skipped

	n, skipped, err = ix.load(ctx, ix.cfg.FloatsCollection, floatDocuments(floats))
	if err != nil {
		return nil, err
	}
	stats.Floats, stats.Skipped = n, stats.Skipped+skipped

	logger.Info("Indexing completed",
		zap.Int("profiles", stats.Profiles),
		zap.Int("floats", stats.Floats),
		zap.Int("skipped", stats.Skipped),
	)

	return stats, nil
}

func (ix *Indexer) collectProfiles(ctx context.Context) ([]profileInfo, error) {
	byKey := make(map[string]*profileInfo)
	var order []string

	for _, param := range argo.Parameters {
		result, err := ix.source.GetProfilesByParameter(ctx, param, argo.Criteria{}, ix.cfg.ProfileLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s profiles: %w", param, err)
		}

		for _, row := range result.Rows {
			p := readProfile(row)
			key := p.key()
			if existing, ok := byKey[key]; ok {
				existing.Parameters = append(existing.Parameters, string(param))
				continue
			}
			p.Parameters = []string{string(param)}
			byKey[key] = &p
			order = append(order, key)
		}
	}

	out := make([]profileInfo, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out, nil
}

func (ix *Indexer) collectFloats(ctx context.Context) ([]floatInfo, error) {
	result, err := ix.source.GetFloatsByRegion(ctx, -90, 90, -180, 180)
	if err != nil {
		return nil, fmt.Errorf("failed to read floats: %w", err)
	}

	byID := make(map[string]*floatInfo)
	var order []string

	// Rows are newest first, so the first row per float is its latest fix.
	for _, row := range result.Rows {
		f := readFloat(row)
		if existing, ok := byID[f.FloatID]; ok {
			existing.Profiles++
			continue
		}
		f.Profiles = 1
		byID[f.FloatID] = &f
		order = append(order, f.FloatID)
	}

	sort.Strings(order)
	out := make([]floatInfo, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

type pending struct {
	id      string
	floatID string
	text    string
}

func (ix *Indexer) load(ctx context.Context, collection string, docs []pending) (int, int, error) {
	if err := ix.vectors.EnsureCollection(ctx, collection); err != nil {
		return 0, 0, fmt.Errorf("failed to prepare collection %s: %w", collection, err)
	}

	var (
		batch   []milvus.Document
		written int
		skipped int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ix.vectors.Upsert(ctx, collection, batch); err != nil {
			return fmt.Errorf("failed to write to %s: %w", collection, err)
		}
		written += len(batch)
		batch = nil
		return nil
	}

	for _, d := range docs {
		embedding, err := ix.embedder.GenerateEmbedding(ctx, d.text)
		if err != nil {
			if ctx.Err() != nil {
				return written, skipped, ctx.Err()
			}
			logger.Warn("Failed to embed description", zap.String("id", d.id), zap.Error(err))
			skipped++
			continue
		}

		batch = append(batch, milvus.Document{ID: d.id, FloatID: d.floatID, Text: d.text, Embedding: embedding})
		if len(batch) >= ix.cfg.BatchSize {
			if err := flush(); err != nil {
				return written, skipped, err
			}
		}
	}

	if err := flush(); err != nil {
		return written, skipped, err
	}
	return written, skipped, nil
}

type profileInfo struct {
	FloatID     string
	CycleNumber int64
	Latitude    float64
	Longitude   float64
	ProfileTime time.Time
	MaxDepth    *float64
	NumLevels   *int64
	Parameters  []string
}

func (p profileInfo) key() string {
	return fmt.Sprintf("%s_%d", p.FloatID, p.CycleNumber)
}

type floatInfo struct {
	FloatID     string
	WMOID       string
	Institution string
	Status      string
	Latitude    float64
	Longitude   float64
	LastSeen    time.Time
	Profiles    int
}

func readProfile(row argo.Row) profileInfo {
	p := profileInfo{
		FloatID:   asString(row["float_id"]),
		Latitude:  asFloat(row["latitude"]),
		Longitude: asFloat(row["longitude"]),
	}
	p.CycleNumber, _ = asInt(row["cycle_number"])
	p.ProfileTime, _ = asTime(row["profile_time"])
	if v, ok := row["max_depth"]; ok && v != nil {
		d := asFloat(v)
		p.MaxDepth = &d
	}
	if n, ok := asInt(row["num_levels"]); ok {
		p.NumLevels = &n
	}
	return p
}

func readFloat(row argo.Row) floatInfo {
	f := floatInfo{
		FloatID:     asString(row["float_id"]),
		WMOID:       asString(row["wmo_id"]),
		Institution: asString(row["institution"]),
		Status:      asString(row["status"]),
		Latitude:    asFloat(row["latitude"]),
		Longitude:   asFloat(row["longitude"]),
	}
	f.LastSeen, _ = asTime(row["profile_time"])
	return f
}

func profileDocuments(profiles []profileInfo) []pending {
	docs := make([]pending, 0, len(profiles))
	for _, p := range profiles {
		docs = append(docs, pending{id: p.key(), floatID: p.FloatID, text: describeProfile(p)})
	}
	return docs
}

func floatDocuments(floats []floatInfo) []pending {
	docs := make([]pending, 0, len(floats))
	for _, f := range floats {
		docs = append(docs, pending{id: f.FloatID, floatID: f.FloatID, text: describeFloat(f)})
	}
	return docs
}

func describeProfile(p profileInfo) string {
	parts := []string{
		"ARGO float " + p.FloatID,
		fmt.Sprintf("Cycle number %d", p.CycleNumber),
		"Located at " + position(p.Latitude, p.Longitude),
	}
	if !p.ProfileTime.IsZero() {
		parts = append(parts, "Profile collected on "+p.ProfileTime.UTC().Format("2006-01-02"))
	}
	if p.MaxDepth != nil {
		parts = append(parts, fmt.Sprintf("Maximum depth %.0f meters", *p.MaxDepth))
	}
	if p.NumLevels != nil {
		parts = append(parts, fmt.Sprintf("%d measurement levels", *p.NumLevels))
	}
	if len(p.Parameters) > 0 {
		parts = append(parts, "Parameters measured: "+strings.Join(p.Parameters, ", "))
	}
	return strings.Join(parts, ". ") + "."
}

func describeFloat(f floatInfo) string {
	wmo := f.WMOID
	if wmo == "" {
		wmo = "unknown"
	}
	parts := []string{"ARGO float " + f.FloatID, "WMO ID " + wmo}
	if f.Institution != "" {
		parts = append(parts, "Deployed by "+f.Institution)
	}
	if f.Status != "" {
		parts = append(parts, "Status: "+f.Status)
	}
	parts = append(parts, "Last seen at "+position(f.Latitude, f.Longitude))
	if !f.LastSeen.IsZero() {
		parts = append(parts, "Last profile on "+f.LastSeen.UTC().Format("2006-01-02"))
	}
	parts = append(parts, fmt.Sprintf("Has collected %d profiles", f.Profiles))
	return strings.Join(parts, ". ") + "."
}

func position(lat, lon float64) string {
	where := fmt.Sprintf("%.2f°N, %.2f°E", lat, lon)
	if region, ok := gazetteer.Locate(lat, lon); ok {
		where += " in the " + region.Name
	}
	return where
}
