// Package bootstrap assembles the query engine and its collaborators from
// configuration. Every surface (HTTP, CLI, MCP) starts from New.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/argo"
	rediscache "github.com/floatchat/backend/internal/cache/redis"
	"github.com/floatchat/backend/internal/ingestion"
	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/llm"
	"github.com/floatchat/backend/internal/query"
	"github.com/floatchat/backend/internal/response"
	"github.com/floatchat/backend/internal/sqlgen"
	"github.com/floatchat/backend/internal/storage/postgres"
	"github.com/floatchat/backend/internal/storage/sqlite"
	"github.com/floatchat/backend/internal/vector/milvus"
	"github.com/floatchat/backend/pkg/config"
	"github.com/floatchat/backend/pkg/logger"
)

var ErrVectorDisabled = errors.New("vector store is not configured")

// Store is what both storage drivers provide.
type Store interface {
	query.DataStore
	ingestion.Writer
	GetFloatTrajectory(ctx context.Context, floatID string) (*argo.Result, error)
	GetMeasurementsByProfile(ctx context.Context, floatID string, cycle int) (*argo.Result, error)
	Ping(ctx context.Context) error
	InitSchema(ctx context.Context) error
	Close() error
}

type App struct {
	Config    *config.Config
	Store     Store
	Oracle    llm.Oracle
	Processor *intent.Processor
	Engine    *query.Engine

	vectors  *milvus.Client
	embedder query.Embedder
	closers  []func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.closers = append(app.closers, store.Close)

	if err := store.InitSchema(ctx); err != nil {
		app.Close()
		return nil, err
	}

	oracle, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create llm oracle: %w", err)
	}
	app.Oracle = oracle

	// A nil *llm.Client must not become a non-nil interface.
	if e := llm.NewEmbedder(cfg.LLM); e != nil {
		app.embedder = e
	}

	var stats query.StatsRecorder
	var cache query.EmbeddingCache
	if cfg.Redis.Enabled {
		rc, err := rediscache.NewClient(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, query counters and embedding cache disabled", zap.Error(err))
		} else {
			app.closers = append(app.closers, rc.Close)
			stats, cache = rc, rc
		}
	}

	var retriever *query.Retriever
	if cfg.Vector.Enabled {
		vc, err := milvus.NewClient(ctx, cfg.Vector.Endpoint, cfg.Vector.APIKey, cfg.Vector.VectorDim)
		if err != nil {
			logger.Warn("Vector store unavailable, answers will carry no context", zap.Error(err))
		} else {
			app.vectors = vc
			app.closers = append(app.closers, vc.Close)
			for _, name := range []string{cfg.Vector.ProfilesCollection, cfg.Vector.FloatsCollection} {
				if err := vc.EnsureCollection(ctx, name); err != nil {
					logger.Warn("Failed to prepare vector collection", zap.String("collection", name), zap.Error(err))
				}
			}
			if app.embedder == nil {
				logger.Warn("No embedding key configured, context retrieval disabled")
			} else {
				retriever = query.NewRetriever(vc, app.embedder, cache, query.RetrieverConfig{
					ProfilesCollection: cfg.Vector.ProfilesCollection,
					FloatsCollection:   cfg.Vector.FloatsCollection,
					ProfileHits:        cfg.Vector.ProfileHits,
					FloatHits:          cfg.Vector.FloatHits,
				})
			}
		}
	}

	app.Processor = intent.NewProcessor(intent.NewClassifier(), oracle, cfg.Pipeline.ConfidenceThreshold)
	app.Engine = query.NewEngine(query.Components{
		Store:       store,
		Processor:   app.Processor,
		Synthesizer: sqlgen.NewSynthesizer(cfg.Pipeline.MeasurementLimit, cfg.Pipeline.RowLimit),
		Executor:    query.NewExecutor(store, cfg.Pipeline.MeasurementLimit, cfg.Pipeline.RowLimit),
		Responder:   response.NewGenerator(oracle),
		Retriever:   retriever,
		Stats:       stats,
	})

	logger.Info("Query engine ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("oracle", oracle.Name()),
		zap.Bool("retrieval", retriever != nil),
		zap.Bool("counters", stats != nil),
	)

	return app, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		c, err := postgres.NewClient(ctx, postgres.Config{
			URL:      cfg.Postgres.URL,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres client: %w", err)
		}
		return c, nil
	case "sqlite":
		c, err := sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Indexer loads store descriptions into the vector store. It needs both a
// vector store and an embedding key.
func (a *App) Indexer() (*ingestion.Indexer, error) {
	if a.vectors == nil || a.embedder == nil {
		return nil, ErrVectorDisabled
	}
	return ingestion.NewIndexer(a.Store, a.embedder, a.vectors, ingestion.Config{
		ProfilesCollection: a.Config.Vector.ProfilesCollection,
		FloatsCollection:   a.Config.Vector.FloatsCollection,
	}), nil
}

// Close releases everything New opened, last opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
