package query

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/metrics"
	"github.com/floatchat/backend/internal/vector/milvus"
	"github.com/floatchat/backend/pkg/logger"
	"github.com/floatchat/backend/pkg/utils"
)

const defaultSearchText = "ARGO ocean data"

const embeddingTTL = 24 * time.Hour

type VectorSearcher interface {
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]milvus.Hit, error)
	RowCount(ctx context.Context, collection string) (int64, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache is optional; a nil cache embeds every search text.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error
}

type RetrieverConfig struct {
	ProfilesCollection string
	FloatsCollection   string
	ProfileHits        int
	FloatHits          int
}

// Retriever gathers descriptive context for a question from the vector
// store. It is best effort: any failure yields no context.
type Retriever struct {
	searcher VectorSearcher
	embedder Embedder
	cache    EmbeddingCache
	cfg      RetrieverConfig
}

func NewRetriever(searcher VectorSearcher, embedder Embedder, cache EmbeddingCache, cfg RetrieverConfig) *Retriever {
	if cfg.ProfilesCollection == "" {
		cfg.ProfilesCollection = "argo_profiles"
	}
	if cfg.FloatsCollection == "" {
		cfg.FloatsCollection = "argo_floats"
	}
	if cfg.ProfileHits <= 0 {
		cfg.ProfileHits = 5
	}
	if cfg.FloatHits <= 0 {
		cfg.FloatHits = 3
	}
	return &Retriever{searcher: searcher, embedder: embedder, cache: cache, cfg: cfg}
}

// SearchText joins the parameters, region and intent of a reading.
func SearchText(q intent.ParsedQuery) string {
	var terms []string
	for _, p := range q.Parameters {
		terms = append(terms, string(p))
	}
	if q.Geo.Region != "" {
		terms = append(terms, q.Geo.Region)
	}
	if q.Intent != "" {
		terms = append(terms, string(q.Intent))
	}
	if len(terms) == 0 {
		return defaultSearchText
	}
	return strings.Join(terms, " ")
}

// Retrieve returns profile hits followed by float hits.
func (r *Retriever) Retrieve(ctx context.Context, q intent.ParsedQuery) []milvus.Hit {
	if r == nil || r.searcher == nil || r.embedder == nil {
		return []milvus.Hit{}
	}

	text := SearchText(q)
	embedding, err := r.embed(ctx, text)
	if err != nil {
		logger.Warn("Context retrieval skipped", zap.Error(err))
		return []milvus.Hit{}
	}

	hits := []milvus.Hit{}
	for _, target := range []struct {
		collection string
		topK       int
	}{
		{r.cfg.ProfilesCollection, r.cfg.ProfileHits},
		{r.cfg.FloatsCollection, r.cfg.FloatHits},
	} {
		found, err := r.searcher.Search(ctx, target.collection, embedding, target.topK)
		if err != nil {
			logger.Warn("Context retrieval failed", zap.String("collection", target.collection), zap.Error(err))
			return []milvus.Hit{}
		}
		metrics.RetrievalHits.WithLabelValues(target.collection).Observe(float64(len(found)))
		hits = append(hits, found...)
	}

	return hits
}

func (r *Retriever) embed(ctx context.Context, text string) ([]float32, error) {
	key := utils.QueryFingerprint(text)
	if r.cache != nil {
		if cached, ok, err := r.cache.GetEmbedding(ctx, key); err == nil && ok {
			return cached, nil
		}
	}

	embedding, err := r.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetEmbedding(ctx, key, embedding, embeddingTTL); err != nil {
			logger.Debug("Failed to cache embedding", zap.Error(err))
		}
	}
	return embedding, nil
}

// CollectionStats maps each collection to its row count. Unreadable
// collections are left out.
func (r *Retriever) CollectionStats(ctx context.Context) map[string]int64 {
	stats := map[string]int64{}
	if r == nil || r.searcher == nil {
		return stats
	}
	for _, name := range []string{r.cfg.ProfilesCollection, r.cfg.FloatsCollection} {
		n, err := r.searcher.RowCount(ctx, name)
		if err != nil {
			logger.Warn("Failed to read collection statistics", zap.String("collection", name), zap.Error(err))
			continue
		}
		stats[name] = n
	}
	return stats
}
