package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/floatchat/backend/internal/argo"
	"github.com/floatchat/backend/internal/intent"
	"github.com/floatchat/backend/internal/vector/milvus"
)

type fakeSearcher struct {
	hits      map[string][]milvus.Hit
	rowCounts map[string]int64
	err       error
	topK      map[string]int
}

func (f *fakeSearcher) Search(_ context.Context, collection string, embedding []float32, topK int) ([]milvus.Hit, error) {
	if f.topK == nil {
		f.topK = map[string]int{}
	}
	f.topK[collection] = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.hits[collection], nil
}

func (f *fakeSearcher) RowCount(_ context.Context, collection string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.rowCounts[collection], nil
}

// fakeEmbedder embeds a text as its length.
type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

type memoryCache struct {
	entries map[string][]float32
}

func (m *memoryCache) GetEmbedding(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) SetEmbedding(_ context.Context, key string, v []float32, _ time.Duration) error {
	m.entries[key] = v
	return nil
}

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) GenerateEmbedding(context.Context, string) ([]float32, error) {
	c.calls++
	return []float32{1}, nil
}

func TestSearchText(t *testing.T) {
	assert.Equal(t, "ARGO ocean data", SearchText(intent.ParsedQuery{}))
	assert.Equal(t, "temperature salinity Arabian Sea profile_analysis", SearchText(intent.ParsedQuery{
		Intent:     intent.ProfileAnalysis,
		Parameters: []argo.Parameter{argo.Temperature, argo.Salinity},
		Geo:        argo.GeoConstraints{Region: "Arabian Sea"},
	}))
}

func TestRetrieveUsesConfiguredHitCounts(t *testing.T) {
	s := &fakeSearcher{}
	NewRetriever(s, fakeEmbedder{}, nil, RetrieverConfig{}).Retrieve(context.Background(), intent.ParsedQuery{})
	assert.Equal(t, map[string]int{"argo_profiles": 5, "argo_floats": 3}, s.topK)
}

func TestRetrieveFailuresYieldNoContext(t *testing.T) {
	ctx := context.Background()

	hits := NewRetriever(&fakeSearcher{err: errors.New("unavailable")}, fakeEmbedder{}, nil, RetrieverConfig{}).
		Retrieve(ctx, intent.ParsedQuery{})
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	hits = NewRetriever(&fakeSearcher{}, fakeEmbedder{err: errors.New("quota")}, nil, RetrieverConfig{}).
		Retrieve(ctx, intent.ParsedQuery{})
	assert.Empty(t, hits)

	var nilRetriever *Retriever
	assert.Empty(t, nilRetriever.Retrieve(ctx, intent.ParsedQuery{}))
	assert.Empty(t, nilRetriever.CollectionStats(ctx))
}

func TestRetrieveCachesEmbeddings(t *testing.T) {
	embedder := &countingEmbedder{}
	cache := &memoryCache{entries: map[string][]float32{}}
	r := NewRetriever(&fakeSearcher{}, embedder, cache, RetrieverConfig{})

	q := intent.ParsedQuery{Intent: intent.FloatCount}
	r.Retrieve(context.Background(), q)
	r.Retrieve(context.Background(), q)

	assert.Equal(t, 1, embedder.calls)
	assert.Len(t, cache.entries, 1)
}

func TestSuggestions(t *testing.T) {
	assert.Empty(t, Suggestions(intent.ParsedQuery{}, rows(0)))

	temp := Suggestions(intent.ParsedQuery{Parameters: []argo.Parameter{argo.Temperature}}, rows(2))
	assert.Equal(t, []string{
		"Show me the trajectory of these floats",
		"Compare these profiles with data from other regions",
		"Show me salinity profiles for the same region",
	}, temp)

	plain := Suggestions(intent.ParsedQuery{Parameters: []argo.Parameter{argo.Oxygen}}, rows(1))
	assert.Len(t, plain, 3)
	assert.Equal(t, "Show me data from a different time period", plain[2])
}
