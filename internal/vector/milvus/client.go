// Package milvus stores embedded descriptions of ARGO profiles and floats and
// answers nearest-neighbour searches over them.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/floatchat/backend/pkg/logger"
)

const (
	fieldID        = "doc_id"
	fieldEmbedding = "embedding"
	fieldDocument  = "document"
	fieldFloatID   = "float_id"
)

var outputFields = []string{fieldID, fieldDocument, fieldFloatID}

// Document is one embedded description, e.g. "Profile 12 of float 2902746
// in the Arabian Sea, March 2023, temperature and salinity to 2000 dbar".
type Document struct {
	ID        string
	FloatID   string
	Text      string
	Embedding []float32
}

// Hit is a search match. Distance is the L2 distance, smaller is closer.
type Hit struct {
	ID         string  `json:"id"`
	Document   string  `json:"document"`
	FloatID    string  `json:"float_id,omitempty"`
	Collection string  `json:"collection"`
	Distance   float32 `json:"distance"`
}

type Client struct {
	client    client.Client
	vectorDim int
}

func NewClient(ctx context.Context, endpoint, apiKey string, vectorDim int) (*Client, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address: endpoint,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.Int("vector_dim", vectorDim),
	)

	return &Client{client: c, vectorDim: vectorDim}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

// EnsureCollection creates, indexes and loads the collection when missing.
func (m *Client) EnsureCollection(ctx context.Context, name string) error {
	has, err := m.client.HasCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return m.client.LoadCollection(ctx, name, false)
	}

	schema := &entity.Schema{
		CollectionName: name,
		Description:    "ARGO description embeddings",
		Fields: []*entity.Field{
			{
				Name:       fieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": "128"},
			},
			{
				Name:       fieldEmbedding,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(m.vectorDim)},
			},
			{
				Name:       fieldDocument,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "4096"},
			},
			{
				Name:       fieldFloatID,
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "32"},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index params: %w", err)
	}
	if err := m.client.CreateIndex(ctx, name, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, name, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", name))
	return nil
}

// Upsert writes docs keyed by ID, replacing any stored document with the same ID.
func (m *Client) Upsert(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	texts := make([]string, len(docs))
	floatIDs := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		embeddings[i] = d.Embedding
		texts[i] = d.Text
		floatIDs[i] = d.FloatID
	}

	_, err := m.client.Upsert(ctx, collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnFloatVector(fieldEmbedding, m.vectorDim, embeddings),
		entity.NewColumnVarChar(fieldDocument, texts),
		entity.NewColumnVarChar(fieldFloatID, floatIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}

	if err := m.client.Flush(ctx, collection, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Documents upserted into vector store",
		zap.String("collection", collection),
		zap.Int("count", len(docs)),
	)
	return nil
}

func (m *Client) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]Hit, error) {
	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		collection,
		[]string{},
		"",
		outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		fieldEmbedding,
		entity.L2,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var hits []Hit
	for _, sr := range results {
		decoded, err := decodeHits(collection, sr)
		if err != nil {
			return nil, err
		}
		hits = append(hits, decoded...)
	}

	logger.Debug("Vector search completed",
		zap.String("collection", collection),
		zap.Int("topK", topK),
		zap.Int("results", len(hits)),
	)
	return hits, nil
}

// RowCount reports the number of stored documents in a collection.
func (m *Client) RowCount(ctx context.Context, collection string) (int64, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	return parseRowCount(stats)
}

func parseRowCount(stats map[string]string) (int64, error) {
	raw, ok := stats["row_count"]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid row_count %q: %w", raw, err)
	}
	return n, nil
}

func decodeHits(collection string, sr client.SearchResult) ([]Hit, error) {
	if sr.Err != nil {
		return nil, fmt.Errorf("search result error: %w", sr.Err)
	}

	idCol := sr.Fields.GetColumn(fieldID)
	docCol := sr.Fields.GetColumn(fieldDocument)
	floatCol := sr.Fields.GetColumn(fieldFloatID)
	if idCol == nil || docCol == nil {
		return nil, fmt.Errorf("search result for %s is missing output fields", collection)
	}

	hits := make([]Hit, 0, sr.ResultCount)
	for i := 0; i < sr.ResultCount; i++ {
		id, err := idCol.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fieldID, err)
		}
		doc, err := docCol.GetAsString(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fieldDocument, err)
		}
		hit := Hit{ID: id, Document: doc, Collection: collection}
		if floatCol != nil {
			hit.FloatID, _ = floatCol.GetAsString(i)
		}
		if i < len(sr.Scores) {
			hit.Distance = sr.Scores[i]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
