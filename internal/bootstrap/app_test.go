package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatchat/backend/pkg/config"
)

func localConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: ":memory:"}},
		LLM:     config.LLMConfig{Provider: "none", TimeoutSec: 1},
		Pipeline: config.PipelineConfig{
			ConfidenceThreshold: 0.7,
		},
	}
}

func TestNewLocalApp(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, localConfig())
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "none", app.Oracle.Name())

	env := app.Engine.ProcessQuery(ctx, "How many floats are in the Bay of Bengal")
	require.True(t, env.Success, env.Error)
	assert.Equal(t, []string{"float_count"}, env.Columns)
	assert.EqualValues(t, 0, env.Data[0]["float_count"])

	history, err := app.Engine.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "How many floats are in the Bay of Bengal", history[0].UserQuery)

	summary, err := app.Engine.DataSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Database.TotalFloats)
	assert.Empty(t, summary.VectorStore)
}

func TestIndexerNeedsVectorStore(t *testing.T) {
	app, err := New(context.Background(), localConfig())
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Indexer()
	assert.ErrorIs(t, err, ErrVectorDisabled)
}

func TestUnknownDriver(t *testing.T) {
	cfg := localConfig()
	cfg.Storage.Driver = "oracle"
	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown storage driver")
}
