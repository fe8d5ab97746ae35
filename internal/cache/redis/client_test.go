package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	c := NewFromClient(goredis.NewClient(&goredis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())}))
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCounters(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Increment(ctx, "queries_total"))
	require.NoError(t, c.Increment(ctx, "queries_total"))
	require.NoError(t, c.Increment(ctx, "intent:float_count"))

	n, err := c.Counter(ctx, "queries_total")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = c.Counter(ctx, "never_set")
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := c.Counters(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"queries_total": 2, "intent:float_count": 1}, all)
}

func TestEmbeddingCache(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, ok, err := c.GetEmbedding(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetEmbedding(ctx, "abc", []float32{0.25, -1.5}, time.Minute))
	got, ok, err := c.GetEmbedding(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{0.25, -1.5}, got)
}
