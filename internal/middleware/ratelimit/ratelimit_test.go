package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newLimiter(t *testing.T, perMinute int) (*RateLimiter, *clock) {
	rl := New(Config{MaxRequestsPerMinute: perMinute})
	t.Cleanup(rl.Stop)
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = c.now
	return rl, c
}

func TestAllowRefills(t *testing.T) {
	rl, c := newLimiter(t, 2)

	_, ok := rl.allow("a")
	assert.True(t, ok)
	remaining, ok := rl.allow("a")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
	_, ok = rl.allow("a")
	assert.False(t, ok)

	_, ok = rl.allow("b")
	assert.True(t, ok, "clients have separate buckets")

	c.t = c.t.Add(30 * time.Second)
	_, ok = rl.allow("a")
	assert.True(t, ok)
	_, ok = rl.allow("a")
	assert.False(t, ok)
}

func TestEvictIdle(t *testing.T) {
	rl, c := newLimiter(t, 5)
	rl.allow("a")

	c.t = c.t.Add(11 * time.Minute)
	rl.evictIdle(10 * time.Minute)
	assert.Empty(t, rl.buckets)
}

func TestMiddleware(t *testing.T) {
	rl, _ := newLimiter(t, 1)
	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-ID", "analyst")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-ID", "analyst")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}
