package middlewares

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoutePath(t *testing.T) {
	t.Run("matched route returns template", func(t *testing.T) {
		app := fiber.New()
		app.Get("/notes/:id", func(c *fiber.Ctx) error {
			assert.Equal(t, "/notes/:id", normalizeRoutePath(c))
			return c.SendString("ok")
		})

		req := httptest.NewRequest("GET", "/notes/abc123", nil)
		resp, err := app.Test(req)
		assert.NoError(t, err, "request should succeed")
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("unmatched route returns actual path without panic", func(t *testing.T) {
		app := fiber.New()

		app.Use(func(c *fiber.Ctx) error {
			assert.NotEmpty(t, normalizeRoutePath(c))
			return c.SendStatus(404)
		})

		req := httptest.NewRequest("GET", "/nonexistent", nil)
		resp, err := app.Test(req)
		assert.NoError(t, err, "request should not panic")
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestAttachMetricsServesSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	swept := prometheus.NewCounter(prometheus.CounterOpts{Name: "reminders_swept_total", Help: "test"})
	reg.MustRegister(swept)
	swept.Add(3)

	app := fiber.New()
	AttachMetrics(app, reg)
	app.Get("/notes/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/notes/42", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "reminders_swept_total 3")
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/notes/:id",status="2xx"} 1`)
	assert.NotContains(t, string(body), `path="/metrics"`, "scrapes are not counted")
	assert.Contains(t, string(body), "http_requests_in_flight 0")
}

func TestNormalizeStatus(t *testing.T) {
	for status, want := range map[int]string{200: "2xx", 204: "2xx", 301: "3xx", 404: "4xx", 503: "5xx", 0: "0"} {
		assert.Equal(t, want, normalizeStatus(status))
	}
}
