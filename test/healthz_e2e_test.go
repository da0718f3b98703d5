//go:build e2e

package test

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthzE2E(t *testing.T) {
	s := startStack(t, nil)
	a := newAPI(t, s)

	out := a.call(http.MethodGet, "/healthz", nil, http.StatusOK)
	assert.Equal(t, "ok", out["status"])

	t.Run("metrics_scrape", func(t *testing.T) {
		resp, err := http.Get(s.BaseURL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		for _, name := range []string{
			`http_requests_total{method="GET",path="/healthz",status="2xx"}`,
			"notes_hub_subscribers 0",
			"reminders_swept_total",
			"go_goroutines",
		} {
			assert.Contains(t, string(body), name)
		}
	})
}
