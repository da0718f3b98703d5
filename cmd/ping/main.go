// cmd/ping/main.go
//
// Intended for Docker HEALTHCHECK:
//   HEALTHCHECK CMD ["/ping"]

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"scribes/internal/config"
)

const (
	defaultPort          = 8080
	healthEndpoint       = "/healthz"
	expectedHealthStatus = "ok"
	requestTimeout       = 2 * time.Second

	// exit codes
	codeRequestFailed     = 2
	codeBadHTTPStatus     = 3
	codeDecodeError       = 4
	codeReportedUnhealthy = 5
)

// healthResp mirrors { "status": "ok" } and { "status": "down", "error": "..." }.
type healthResp struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// exitError carries the process exit code for a failed probe.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func probe(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return &exitError{codeRequestFailed, fmt.Sprintf("request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	var h healthResp
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil && !errors.Is(err, io.EOF) {
		return &exitError{codeDecodeError, fmt.Sprintf("decode error: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &exitError{codeBadHTTPStatus, fmt.Sprintf("unexpected HTTP status %d: %s", resp.StatusCode, h.Error)}
	}
	if h.Status != "" && h.Status != expectedHealthStatus {
		return &exitError{codeReportedUnhealthy, fmt.Sprintf("service reported unhealthy: %q", h.Status)}
	}
	return nil
}

// detectPort takes APP_PORT through the server config and falls back to defaultPort.
func detectPort() int {
	cfg, err := config.Load()
	if err != nil || cfg.AppPort <= 0 {
		return defaultPort
	}
	return cfg.AppPort
}

func main() {
	port := detectPort()
	url := fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint)

	if err := probe(&http.Client{Timeout: requestTimeout}, url); err != nil {
		log.Print(err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
	log.Printf("service healthy on port %d", port)
}
