//go:build e2e

package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const (
	signUpPath    = "/api/v1/auth/sign-up"
	signInPath    = "/api/v1/auth/sign-in"
	mePath        = "/api/v1/me"
	passwordPath  = "/api/v1/me/change-password"
	notesPath     = "/api/v1/notes"
	remindersPath = "/api/v1/reminders"
	streamPath    = "/ws/notes/stream"
)

// api is a JSON client bound to one stack and, optionally, one user.
type api struct {
	t     *testing.T
	s     *stack
	http  *http.Client
	token string
}

func newAPI(t *testing.T, s *stack) *api {
	return &api{t: t, s: s, http: &http.Client{Timeout: 5 * time.Second}}
}

// as returns a copy of a authenticated with token.
func (a *api) as(token string) *api {
	cp := *a
	cp.token = token
	return &cp
}

// send performs one request and returns the status with the raw body.
func (a *api) send(method, path string, body any) (int, []byte) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.s.BaseURL+path, r)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, raw
}

// call requires status want and decodes a JSON object body, if any.
func (a *api) call(method, path string, body any, want int) map[string]any {
	a.t.Helper()
	status, raw := a.send(method, path, body)
	require.Equal(a.t, want, status, "%s %s: %s", method, path, raw)
	if len(raw) == 0 {
		return nil
	}
	var out map[string]any
	require.NoError(a.t, json.Unmarshal(raw, &out))
	return out
}

// callList is call for endpoints answering with a bare JSON array.
func (a *api) callList(method, path string, want int) []map[string]any {
	a.t.Helper()
	status, raw := a.send(method, path, nil)
	require.Equal(a.t, want, status, "%s %s: %s", method, path, raw)
	var out []map[string]any
	require.NoError(a.t, json.Unmarshal(raw, &out))
	return out
}

// errorOf requires status want and returns the error message of the body.
func (a *api) errorOf(method, path string, body any, want int) string {
	a.t.Helper()
	out := a.call(method, path, body, want)
	msg, ok := out["error"].(string)
	require.True(a.t, ok, "no error message in %v", out)
	return msg
}

func credentials(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

// register signs up a fresh user and returns a client acting as them.
func (a *api) register(email, password string) *api {
	a.t.Helper()
	out := a.call(http.MethodPost, signUpPath, credentials(email, password), http.StatusCreated)
	token, _ := out["access_token"].(string)
	require.NotEmpty(a.t, token)
	return a.as(token)
}

func (a *api) createNote(payload map[string]any) string {
	a.t.Helper()
	note := a.call(http.MethodPost, notesPath, payload, http.StatusCreated)
	id, _ := note["id"].(string)
	require.NotEmpty(a.t, id)
	return id
}

// stream opens the notes websocket for the current user.
func (a *api) stream() *websocket.Conn {
	a.t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(a.s.WSURL+streamPath+"?token="+a.token, nil)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = c.Close() })
	return c
}

func ids(list map[string]any, key string) []string {
	out := []string{}
	items, _ := list[key].([]any)
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			id, _ := m["id"].(string)
			out = append(out, id)
		}
	}
	return out
}
