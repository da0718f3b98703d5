package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"scribes/cmd/server/handlers/auth"
	notesHandlers "scribes/cmd/server/handlers/notes"
	remindersHandlers "scribes/cmd/server/handlers/reminders"
	"scribes/cmd/server/testutil"
	"scribes/internal/config"
	authServices "scribes/internal/services/auth"
	"scribes/internal/services/notes"
	"scribes/internal/services/reminders"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const testSecret = "router-test-secret-with-at-least-32-chars"

// recorder remembers which service method a route reached. Methods that are
// not overridden panic, which recover turns into a 500.
type recorder struct {
	calls []string
}

func (r *recorder) hit(name string) { r.calls = append(r.calls, name) }

type fakeNotes struct {
	notesHandlers.Service
	*recorder
}

func (f fakeNotes) List(context.Context, bson.ObjectID) ([]*notes.Note, error) {
	f.hit("notes.List")
	return nil, nil
}

func (f fakeNotes) Recent(context.Context, bson.ObjectID, int) ([]*notes.Note, error) {
	f.hit("notes.Recent")
	return nil, nil
}

func (f fakeNotes) Get(context.Context, bson.ObjectID, bson.ObjectID) (*notes.Note, error) {
	f.hit("notes.Get")
	return nil, notes.ErrNoteNotFound
}

type fakeReminders struct {
	remindersHandlers.Manager
	*recorder
}

func (f fakeReminders) ListUpcoming(context.Context, bson.ObjectID, int) ([]*reminders.Reminder, error) {
	f.hit("reminders.Upcoming")
	return nil, nil
}

func (f fakeReminders) Stats(context.Context, bson.ObjectID) (*reminders.Stats, error) {
	f.hit("reminders.Stats")
	return &reminders.Stats{}, nil
}

func (f fakeReminders) Get(context.Context, bson.ObjectID, bson.ObjectID) (*reminders.Reminder, error) {
	f.hit("reminders.Get")
	return nil, reminders.ErrReminderNotFound
}

func (f fakeReminders) ListByNote(context.Context, bson.ObjectID, bson.ObjectID) ([]*reminders.Reminder, error) {
	f.hit("reminders.ListByNote")
	return nil, nil
}

type fakeAuth struct {
	auth.AuthService
}

func (fakeAuth) SignIn(context.Context, authServices.SignInRequest) (*authServices.AuthResponse, error) {
	return nil, authServices.ErrInvalidCredentials
}

func (fakeAuth) DeleteAccount(context.Context, bson.ObjectID) error { return nil }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func testRouterConfig() config.Config {
	return config.Config{
		JWTSecret:           testSecret,
		JWTAlgorithm:        "HS256",
		SignInRatePerMin:    2,
		WSMaxSessionSec:     60,
		WSOutboxBuffer:      8,
		ControllerQueueSize: 8,
		RouteMetricsEnabled: true,
	}
}

func newTestRouter(t *testing.T, storeErr error) (*fiber.App, *recorder) {
	t.Helper()
	rec := &recorder{}
	app := setupRouter(testRouterConfig(), routerDeps{
		Store:     pinger{err: storeErr},
		Auth:      fakeAuth{},
		Notes:     fakeNotes{recorder: rec},
		Reminders: fakeReminders{recorder: rec},
		Hub:       notes.NewHub(8),
		Registry:  prometheus.NewRegistry(),
	})
	return app, rec
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := testutil.CreateTestJWT(bson.NewObjectID().Hex(), "router@example.com", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return tok
}

func TestRequestLoggingConfig(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{
			name:     "request logging disabled",
			envValue: "false",
			expected: false,
		},
		{
			name:     "request logging enabled",
			envValue: "true",
			expected: true,
		},
		{
			name:     "default value (no env var)",
			envValue: "",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				_ = os.Unsetenv("REQUEST_LOGGING_ENABLED")
				config.ResetCache()
			}()

			if tt.envValue != "" {
				err := os.Setenv("REQUEST_LOGGING_ENABLED", tt.envValue)
				require.NoError(t, err)
			}

			config.ResetCache()

			cfg, err := config.Load()
			require.NoError(t, err)

			assert.Equal(t, tt.expected, cfg.RequestLoggingEnabled,
				"RequestLoggingEnabled should be %v when REQUEST_LOGGING_ENABLED=%s",
				tt.expected, tt.envValue)
		})
	}
}

func TestRoutesRequireToken(t *testing.T) {
	app, rec := newTestRouter(t, nil)

	paths := []string{
		"/api/v1/notes",
		"/api/v1/notes/recent",
		"/api/v1/reminders",
		"/api/v1/reminders/stats",
		"/api/v1/me",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, p, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.Empty(t, rec.calls, "no service is reached without a token")
}

func TestAccountRoutes(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		token  bool
		want   int
	}{
		{name: "delete needs a token", method: http.MethodDelete, path: "/api/v1/me", want: http.StatusUnauthorized},
		{name: "change password needs a token", method: http.MethodPost, path: "/api/v1/me/change-password", want: http.StatusUnauthorized},
		{name: "delete account", method: http.MethodDelete, path: "/api/v1/me", token: true, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestRouter(t, nil)
			req := testutil.CreateJSONRequest(tt.method, tt.path, nil)
			if tt.token {
				req = testutil.CreateAuthenticatedRequest(tt.method, tt.path, nil, bearer(t))
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestStaticSegmentsWinOverIDs(t *testing.T) {
	noteID := bson.NewObjectID().Hex()

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/notes", "notes.List"},
		{"/api/v1/notes/recent", "notes.Recent"},
		{"/api/v1/notes/" + noteID, "notes.Get"},
		{"/api/v1/notes/" + noteID + "/reminders", "reminders.ListByNote"},
		{"/api/v1/reminders/upcoming", "reminders.Upcoming"},
		{"/api/v1/reminders/stats", "reminders.Stats"},
		{"/api/v1/reminders/" + noteID, "reminders.Get"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			app, rec := newTestRouter(t, nil)
			req := testutil.CreateAuthenticatedRequest(http.MethodGet, tt.path, nil, bearer(t))

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Less(t, resp.StatusCode, 500)
			assert.Equal(t, []string{tt.want}, rec.calls)
		})
	}
}

func TestHealthzReflectsStore(t *testing.T) {
	app, _ := newTestRouter(t, nil)
	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down, _ := newTestRouter(t, errors.New("no reachable servers"))
	resp, err = down.Test(testutil.CreateJSONRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestRouter(t, nil)

	_, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)

	resp, err := app.Test(testutil.CreateJSONRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `http_requests_total{method="GET",path="/healthz",status="2xx"}`))
}
