package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeNoteIsValid(t *testing.T) {
	f := gofakeit.New(42)
	for i := 0; i < 100; i++ {
		n := fakeNote(f)
		assert.NotEmpty(t, n.Title)
		assert.NotEmpty(t, n.Content)
		assert.LessOrEqual(t, len(n.Tags), 3)

		seen := map[string]bool{}
		for _, tag := range n.Tags {
			assert.False(t, seen[tag], "duplicate tag %q", tag)
			seen[tag] = true
		}
	}
}

func TestFakeScheduleIsInTheFuture(t *testing.T) {
	f := gofakeit.New(7)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		at := fakeSchedule(f, now)
		assert.True(t, at.After(now))
		assert.True(t, at.Before(now.AddDate(0, 0, 31)))
		assert.Zero(t, at.Second())
	}
}

func TestLoginFallsBackToSignIn(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/v1/auth/sign-up":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"registration failed"}`))
		case "/api/v1/auth/sign-in":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
		}
	}))
	defer srv.Close()

	cli := newClient(srv.URL)
	require.NoError(t, cli.login(context.Background(), "a@example.com", "Password123"))
	assert.Equal(t, "tok", cli.token)
	assert.Equal(t, []string{"/api/v1/auth/sign-up", "/api/v1/auth/sign-in"}, paths)
}

func TestLoginSurfacesOtherFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newClient(srv.URL).login(context.Background(), "a@example.com", "weak")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
