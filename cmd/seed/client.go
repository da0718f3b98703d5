package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type client struct {
	base  string
	http  *http.Client
	token string
}

func newClient(base string) *client {
	return &client{base: base, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *client) post(ctx context.Context, path string, body, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, data)
	}
	if out != nil {
		return resp.StatusCode, json.Unmarshal(data, out)
	}
	return resp.StatusCode, nil
}

// login signs up and falls back to sign-in when the account exists.
func (c *client) login(ctx context.Context, email, password string) error {
	creds := map[string]string{"email": email, "password": password}
	var auth struct {
		AccessToken string `json:"access_token"`
	}

	status, err := c.post(ctx, "/api/v1/auth/sign-up", creds, &auth)
	if err != nil && status != http.StatusConflict {
		return err
	}
	if err != nil {
		if _, err := c.post(ctx, "/api/v1/auth/sign-in", creds, &auth); err != nil {
			return err
		}
	}
	if auth.AccessToken == "" {
		return errors.New("server returned no access token")
	}
	c.token = auth.AccessToken
	return nil
}

func (c *client) createNote(ctx context.Context, n notePayload) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if _, err := c.post(ctx, "/api/v1/notes", n, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (c *client) createReminder(ctx context.Context, noteID string, at time.Time) error {
	body := map[string]any{"note_id": noteID, "scheduled_at": at}
	_, err := c.post(ctx, "/api/v1/reminders", body, nil)
	return err
}
