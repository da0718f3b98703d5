package notes

import (
	"context"
	"errors"
	"testing"
	"time"

	"scribes/cmd/server/testutil"
	"scribes/internal/services/notes"
	"scribes/internal/services/state"

	"github.com/golang-jwt/jwt/v5"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestWSUpgradeTableDriven(t *testing.T) {
	for _, tc := range GetStandardWSUpgradeTestCases(t, testSecret) {
		t.Run(tc.Name, func(t *testing.T) {
			app := setupUpgradeApp(t)

			resp, err := app.Test(testutil.CreateWebSocketRequest("/ws", tc.Token))
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedStatus, resp.StatusCode)
		})
	}
}

func TestWSUpgradeNonWebSocketRequest(t *testing.T) {
	app := setupUpgradeApp(t)

	resp, err := app.Test(testutil.CreateJSONRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestWSSessionIntents(t *testing.T) {
	f := newWSFixture(t, 0)
	conn := f.dial(t)

	first := readFrame(t, conn)
	require.Equal(t, frameState, first.Type)
	assert.Equal(t, state.KindInitial, first.State.Kind, "a new session starts from the initial state")

	send(t, conn, map[string]any{"type": "LoadNotes"})
	st := readFinal(t, conn)
	assert.Equal(t, state.KindLoaded, st.Kind)
	assert.Empty(t, st.Notes)

	send(t, conn, map[string]any{"type": "AddNote", "note": map[string]any{"title": "Grace", "content": "Ephesians 2", "tags": []string{"faith"}}})
	st = readFinal(t, conn)
	require.Len(t, st.Notes, 1)
	assert.Equal(t, "AddNote", st.Intent)
	noteID := st.Notes[0].ID

	send(t, conn, map[string]any{"type": "AddNote", "note": map[string]any{"title": "Hope", "content": "Romans 5"}})
	st = readFinal(t, conn)
	require.Len(t, st.Notes, 2)
	assert.Equal(t, "Hope", st.Notes[0].Title, "newest first")

	send(t, conn, map[string]any{"type": "FilterNotesByTag", "tag": "faith"})
	st = readFinal(t, conn)
	assert.Equal(t, "faith", st.FilterTag)
	require.Len(t, st.Notes, 1)

	send(t, conn, map[string]any{"type": "UpdateNote", "id": noteID.Hex(), "note": map[string]any{"title": "Grace abounds"}})
	st = readFinal(t, conn)
	assert.Empty(t, st.FilterTag, "mutations reload the full list")
	assert.Equal(t, "Grace abounds", st.Notes[0].Title)

	send(t, conn, map[string]any{"type": "DeleteNote", "id": noteID.Hex()})
	st = readFinal(t, conn)
	require.Len(t, st.Notes, 1)
	assert.Equal(t, "Hope", st.Notes[0].Title)
}

func TestWSSessionErrors(t *testing.T) {
	f := newWSFixture(t, 0)
	conn := f.dial(t)
	readFrame(t, conn) // initial

	send(t, conn, map[string]any{"type": "LoadNotes"})
	readFinal(t, conn)

	send(t, conn, map[string]any{"type": "AddNote", "note": map[string]any{"title": "  "}})
	st := readFinal(t, conn)
	assert.Equal(t, state.KindError, st.Kind)
	assert.Equal(t, "title is required", st.Message)

	send(t, conn, map[string]any{"type": "Teleport"})
	fr := readFrame(t, conn)
	assert.Equal(t, frameError, fr.Type)
	assert.Contains(t, fr.Error, "unknown frame type")

	send(t, conn, map[string]any{"type": "DeleteNote", "id": "nope"})
	fr = readFrame(t, conn)
	assert.Equal(t, frameError, fr.Type)
	assert.Equal(t, "id must be a valid id", fr.Error)
}

func TestWSSessionReminderFrames(t *testing.T) {
	f := newWSFixture(t, 0)
	conn := f.dial(t)
	readFrame(t, conn) // initial

	noteID := bson.NewObjectID()
	at := time.Date(2025, 6, 8, 9, 0, 0, 0, time.UTC)
	send(t, conn, map[string]any{"type": "CreateReminder", "note_id": noteID.Hex(), "scheduled_at": at})
	fr := readFrame(t, conn)
	require.Equal(t, frameReminder, fr.Type)
	assert.Equal(t, noteID, fr.Reminder.NoteID)
	assert.True(t, at.Equal(fr.Reminder.ScheduledAt))

	send(t, conn, map[string]any{"type": "CancelReminder", "id": bson.NewObjectID().Hex()})
	fr = readFrame(t, conn)
	assert.Equal(t, frameError, fr.Type)
	assert.Equal(t, "reminder is already sent", fr.Error)
}

func TestWSSessionRefreshesOnForeignChange(t *testing.T) {
	f := newWSFixture(t, 0)
	conn := f.dial(t)
	readFrame(t, conn) // initial

	send(t, conn, map[string]any{"type": "LoadNotes"})
	st := readFinal(t, conn)
	require.Empty(t, st.Notes)

	// Another session of the same user adds a note.
	_, err := f.notes.Create(context.Background(), f.userID, notes.Draft{Title: "From phone", Content: "x"})
	require.NoError(t, err)
	f.hub.Broadcast(context.Background(), notes.NoteEvent{Type: "created", UserID: f.userID, Origin: "another-session"})

	st = readFinal(t, conn)
	assert.Equal(t, "Refresh", st.Intent)
	require.Len(t, st.Notes, 1)
	assert.Equal(t, "From phone", st.Notes[0].Title)
}

func TestWSSessionTimeout(t *testing.T) {
	f := newWSFixture(t, 1)
	conn := f.dial(t)

	start := time.Now()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	elapsed := time.Since(start)

	var closeErr *gorillaws.CloseError
	if errors.As(err, &closeErr) {
		assert.Equal(t, WSClosePolicyViolation, closeErr.Code, "Expected policy violation close code")
	}
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond, "Connection should have been closed after session timeout")
	assert.Less(t, elapsed, 3*time.Second, "Connection should have been closed promptly")
}

func TestValidateJWTTabledriven(t *testing.T) {
	wsHandlers := NewWebSocketHandlers(notes.NewHub(4), newMemNotes(), stubReminders{}, SessionConfig{JWTSecret: testSecret})

	userID := bson.NewObjectID().Hex()
	email := "test@example.com"

	testCases := []struct {
		name        string
		setupToken  func() string
		expectError bool
		errorMsg    string
	}{
		{
			name: "Success",
			setupToken: func() string {
				token, _ := testutil.CreateTestJWT(userID, email, []byte(testSecret), time.Hour)
				return token
			},
		},
		{
			name:        "InvalidFormat",
			setupToken:  func() string { return "invalid.token.format" },
			expectError: true,
		},
		{
			name: "WrongSecret",
			setupToken: func() string {
				token, _ := testutil.CreateTestJWT(userID, email, []byte("wrong-secret-key-with-32-characters"), time.Hour)
				return token
			},
			expectError: true,
		},
		{
			name: "MissingClaims",
			setupToken: func() string {
				now := time.Now().UTC()
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"exp": now.Add(time.Hour).Unix(),
					"iat": now.Unix(),
				})
				tokenString, _ := token.SignedString([]byte(testSecret))
				return tokenString
			},
			expectError: true,
			errorMsg:    "claims incomplete",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsedUserID, parsedEmail, err := wsHandlers.validateJWT(tc.setupToken())

			if tc.expectError {
				assert.Error(t, err)
				if tc.errorMsg != "" {
					assert.Contains(t, err.Error(), tc.errorMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, parsedUserID.Hex())
			assert.Equal(t, email, parsedEmail)
		})
	}
}
