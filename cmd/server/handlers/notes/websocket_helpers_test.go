package notes

import (
	"context"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"scribes/cmd/server/testutil"
	"scribes/internal/apperr"
	"scribes/internal/services/notes"
	"scribes/internal/services/reminders"
	"scribes/internal/services/state"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const testSecret = "test-secret-key-with-32-characters"

// memNotes is an in-memory notes service. It publishes nothing; tests push
// change events into the hub themselves.
type memNotes struct {
	mu    sync.Mutex
	byID  map[bson.ObjectID]*notes.Note
	clock time.Time
}

func newMemNotes() *memNotes {
	return &memNotes{
		byID:  make(map[bson.ObjectID]*notes.Note),
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memNotes) sorted(userID bson.ObjectID, keep func(*notes.Note) bool) []*notes.Note {
	out := []*notes.Note{}
	for _, n := range m.byID {
		if n.UserID == userID && keep(n) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (m *memNotes) List(_ context.Context, userID bson.ObjectID) ([]*notes.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(userID, func(*notes.Note) bool { return true }), nil
}

func (m *memNotes) Search(_ context.Context, userID bson.ObjectID, query string) ([]*notes.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	return m.sorted(userID, func(n *notes.Note) bool { return strings.Contains(strings.ToLower(n.Title), q) }), nil
}

func (m *memNotes) ListByTag(_ context.Context, userID bson.ObjectID, tag string) ([]*notes.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(userID, func(n *notes.Note) bool {
		for _, t := range n.Tags {
			if strings.EqualFold(t, tag) {
				return true
			}
		}
		return false
	}), nil
}

func (m *memNotes) Create(_ context.Context, userID bson.ObjectID, d notes.Draft) (*notes.Note, error) {
	if strings.TrimSpace(d.Title) == "" {
		return nil, apperr.Invalid("title is required")
	}
	m.mu.Lock()
	m.clock = m.clock.Add(time.Second)
	n := &notes.Note{ID: bson.NewObjectID(), UserID: userID, Title: d.Title, Content: d.Content, Tags: d.Tags, CreatedAt: m.clock, UpdatedAt: m.clock}
	m.byID[n.ID] = n
	m.mu.Unlock()
	return n, nil
}

func (m *memNotes) Update(_ context.Context, userID, noteID bson.ObjectID, p notes.Patch) (*notes.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[noteID]
	if !ok || n.UserID != userID {
		return nil, notes.ErrNoteNotFound
	}
	updated := p.Apply(*n)
	m.clock = m.clock.Add(time.Second)
	updated.UpdatedAt = m.clock
	m.byID[noteID] = &updated
	return &updated, nil
}

func (m *memNotes) Delete(_ context.Context, userID, noteID bson.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[noteID]
	if !ok || n.UserID != userID {
		return notes.ErrNoteNotFound
	}
	delete(m.byID, noteID)
	return nil
}

// stubReminders answers reminder frames without a store.
type stubReminders struct{}

func (stubReminders) Create(_ context.Context, userID, noteID bson.ObjectID, at time.Time) (*reminders.Reminder, error) {
	if at.IsZero() {
		return nil, apperr.Invalid("scheduled_at is required")
	}
	return &reminders.Reminder{ID: bson.NewObjectID(), UserID: userID, NoteID: noteID, ScheduledAt: at, Status: reminders.StatusPending}, nil
}

func (stubReminders) Cancel(context.Context, bson.ObjectID, bson.ObjectID) (*reminders.Reminder, error) {
	return nil, apperr.Conflict("reminder is already sent")
}

// wsFixture runs a real listener so gorilla can dial it.
type wsFixture struct {
	hub    *notes.Hub
	notes  *memNotes
	url    string
	userID bson.ObjectID
	token  string
}

func newWSFixture(t *testing.T, maxSessionSec int) *wsFixture {
	t.Helper()

	hub := notes.NewHub(16)
	svc := newMemNotes()
	h := NewWebSocketHandlers(hub, svc, stubReminders{}, SessionConfig{
		JWTSecret:     testSecret,
		MaxSessionSec: maxSessionSec,
		QueueSize:     8,
		OutboxSize:    32,
	})

	app := testutil.CreateTestApp(t)
	app.Get("/ws/notes/stream", h.WSUpgrade, websocket.New(h.WSNotesStream))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	userID := bson.NewObjectID()
	token, err := testutil.CreateTestJWT(userID.Hex(), "test@example.com", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	return &wsFixture{
		hub:    hub,
		notes:  svc,
		url:    "ws://" + ln.Addr().String() + "/ws/notes/stream",
		userID: userID,
		token:  token,
	}
}

func (f *wsFixture) dial(t *testing.T) *gorillaws.Conn {
	t.Helper()
	conn, _, err := gorillaws.DefaultDialer.Dial(f.url+"?token="+f.token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type serverFrame struct {
	Type     string              `json:"type"`
	State    *state.State        `json:"state"`
	Reminder *reminders.Reminder `json:"reminder"`
	Error    string              `json:"error"`
}

func readFrame(t *testing.T, conn *gorillaws.Conn) serverFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f serverFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readFinal skips Loading frames and returns the next Loaded or Error state.
func readFinal(t *testing.T, conn *gorillaws.Conn) state.State {
	t.Helper()
	for {
		f := readFrame(t, conn)
		if f.Type == frameState && f.State.Final() {
			return *f.State
		}
	}
}

func send(t *testing.T, conn *gorillaws.Conn, frame any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

// WSUpgradeTestCase represents a WebSocket upgrade test case
type WSUpgradeTestCase struct {
	Name           string
	Token          *string // nil means no token
	ExpectedStatus int
}

// GetStandardWSUpgradeTestCases returns common WebSocket upgrade test cases
func GetStandardWSUpgradeTestCases(t *testing.T, secret string) []WSUpgradeTestCase {
	t.Helper()

	userID := bson.NewObjectID().Hex()
	email := "test@example.com"

	validToken, err := testutil.CreateTestJWT(userID, email, []byte(secret), time.Hour)
	require.NoError(t, err)

	expiredToken, err := testutil.CreateTestJWT(userID, email, []byte(secret), -time.Hour)
	require.NoError(t, err)

	invalidToken := "invalid-token"

	return []WSUpgradeTestCase{
		{Name: "ValidToken", Token: &validToken, ExpectedStatus: 200},
		{Name: "MissingToken", Token: nil, ExpectedStatus: 401},
		{Name: "InvalidToken", Token: &invalidToken, ExpectedStatus: 401},
		{Name: "ExpiredToken", Token: &expiredToken, ExpectedStatus: 401},
	}
}

func setupUpgradeApp(t *testing.T) *fiber.App {
	t.Helper()
	app := testutil.CreateTestApp(t)
	h := NewWebSocketHandlers(notes.NewHub(4), newMemNotes(), stubReminders{}, SessionConfig{JWTSecret: testSecret})
	app.Get("/ws", h.WSUpgrade, func(c *fiber.Ctx) error { return c.SendStatus(200) })
	return app
}
