package notes

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"scribes/cmd/server/ctxkeys"
	"scribes/cmd/server/handlers/httperr"
	"scribes/internal/apperr"
	"scribes/internal/logger"
	"scribes/internal/services/auth"
	"scribes/internal/services/notes"
	"scribes/internal/services/reminders"
	"scribes/internal/services/state"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	// WSClosePolicyViolation represents WebSocket close code for policy violation
	WSClosePolicyViolation = 1008

	// WebSocket timeout constants
	wsWriteTimeout     = 10 * time.Second // Timeout for writing messages to WebSocket
	wsPingInterval     = 25 * time.Second // Interval for sending ping messages
	wsMaxIncomingBytes = 1 << 20

	msgFailedToCloseWebSocketConnection = "failed to close WebSocket connection"
)

// Hub is the change feed shared by every session of a user.
type Hub interface {
	Subscribe(connID ulid.ULID, userID bson.ObjectID) (*notes.Subscriber, func())
}

// ReminderScheduler serves the reminder frames of a session.
type ReminderScheduler interface {
	Create(ctx context.Context, userID, noteID bson.ObjectID, scheduledAt time.Time) (*reminders.Reminder, error)
	Cancel(ctx context.Context, userID, id bson.ObjectID) (*reminders.Reminder, error)
}

// SessionConfig tunes websocket sessions.
type SessionConfig struct {
	JWTSecret     string
	MaxSessionSec int
	QueueSize     int
	OutboxSize    int
}

// WebSocketHandlers contains WebSocket-related handlers
type WebSocketHandlers struct {
	hub       Hub
	notes     state.NoteService
	reminders ReminderScheduler
	cfg       SessionConfig
}

// NewWebSocketHandlers creates new WebSocket handlers
func NewWebSocketHandlers(hub Hub, svc state.NoteService, rs ReminderScheduler, cfg SessionConfig) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub:       hub,
		notes:     svc,
		reminders: rs,
		cfg:       cfg,
	}
}

// WSUpgrade upgrades HTTP connection to WebSocket for notes streaming
func (h *WebSocketHandlers) WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		logger.L().Warn("websocket upgrade required", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusBadRequest,
			Message: "WebSocket upgrade required",
		})
	}

	// Validate JWT token from query parameter
	token := c.Query("token")
	if token == "" {
		logger.L().Warn("missing token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path())
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusUnauthorized,
			Message: "Missing token",
		})
	}

	userID, userEmail, err := h.validateJWT(token)
	if err != nil {
		logger.L().Warn("invalid token in websocket upgrade", "handler", "WSUpgrade", "path", c.Path(), "error", err)
		return httperr.Fail(httperr.E{
			Status:  fiber.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	c.Locals(ctxkeys.UserIDKey, userID.Hex())
	c.Locals(ctxkeys.UserEmailKey, userEmail)
	c.Locals(ctxkeys.ParentCtxKey, context.WithoutCancel(c.UserContext()))

	return c.Next()
}

// wsConnection holds connection-specific data. Writes are serialized
// through mu because the underlying conn allows a single writer.
type wsConnection struct {
	ws       *websocket.Conn
	userID   bson.ObjectID
	connULID ulid.ULID
	connID   string

	mu sync.Mutex
}

func (conn *wsConnection) logArgs(args ...any) []any {
	return append([]any{"user_id", conn.userID.Hex(), "conn_id", conn.connID}, args...)
}

func (conn *wsConnection) writeJSON(v any) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	if err := conn.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.ws.WriteJSON(v)
}

func (conn *wsConnection) writeControl(messageType int, data []byte) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	if err := conn.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.ws.WriteMessage(messageType, data)
}

func (conn *wsConnection) sendError(err error) error {
	return conn.writeJSON(errorFrame{Type: frameError, Error: apperr.Message(err)})
}

// WSNotesStream runs one session: a State Controller owned by the
// connection, fed by client frames and by note changes made elsewhere.
func (h *WebSocketHandlers) WSNotesStream(c *websocket.Conn) {
	conn, parentCtx, err := h.initializeConnection(c)
	if err != nil {
		closeConnection(c)
		return
	}

	ctx, cancelCtx := context.WithCancel(parentCtx)
	defer cancelCtx()

	ctrl := state.New(h.notes, conn.userID, logger.L().With("conn_id", conn.connID), state.Options{
		QueueSize:  h.cfg.QueueSize,
		OutboxSize: h.cfg.OutboxSize,
		Origin:     conn.connID,
	})
	defer ctrl.Close()

	states, stopStates := ctrl.Subscribe(conn.connULID)
	defer stopStates()

	feed, stopFeed := h.hub.Subscribe(conn.connULID, conn.userID)
	defer stopFeed()

	logger.L().Info("WebSocket connection established", conn.logArgs()...)

	if h.cfg.MaxSessionSec > 0 {
		sessionTimer := time.AfterFunc(time.Duration(h.cfg.MaxSessionSec)*time.Second, func() {
			logger.L().Info("WebSocket session timeout", conn.logArgs()...)
			h.sendCloseMessage(conn)
			closeConnection(c)
			cancelCtx()
		})
		defer sessionTimer.Stop()
	}

	ping := h.startKeepAlive(ctx, conn)
	defer ping.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.handleOutgoing(ctx, conn, ctrl, states, feed)
	}()

	h.handleIncoming(ctx, conn, ctrl)

	cancelCtx()
	wg.Wait()
	logger.L().Info("WebSocket connection closed", conn.logArgs()...)
}

// initializeConnection validates and sets up the WebSocket connection
func (h *WebSocketHandlers) initializeConnection(c *websocket.Conn) (*wsConnection, context.Context, error) {
	userIDStr, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error(ctxkeys.UserIDKey + " not found in WebSocket context")
		return nil, nil, errors.New(ctxkeys.UserIDKey + " not found")
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid "+ctxkeys.UserIDKey+" in WebSocket context", "user_id", userIDStr, "error", err)
		return nil, nil, fmt.Errorf("invalid %s: %w", ctxkeys.UserIDKey, err)
	}

	parentCtx, ok := c.Locals(ctxkeys.ParentCtxKey).(context.Context)
	if !ok {
		parentCtx = context.Background()
	}

	connULID := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	c.SetReadLimit(wsMaxIncomingBytes)

	return &wsConnection{
		ws:       c,
		userID:   userID,
		connULID: connULID,
		connID:   connULID.String(),
	}, parentCtx, nil
}

func closeConnection(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		logger.L().Debug(msgFailedToCloseWebSocketConnection, "error", err)
	}
}

// sendCloseMessage sends a close frame to the client
func (h *WebSocketHandlers) sendCloseMessage(conn *wsConnection) {
	err := conn.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(WSClosePolicyViolation, "session timeout"))
	if err != nil {
		logger.L().Warn("failed to send close message", conn.logArgs("error", err)...)
	}
}

// startKeepAlive starts the keep-alive ping mechanism
func (h *WebSocketHandlers) startKeepAlive(ctx context.Context, conn *wsConnection) *time.Ticker {
	ping := time.NewTicker(wsPingInterval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ping.C:
				if err := conn.writeControl(websocket.PingMessage, nil); err != nil {
					logger.L().Warn("failed to write ping message", conn.logArgs("error", err)...)
					return
				}
			}
		}
	}()
	return ping
}

// handleOutgoing forwards controller states to the client and turns note
// changes from the user's other sessions into a Refresh.
func (h *WebSocketHandlers) handleOutgoing(ctx context.Context, conn *wsConnection, ctrl *state.Controller, states *state.Subscriber, feed *notes.Subscriber) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error("panic in WebSocket sender", conn.logArgs("error", r)...)
		}
	}()

	for {
		select {
		case st, ok := <-states.Ch:
			if !ok {
				return
			}
			if err := conn.writeJSON(stateFrame{Type: frameState, State: st}); err != nil {
				logger.L().Warn("failed to write state frame", conn.logArgs("error", err)...)
				return
			}

		case ev, ok := <-feed.Ch:
			if !ok {
				return
			}
			if ev.Origin == conn.connID || ctrl.Latest().Kind == state.KindInitial {
				continue
			}
			logger.L().Debug("foreign note change, refreshing", conn.logArgs("type", ev.Type, "note_id", ev.NoteID.Hex())...)
			if err := ctrl.Submit(ctx, state.Refresh{}); err != nil {
				return
			}

		case <-states.Done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleIncoming reads client frames until the connection drops.
func (h *WebSocketHandlers) handleIncoming(ctx context.Context, conn *wsConnection, ctrl *state.Controller) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.L().Warn("WebSocket read error", conn.logArgs("error", err)...)
			}
			return
		}

		if err := h.dispatch(ctx, conn, ctrl, data); err != nil {
			return
		}
	}
}

// dispatch handles one frame. Only transport failures are returned; domain
// errors are reported to the client as error frames.
func (h *WebSocketHandlers) dispatch(ctx context.Context, conn *wsConnection, ctrl *state.Controller, data []byte) error {
	cmd, err := decodeCommand(data)
	if err != nil {
		return conn.sendError(err)
	}

	switch cmd.Type {
	case cmdCreateReminder:
		noteID, err := parseID(cmd.NoteID, "note_id")
		if err != nil {
			return conn.sendError(err)
		}
		r, err := h.reminders.Create(ctx, conn.userID, noteID, cmd.ScheduledAt)
		return h.replyReminder(conn, r, err)

	case cmdCancelReminder:
		id, err := parseID(cmd.ID, "id")
		if err != nil {
			return conn.sendError(err)
		}
		r, err := h.reminders.Cancel(ctx, conn.userID, id)
		return h.replyReminder(conn, r, err)
	}

	intent, err := cmd.intent()
	if err != nil {
		return conn.sendError(err)
	}
	if err := ctrl.Submit(ctx, intent); err != nil {
		logger.L().Info("intent not accepted", conn.logArgs("intent", intent.Name(), "error", err)...)
		return err
	}
	return nil
}

func (h *WebSocketHandlers) replyReminder(conn *wsConnection, r *reminders.Reminder, err error) error {
	if err != nil {
		if !apperr.Expected(err) {
			logger.L().Error("reminder frame failed", conn.logArgs("error", err)...)
		}
		return conn.sendError(err)
	}
	return conn.writeJSON(reminderFrame{Type: frameReminder, Reminder: r})
}

// validateJWT verifies the query token and returns who it speaks for.
func (h *WebSocketHandlers) validateJWT(tokenString string) (bson.ObjectID, string, error) {
	id, err := auth.VerifyToken(tokenString, h.cfg.JWTSecret)
	if err != nil {
		return bson.ObjectID{}, "", err
	}
	return id.UserID, id.Email, nil
}

// LogWSConnections logs every WebSocket upgrade attempt.
// It verifies the token with jwtSecret so the logged user_id can't be spoofed.
func LogWSConnections(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			logger.L().Info("WebSocket upgrade attempt", "ip", c.IP(), "user", extractUserIDFromToken(c.Query("token"), jwtSecret))
		}
		return c.Next()
	}
}

// extractUserIDFromToken returns the verified user id of token, or "".
func extractUserIDFromToken(token, jwtSecret string) string {
	if token == "" {
		return ""
	}
	id, err := auth.VerifyToken(token, jwtSecret)
	if err != nil {
		return ""
	}
	return id.UserID.Hex()
}
