package main

import (
	"time"

	"scribes/cmd/server/handlers"
	authHandlers "scribes/cmd/server/handlers/auth"
	"scribes/cmd/server/handlers/httperr"
	notesHandlers "scribes/cmd/server/handlers/notes"
	remindersHandlers "scribes/cmd/server/handlers/reminders"
	"scribes/cmd/server/middlewares"
	"scribes/internal/config"
	"scribes/internal/logger"
	"scribes/internal/utils/validate"

	_ "scribes/docs" // Load swagger docs

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RateLimitExpiration = 1 * time.Minute
)

// NoteService is everything the notes routes and the websocket sessions need.
type NoteService interface {
	notesHandlers.Service
}

// routerDeps are the services the routes are built on.
type routerDeps struct {
	Store     handlers.Pinger
	Auth      authHandlers.AuthService
	Notes     NoteService
	Reminders remindersHandlers.Manager
	Hub       notesHandlers.Hub
	Registry  *prometheus.Registry
}

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(cfg config.Config, deps routerDeps) *fiber.App {
	v := validate.New()

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true, // make Fiber copy all request-derived strings
	})

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Authorization",
	}))

	if cfg.RouteMetricsEnabled && deps.Registry != nil {
		middlewares.AttachMetrics(app, deps.Registry)
	}

	// Health check endpoint, outside versioned API to appease scanners and to avoid logging
	app.Get("/healthz", handlers.Healthz(deps.Store))

	app.Get("/docs/*", swagger.HandlerDefault)

	var v1 fiber.Router
	if cfg.RequestLoggingEnabled {
		v1 = app.Group("/api/v1", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	jwtMiddleware := middlewares.JWT(cfg)

	// Auth routes
	authH := authHandlers.NewHandlers(deps.Auth, v)
	authGrp := v1.Group("/auth", middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration))
	authGrp.Post("/sign-up", authH.SignUp)
	authGrp.Post("/sign-in", authH.SignIn)

	// Notes routes
	notesH := notesHandlers.NewHandlers(deps.Notes)
	remindersH := remindersHandlers.NewHandlers(deps.Reminders, v)

	notesGrp := v1.Group("/notes", jwtMiddleware)
	notesGrp.Post("/", notesH.Create)
	notesGrp.Get("/", notesH.List)
	notesGrp.Get("/recent", notesH.Recent)
	notesGrp.Get("/:id", notesH.Get)
	notesGrp.Patch("/:id", notesH.Update)
	notesGrp.Delete("/:id", notesH.Delete)
	notesGrp.Get("/:id/reminders", remindersH.ListByNote)

	// Reminder routes
	remGrp := v1.Group("/reminders", jwtMiddleware)
	remGrp.Post("/", remindersH.Create)
	remGrp.Get("/", remindersH.List)
	remGrp.Get("/upcoming", remindersH.Upcoming)
	remGrp.Get("/stats", remindersH.Stats)
	remGrp.Post("/bulk", remindersH.Bulk)
	remGrp.Get("/:id", remindersH.Get)
	remGrp.Patch("/:id", remindersH.Reschedule)
	remGrp.Delete("/:id", remindersH.Delete)
	remGrp.Post("/:id/cancel", remindersH.Cancel)

	// WebSocket routes
	wsHandlers := notesHandlers.NewWebSocketHandlers(deps.Hub, deps.Notes, deps.Reminders, notesHandlers.SessionConfig{
		JWTSecret:     cfg.JWTSecret,
		MaxSessionSec: cfg.WSMaxSessionSec,
		QueueSize:     cfg.ControllerQueueSize,
		OutboxSize:    cfg.WSOutboxBuffer,
	})
	app.Use("/ws", notesHandlers.LogWSConnections(cfg.JWTSecret))
	app.Get("/ws/notes/stream", wsHandlers.WSUpgrade, websocket.New(wsHandlers.WSNotesStream))

	// Account endpoints
	v1.Get("/me", jwtMiddleware, handlers.Me)
	v1.Delete("/me", jwtMiddleware, authH.DeleteAccount)
	v1.Post("/me/change-password", jwtMiddleware,
		middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration), authH.ChangePassword)

	return app
}
