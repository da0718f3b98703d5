// Package docs Scribes API
//
// @title  Scribes API
// @version 0.1.0
// @description Sermon notes, reminders and a live state stream over websocket.
// @host      localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package docs

import (
	_ "scribes/cmd/server/handlers/httperr"
	_ "scribes/internal/services/auth"
	_ "scribes/internal/services/notes"
	_ "scribes/internal/services/reminders"
)
