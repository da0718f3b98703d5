package handlerutil

import (
	"scribes/cmd/server/ctxkeys"
	"scribes/cmd/server/handlers/httperr"
	"scribes/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NotFoundError renders err as a 404.
func NotFoundError(err error) error {
	return httperr.Fail(httperr.E{
		Status:  fiber.StatusNotFound,
		Message: err.Error(),
	})
}

// GetUserID extracts user ID from fiber context
func GetUserID(c *fiber.Ctx) (bson.ObjectID, error) {
	userIDStr, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok {
		logger.L().Error("user ID not found in context", "handler", "getUserID", "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid user ID", "handler", "getUserID", "user_id", userIDStr, "path", c.Path(), "error", err)
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	return userID, nil
}

// ParseBody decodes the JSON body into req. Field rules are enforced by the
// services so the websocket path gets the same checks.
func ParseBody(c *fiber.Ctx, req any, handlerName string) error {
	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}
	return nil
}

// ParseAndValidateQuery parses query parameters and validates them
func ParseAndValidateQuery(c *fiber.Ctx, req any, validator *validator.Validate, handlerName string) error {
	if err := c.QueryParser(req); err != nil {
		logger.L().Warn("failed to parse query params", "handler", handlerName, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := validator.Struct(req); err != nil {
		logger.L().Warn("query validation failed", "handler", handlerName, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ExtractID parses the :param path segment as an ObjectID. A malformed id
// cannot match anything, so it renders as notFoundErr.
func ExtractID(c *fiber.Ctx, param, handlerName string, notFoundErr error) (bson.ObjectID, error) {
	raw := c.Params(param)
	id, err := bson.ObjectIDFromHex(raw)
	if err != nil {
		logger.L().Warn("invalid id parameter", "handler", handlerName, "param", param, "value", raw, "path", c.Path())
		return bson.ObjectID{}, NotFoundError(notFoundErr)
	}
	return id, nil
}

// HandleServiceError logs err and renders it with the status of its kind.
// Store failures never leak the driver message.
func HandleServiceError(c *fiber.Ctx, err error, handlerName string, fields ...any) error {
	logFields := append([]any{"handler", handlerName, "path", c.Path(), "error", err}, fields...)

	e := httperr.FromError(err)
	if e.Status == fiber.StatusInternalServerError {
		logger.L().Error("service operation failed", logFields...)
		return httperr.Fail(e)
	}

	logger.L().Info("request rejected", append(logFields, "status", e.Status)...)
	return httperr.Fail(e)
}
