package httperr

import (
	"errors"

	"scribes/internal/apperr"
	"scribes/internal/services/auth"

	"github.com/gofiber/fiber/v2"
)

// E represents an HTTP error with status code and message
type E struct {
	Status  int    `json:"-" example:"400"`
	Message string `json:"error" example:"Bad Request"`
}

// Error implements the error interface
func (e E) Error() string {
	return e.Message
}

// JSON writes the error as the response
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Fail returns the error for Fiber's global error handler to process
func Fail(err E) error {
	return err
}

// InvalidInput wraps a validation error and returns the standard response.
func InvalidInput(err error) error {
	return Fail(E{
		Status:  fiber.StatusBadRequest,
		Message: "Invalid input: " + err.Error(),
	})
}

// InternalError returns an internal server error with the given message
func InternalError(message string) E {
	return E{Status: fiber.StatusInternalServerError, Message: message}
}

// Pre-defined HTTP errors
var (
	ErrBadRequest      = E{Status: fiber.StatusBadRequest, Message: "Bad Request"}
	ErrUnauthorized    = E{Status: fiber.StatusUnauthorized, Message: "Unauthorized"}
	ErrTooManyRequests = E{Status: fiber.StatusTooManyRequests, Message: "Too Many Requests"}
	ErrInternal        = InternalError("Internal Server Error")
)

// kindStatus lists the domain error kinds in match order.
var kindStatus = []struct {
	kind   error
	status int
}{
	{apperr.ErrNotFound, fiber.StatusNotFound},
	{apperr.ErrValidation, fiber.StatusBadRequest},
	{apperr.ErrConflict, fiber.StatusConflict},
	{auth.ErrUnauthorized, fiber.StatusUnauthorized},
}

// Status maps a domain error to its HTTP status. Store failures and
// unclassified errors are 500.
func Status(err error) int {
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return ks.status
		}
	}
	return fiber.StatusInternalServerError
}

// FromError renders a domain error. The message of a store failure never
// carries the driver text.
func FromError(err error) E {
	return E{Status: Status(err), Message: apperr.Message(err)}
}

// Handler is the global error handler for Fiber
func Handler(c *fiber.Ctx, err error) error {
	var e E
	if errors.As(err, &e) {
		return e.JSON(c)
	}

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		return c.Status(fiberError.Code).JSON(E{
			Status:  fiberError.Code,
			Message: fiberError.Message,
		})
	}

	var domain *apperr.Error
	if errors.As(err, &domain) {
		return FromError(err).JSON(c)
	}

	return ErrInternal.JSON(c)
}
