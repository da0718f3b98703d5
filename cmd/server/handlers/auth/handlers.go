package auth

import (
	"context"

	"scribes/cmd/server/handlers/handlerutil"
	"scribes/internal/services/auth"
	"scribes/internal/utils/validate"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuthService defines the interface for auth service
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.AuthResponse, error)
	SignIn(ctx context.Context, req auth.SignInRequest) (*auth.AuthResponse, error)
	ChangePassword(ctx context.Context, userID bson.ObjectID, req auth.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userID bson.ObjectID) error
}

// Handlers contains the auth HTTP handlers
type Handlers struct {
	authService AuthService
	validator   *validator.Validate
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, validator *validator.Validate) *Handlers {
	return &Handlers{
		authService: authService,
		validator:   validator,
	}
}

// SignUp handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignUpRequest true "Sign up request"
// @Success 201 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Failure 409 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/sign-up [post]
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req auth.SignUpRequest
	if err := handlerutil.ParseBody(c, &req, "SignUp"); err != nil {
		return err
	}

	if err := validate.Struct(c.UserContext(), h.validator, req); err != nil {
		return handlerutil.HandleServiceError(c, err, "SignUp")
	}

	resp, err := h.authService.SignUp(c.UserContext(), req)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "SignUp")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// SignIn handles user authentication
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignInRequest true "Sign in request"
// @Success 200 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/sign-in [post]
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	var req auth.SignInRequest
	if err := handlerutil.ParseBody(c, &req, "SignIn"); err != nil {
		return err
	}

	if err := validate.Struct(c.UserContext(), h.validator, req); err != nil {
		return handlerutil.HandleServiceError(c, err, "SignIn")
	}

	resp, err := h.authService.SignIn(c.UserContext(), req)
	if err != nil {
		return handlerutil.HandleServiceError(c, err, "SignIn")
	}

	return c.JSON(resp)
}

// ChangePassword replaces the password of the signed-in user
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body auth.ChangePasswordRequest true "Change password request"
// @Success 204
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /me/change-password [post]
func (h *Handlers) ChangePassword(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req auth.ChangePasswordRequest
	if err := handlerutil.ParseBody(c, &req, "ChangePassword"); err != nil {
		return err
	}
	if err := validate.Struct(c.UserContext(), h.validator, req); err != nil {
		return handlerutil.HandleServiceError(c, err, "ChangePassword")
	}

	if err := h.authService.ChangePassword(c.UserContext(), userID, req); err != nil {
		return handlerutil.HandleServiceError(c, err, "ChangePassword")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteAccount removes the signed-in user with all notes and reminders
// @Summary Delete account
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 204
// @Failure 401 {object} httperr.E
// @Router /me [delete]
func (h *Handlers) DeleteAccount(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.authService.DeleteAccount(c.UserContext(), userID); err != nil {
		return handlerutil.HandleServiceError(c, err, "DeleteAccount")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
