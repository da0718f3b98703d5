package middlewares

import (
	"scribes/cmd/server/ctxkeys"
	"scribes/cmd/server/handlers/httperr"
	"scribes/internal/config"
	"scribes/internal/logger"
	"scribes/internal/services/auth"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWT verifies the Bearer token against cfg.JWTSecret and stores the caller's
// id and email in Locals. Every failure is a plain 401.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		SuccessHandler: storeIdentity,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.L().Debug("jwt rejected", "path", c.Path(), "error", err)
			return httperr.Fail(httperr.ErrUnauthorized)
		},
	})
}

func storeIdentity(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return httperr.Fail(httperr.ErrUnauthorized)
	}
	claims, _ := token.Claims.(jwt.MapClaims)
	id, err := auth.IdentityFromClaims(claims)
	if err != nil {
		logger.L().Debug("jwt claims rejected", "path", c.Path(), "error", err)
		return httperr.Fail(httperr.ErrUnauthorized)
	}
	c.Locals(ctxkeys.UserIDKey, id.UserID.Hex())
	c.Locals(ctxkeys.UserEmailKey, id.Email)
	return c.Next()
}
