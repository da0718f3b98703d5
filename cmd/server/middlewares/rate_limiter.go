package middlewares

import (
	"time"

	"scribes/cmd/server/handlers/httperr"
	"scribes/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// BuildRateLimiter allows max requests per client and route in every window.
// Sign-up and sign-in each get their own budget. max <= 0 disables limiting.
func BuildRateLimiter(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.L().Warn("rate limit reached", "ip", c.IP(), "path", c.Path())
			return httperr.Fail(httperr.ErrTooManyRequests)
		},
	})
}
