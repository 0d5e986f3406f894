package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const loggerKey = "request_logger"

// RequestLogger builds a request-scoped logger carrying a request id and
// stores it in the request locals. Components receive this logger
// explicitly; there is no mutable global logging state.
func RequestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := base.With().
			Str("request_id", uuid.NewString()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Logger()
		c.Locals(loggerKey, logger)
		return c.Next()
	}
}

// Logger retrieves the request-scoped logger.
func Logger(c *fiber.Ctx) zerolog.Logger {
	if logger, ok := c.Locals(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}
