package telegram_webhook

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

const slowRequest = 500 * time.Millisecond

// requestLogger logs every request at debug level and raises slow or failed
// requests to warn.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		level := slog.LevelDebug
		if status >= fiber.StatusBadRequest || latency >= slowRequest {
			level = slog.LevelWarn
		}
		logger.Log(c.UserContext(), level, "http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", latency,
		)
		return err
	}
}
