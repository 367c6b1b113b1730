package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RequestLogger registra método, ruta, estado y duración de cada petición.
// Las respuestas 5xx se registran en nivel error; el resto en debug.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// el ErrorHandler escribe la respuesta; aquí solo se registra su estado
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				return hErr
			}
		}

		status := c.Response().StatusCode()
		ev := log.Debug()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("petición http")
		return nil
	}
}
