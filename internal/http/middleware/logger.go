package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"snippets/internal/logging"
)

// Logger writes one access log line per request with request_id, method,
// path, route, status and latency (milliseconds, float).
func Logger(log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		own := c.Route()

		err := c.Next()

		route := unmatchedRoute
		if r := matchedRoute(c, own); r != nil {
			route = r.Name
			if route == "" {
				route = r.Path
			}
		}

		log.Log(map[string]any{
			"request_id": GetRequestID(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"route":      route,
			"status":     statusOf(c, err),
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})

		return err
	}
}
