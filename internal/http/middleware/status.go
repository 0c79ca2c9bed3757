package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// unmatchedRoute labels requests that no route handled.
const unmatchedRoute = "<unmatched>"

// statusOf reports the status the client will see. An error returned down the
// chain has not reached the error handler yet, so it wins over the response.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// matchedRoute returns the route that finally handled the request, or nil when
// only middleware ran. own is the caller's route, captured before c.Next; an
// unnamed route on the same prefix is another app-level middleware.
func matchedRoute(c *fiber.Ctx, own *fiber.Route) *fiber.Route {
	r := c.Route()
	if r == nil || r == own || (r.Name == "" && r.Path == own.Path) {
		return nil
	}
	return r
}
