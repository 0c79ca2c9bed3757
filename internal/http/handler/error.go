package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"snippets/internal/http/middleware"
	"snippets/internal/http/view"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

func classify(status int) (code, message string) {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST", "bad request"
	case fiber.StatusNotFound:
		return "NOT_FOUND", "resource not found"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED", "method not allowed"
	default:
		return "INTERNAL_ERROR", "internal server error"
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Clients that prefer HTML get the error page when the app has views; everyone
// else gets the JSON envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		code, message := classify(status)

		if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMETextHTML {
			page := view.Page{Title: utils.StatusMessage(status), Status: status, Message: message}
			if render(c, status, pageError, page) == nil {
				return nil
			}
		}
		return writeError(c, status, code, message)
	}
}
