package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"snippets/internal/service"
)

// ListSnippets godoc
// @Summary List snippets
// @Tags snippets
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "rows to skip" default(0)
// @Success 200 {object} service.SnippetListResult
// @Failure 400 {object} errorPayload
// @Router /api/snippets [get]
func ListSnippets(svc service.SnippetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetSnippet godoc
// @Summary Get a snippet with its code
// @Tags snippets
// @Produce json
// @Param id path int true "snippet id"
// @Success 200 {object} model.Snippet
// @Failure 404 {object} errorPayload
// @Router /api/snippets/{id} [get]
func GetSnippet(svc service.SnippetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := snippetID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		sn, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return apiError(c, err)
		}
		return c.JSON(sn)
	}
}

// DeleteSnippet godoc
// @Summary Delete a snippet
// @Tags snippets
// @Param id path int true "snippet id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /api/snippets/{id} [delete]
func DeleteSnippet(svc service.SnippetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := snippetID(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return apiError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func apiError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "snippet not found")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
