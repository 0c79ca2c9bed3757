package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"snippets/docs"
)

// RegisterSwagger serves the Swagger UI under /swagger/*. host is fixed into the
// generated document once, before any request is served; an empty host lets the
// UI use the origin it was loaded from.
func RegisterSwagger(router fiber.Router, host string) {
	docs.SwaggerInfo.Host = host
	docs.SwaggerInfo.Schemes = nil

	router.Get("/swagger/*", swagger.HandlerDefault)
}
