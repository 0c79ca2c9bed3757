package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"snippets/internal/service"
)

// Route names. They are the stable identifiers of the site's pages.
const (
	RouteTop           = "top"
	RouteSnippetNew    = "snippet_new"
	RouteSnippetDetail = "snippet_detail"
	RouteSnippetEdit   = "snippet_edit"
	RouteSnippetRaw    = "snippet_raw"
)

// idParam matches unsigned decimal ids only.
const idParam = ":id<regex(^[0-9]+$)>"

const snippetPath = "/snippets/" + idParam

// Route binds a named view to a method and a path pattern.
type Route struct {
	Name    string
	Method  string
	Path    string
	Handler fiber.Handler
}

// Deps are the collaborators handlers are built from.
type Deps struct {
	DB            *sql.DB
	Snippets      service.SnippetService
	PresignExpiry time.Duration
}

// Routes returns the page route table. Paths are matched exactly: case and
// trailing slashes are significant.
func Routes(d Deps) []Route {
	snippetNew := SnippetNew(d.Snippets)
	snippetEdit := SnippetEdit(d.Snippets)

	return []Route{
		{RouteTop, fiber.MethodGet, "/", Top()},
		{RouteSnippetNew, fiber.MethodGet, "/snippets/new/", snippetNew},
		{RouteSnippetNew, fiber.MethodPost, "/snippets/new/", snippetNew},
		{RouteSnippetDetail, fiber.MethodGet, snippetPath, SnippetDetail(d.Snippets)},
		{RouteSnippetEdit, fiber.MethodGet, snippetPath + "/edit/", snippetEdit},
		{RouteSnippetEdit, fiber.MethodPost, snippetPath + "/edit/", snippetEdit},
		{RouteSnippetRaw, fiber.MethodGet, snippetPath + "/raw", SnippetRaw(d.Snippets, d.PresignExpiry)},
	}
}

// Register attaches routes to router under their names.
func Register(router fiber.Router, routes []Route) {
	for _, r := range routes {
		router.Add(r.Method, r.Path, r.Handler).Name(r.Name)
	}
}

// NewApp returns a Fiber app configured for the site: standardized errors,
// strict case-sensitive routing and the given view engine.
func NewApp(views fiber.Views) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:       "snippets",
		ErrorHandler:  ErrorHandler(),
		StrictRouting: true,
		CaseSensitive: true,
		Views:         views,
	})
}

// RegisterRoutes attaches the pages, the JSON API and the health probes.
func RegisterRoutes(app fiber.Router, d Deps) {
	Register(app, Routes(d))

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api/snippets")
	api.Get("", ListSnippets(d.Snippets))
	api.Get("/"+idParam, GetSnippet(d.Snippets))
	api.Delete("/"+idParam, DeleteSnippet(d.Snippets))
}
