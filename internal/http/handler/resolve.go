package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNoRoute          = errors.New("no route matches path")
	ErrMethodNotAllowed = errors.New("route does not accept method")
)

// Match is the outcome of resolving a path.
type Match struct {
	Name    string            `json:"name"`
	Pattern string            `json:"pattern"`
	Params  map[string]string `json:"params"`
}

// Resolver maps request paths to route names. Matching is done by Fiber's own
// router over a shadow app whose handlers only report which route they are,
// so resolving never runs a view.
type Resolver struct {
	app *fiber.App
}

// NewResolver builds a Resolver over routes. Only names, methods and paths
// are used.
func NewResolver(routes []Route) *Resolver {
	app := fiber.New(fiber.Config{
		StrictRouting:         true,
		CaseSensitive:         true,
		DisableStartupMessage: true,
	})
	for _, r := range routes {
		name, pattern := r.Name, r.Path
		app.Add(r.Method, r.Path, func(c *fiber.Ctx) error {
			return c.JSON(Match{Name: name, Pattern: pattern, Params: c.AllParams()})
		})
	}
	return &Resolver{app: app}
}

// Resolve returns the route serving method and path.
func (r *Resolver) Resolve(method, path string) (Match, error) {
	req, err := http.NewRequest(method, "http://resolver.local"+path, nil)
	if err != nil {
		return Match{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	resp, err := r.app.Test(req, -1)
	if err != nil {
		return Match{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case fiber.StatusOK:
	case fiber.StatusMethodNotAllowed:
		return Match{}, fmt.Errorf("%w: %s %s", ErrMethodNotAllowed, method, path)
	default:
		return Match{}, fmt.Errorf("%w: %s", ErrNoRoute, path)
	}

	var m Match
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return Match{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	return m, nil
}
