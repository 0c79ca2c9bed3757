package handler

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"snippets/internal/http/view"
	"snippets/internal/service"
)

const (
	pageSnippetNew    = "snippet_new"
	pageSnippetDetail = "snippet_detail"
	pageSnippetEdit   = "snippet_edit"
	pageError         = "error"
)

// Top serves the root page.
func Top() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("txt", "utf-8")
		return c.SendString("Hello World")
	}
}

// SnippetNew shows the creation form on GET and creates the snippet on POST.
func SnippetNew(svc service.SnippetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := view.Page{Title: "New snippet", Action: c.Path()}
		if c.Method() != fiber.MethodPost {
			return render(c, fiber.StatusOK, pageSnippetNew, page)
		}

		var in service.SnippetInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.ErrBadRequest
		}
		sn, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return formError(c, pageSnippetNew, page, in, err)
		}
		return redirectToDetail(c, sn.ID)
	}
}

// SnippetDetail shows a single snippet with its code.
func SnippetDetail(svc service.SnippetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := snippetID(c)
		if err != nil {
			return err
		}
		sn, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return viewError(err)
		}
		return render(c, fiber.StatusOK, pageSnippetDetail, view.Page{Title: sn.Title, Snippet: sn})
	}
}

// SnippetEdit shows the pre-filled form on GET and applies it on POST.
func SnippetEdit(svc service.SnippetService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := snippetID(c)
		if err != nil {
			return err
		}
		sn, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return viewError(err)
		}

		page := view.Page{
			Title:   "Edit " + sn.Title,
			Action:  c.Path(),
			Snippet: sn,
			Form:    view.Form{Title: sn.Title, Code: sn.Code, Description: sn.Description},
		}
		if c.Method() != fiber.MethodPost {
			return render(c, fiber.StatusOK, pageSnippetEdit, page)
		}

		var in service.SnippetInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.ErrBadRequest
		}
		if _, err := svc.Update(c.UserContext(), id, in); err != nil {
			return formError(c, pageSnippetEdit, page, in, err)
		}
		return redirectToDetail(c, id)
	}
}

// SnippetRaw redirects to a short-lived download URL for the code.
func SnippetRaw(svc service.SnippetService, expiry time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := snippetID(c)
		if err != nil {
			return err
		}
		u, err := svc.RawURL(c.UserContext(), id, expiry)
		if err != nil {
			return viewError(err)
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}

func snippetID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return id, nil
}

func viewError(err error) error {
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrInvalidID) {
		return fiber.ErrNotFound
	}
	return err
}

// formError re-renders the form with field errors, or defers to the error handler.
func formError(c *fiber.Ctx, name string, page view.Page, in service.SnippetInput, err error) error {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return viewError(err)
	}
	page.Form = view.Form{Title: in.Title, Code: in.Code, Description: in.Description}
	page.Errors = verr.Fields
	return render(c, fiber.StatusUnprocessableEntity, name, page)
}

func redirectToDetail(c *fiber.Ctx, id int64) error {
	return c.RedirectToRoute(RouteSnippetDetail, fiber.Map{"id": strconv.FormatInt(id, 10)})
}

// render executes a page through the app's view engine.
func render(c *fiber.Ctx, status int, name string, page view.Page) error {
	views := c.App().Config().Views
	if views == nil {
		return errors.New("no view engine configured")
	}
	var buf bytes.Buffer
	if err := views.Render(&buf, name, page); err != nil {
		return err
	}
	c.Status(status).Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
