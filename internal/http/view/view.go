// Package view renders the HTML pages of the snippets site.
//
// Templates are embedded, parsed once at startup and cloned per page so that
// every page shares the layout. Engine satisfies fiber.Views; handlers reach it
// through the app config.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

//go:embed templates
var files embed.FS

// DefaultLayout is the layout every page is executed through.
const DefaultLayout = "layout"

// Engine holds pre-parsed page templates keyed by page name.
type Engine struct {
	fsys  fs.FS
	pages map[string]*template.Template
}

// New returns an Engine over the embedded templates. Load must succeed before
// Render is used.
func New() *Engine {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return &Engine{fsys: sub}
}

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"lines": func(s string) int {
		return strings.Count(s, "\n") + 1
	},
}

// Load parses the layout with its partials, then every page under pages/.
// Once it has succeeded, later calls are no-ops.
func (e *Engine) Load() error {
	if e.pages != nil {
		return nil
	}

	layout, err := template.New(DefaultLayout).Funcs(funcs).ParseFS(e.fsys, "layout.html", "partials/*.html")
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(e.fsys, "pages/*.html")
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := layout.Clone()
		if err != nil {
			return fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(e.fsys, name); err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	e.pages = pages
	return nil
}

// Render executes page name through the layout. The output is buffered so a
// failing template never leaves a partial page in w.
func (e *Engine) Render(w io.Writer, name string, data interface{}, layouts ...string) error {
	t, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}
	layout := DefaultLayout
	if len(layouts) > 0 && layouts[0] != "" {
		layout = layouts[0]
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layout, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Form holds the values echoed back into the snippet form.
type Form struct {
	Title       string
	Code        string
	Description string
}

// Page is the data every template receives.
type Page struct {
	Title   string
	Action  string
	Form    Form
	Errors  map[string]string
	Snippet any
	Status  int
	Message string
}
