package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/0xPuncker/cron-console/pkg/types"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// Static returns the embedded stylesheet and script files.
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func RunIcon(class types.RunClass) string {
	switch class {
	case types.RunClassSuccess:
		return "✓"
	case types.RunClassError:
		return "✕"
	default:
		return "…"
	}
}

var funcMap = template.FuncMap{
	"RunIcon": RunIcon,
}

// Renderer executes the console templates. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("console").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the named template. Output is buffered so a failing template
// never leaves a half-written page.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) RenderPage(w io.Writer, page CronPage) error {
	return r.Render(w, "layout", page)
}
