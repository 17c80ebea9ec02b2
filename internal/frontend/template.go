package frontend

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

const viewsPattern = "views/*.html"

//go:embed views/*.html
var templateFS embed.FS

//go:embed views/icon.svg
var assetsFS embed.FS

// Template renders the embedded page and fragment templates for echo.
type Template struct {
	templates *template.Template
}

func newTemplate() (*Template, error) {
	templates, err := template.New("").ParseFS(templateFS, viewsPattern)
	if err != nil {
		return nil, err
	}
	return &Template{templates: templates}, nil
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}
