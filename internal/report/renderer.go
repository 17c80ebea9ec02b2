package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/jo-hoe/termreport/internal/grading"
)

const (
	// DateLayout is the day/month/year form used on printed reports
	DateLayout = "02/01/2006"

	reportTemplate = "report"
	pageTemplate   = "print"
	styleTemplate  = "report-style"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer turns report snapshots into HTML. It performs no I/O after
// construction.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	templates, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report templates: %w", err)
	}
	return &Renderer{templates: templates}, nil
}

var templateFuncs = template.FuncMap{
	"formatDate":    FormatDate,
	"formatMarks":   FormatMarks,
	"formatPercent": FormatPercent,
	"legend":        func() []grading.ScaleBand { return grading.Legend },
}

// Render returns the report as an HTML fragment ready to be inserted into
// the form page.
func (r *Renderer) Render(rep *Report) (template.HTML, error) {
	return r.execute(reportTemplate, rep)
}

// RenderPage returns a standalone printable document for the report.
func (r *Renderer) RenderPage(rep *Report) (template.HTML, error) {
	return r.execute(pageTemplate, rep)
}

// Stylesheet returns the style block for pages that embed report fragments.
func (r *Renderer) Stylesheet() (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, styleTemplate, nil); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", styleTemplate, err)
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) execute(name string, rep *Report) (template.HTML, error) {
	if rep == nil || rep.Totals == nil {
		return "", fmt.Errorf("report has no totals")
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, rep); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// FormatDate renders t as day/month/year; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatMarks prints marks without trailing zeros (95, 42.5).
func FormatMarks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPercent prints a percentage with one decimal place.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
