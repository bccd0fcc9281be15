package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/nutritracker/client/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Fragments that can be rendered on their own
const (
	FragmentCalendar = "calendar"
	FragmentSummary  = "summary"
	FragmentAdmin    = "admin"
)

// PageData is what the templates are executed with
type PageData struct {
	models.View
	// CSRFField is the hidden input carrying the CSRF token; empty when CSRF protection is off
	CSRFField template.HTML
}

// Renderer paints views into HTML
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"num": formatNumber,
	}
	templates, err := template.New("views").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{templates: templates}, nil
}

// formatNumber prints a quantity with as few digits as needed: 2000, 12.5, -200
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Page renders the whole page
//
// Output is buffered so a failing template never leaves a half-written response.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.execute(w, "layout", data)
}

// Fragment renders one named part of the page
func (r *Renderer) Fragment(w io.Writer, name string, data PageData) error {
	switch name {
	case FragmentCalendar, FragmentSummary, FragmentAdmin:
		return r.execute(w, name, data)
	default:
		return fmt.Errorf("unknown fragment %q", name)
	}
}

func (r *Renderer) execute(w io.Writer, name string, data PageData) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
