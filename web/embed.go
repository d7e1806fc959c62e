// Package web embeds the HTML templates for the quiz pages and renders them.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ashureev/shsh-quiz/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// CourseView is one course on the index page.
type CourseView struct {
	ID   string
	Labs []*domain.Lab
}

// IndexData feeds the index page.
type IndexData struct {
	Courses []CourseView
}

// LabData feeds the quiz page.
type LabData struct {
	Lab *domain.Lab
}

// NotFoundData feeds the 404 page. CourseID and LabID are empty for paths
// that do not name a quiz.
type NotFoundData struct {
	CourseID string
	LabID    string
	Courses  []string
}

// Pages holds the parsed page templates.
type Pages struct {
	index    *template.Template
	lab      *template.Template
	reset    *template.Template
	notFound *template.Template
}

var funcs = template.FuncMap{
	// Question text is authored markup from the questions directory.
	"markup": func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec // trusted lab content
	"rows": func(q *domain.Question) int {
		if q.Rows > 0 {
			return q.Rows
		}
		return domain.DefaultTextareaRows
	},
}

// LoadPages parses the embedded templates.
func LoadPages() (*Pages, error) {
	parse := func(page string) (*template.Template, error) {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		return t, nil
	}

	index, err := parse("index.html")
	if err != nil {
		return nil, err
	}
	lab, err := parse("lab.html")
	if err != nil {
		return nil, err
	}
	reset, err := parse("reset.html")
	if err != nil {
		return nil, err
	}
	notFound, err := parse("notfound.html")
	if err != nil {
		return nil, err
	}
	return &Pages{index: index, lab: lab, reset: reset, notFound: notFound}, nil
}

// RenderIndex writes the course index.
func (p *Pages) RenderIndex(w io.Writer, data IndexData) error {
	return p.index.ExecuteTemplate(w, "index.html", data)
}

// RenderLab writes a quiz page.
func (p *Pages) RenderLab(w io.Writer, data LabData) error {
	return p.lab.ExecuteTemplate(w, "lab.html", data)
}

// RenderReset writes the page that clears a lab's saved browser progress.
func (p *Pages) RenderReset(w io.Writer, data LabData) error {
	return p.reset.ExecuteTemplate(w, "reset.html", data)
}

// RenderNotFound writes the 404 page.
func (p *Pages) RenderNotFound(w io.Writer, data NotFoundData) error {
	return p.notFound.ExecuteTemplate(w, "notfound.html", data)
}
