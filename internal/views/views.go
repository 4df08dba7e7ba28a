// Package views renders the server-side HTML pages from embedded templates.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/models"
)

//go:embed templates/*.html
var files embed.FS

var pages = []string{
	"createOrUpdate",
	"find",
	"list",
	"detail",
	"notfound",
	"error",
}

// FindQuery echoes the submitted search values back into the find form.
type FindQuery struct {
	ID   string
	Name string
}

type FormPage struct {
	Student *models.Student
	Errors  map[string]string
	Action  string
	Flash   string
}

type FindPage struct {
	Query  FindQuery
	Errors map[string]string
	Flash  string
}

type ListPage struct {
	Students []models.Student
	Flash    string
}

type DetailPage struct {
	Student *models.Student
	Flash   string
}

type MessagePage struct {
	Message string
	Flash   string
}

type Renderer struct {
	templates map[string]*template.Template
}

func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		t, err := template.ParseFS(files, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		r.templates[page] = t
	}

	return r, nil
}

func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data interface{}) {
	t, ok := r.templates[page]
	if !ok {
		logger.Error.Printf("Unknown page template: %s", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		// headers are gone at this point, just log it
		logger.Error.Printf("Failed to render %s: %v", page, err)
	}
}
