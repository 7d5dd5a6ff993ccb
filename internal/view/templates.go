// Package view renders the site's HTML templates.
package view

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/web"
)

// Engine renders HTML templates parsed from the embedded web assets.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CurrentPath string
	UserID      string
	Role        string
	Data        any
}

// NewEngine parses templates at build time.
func NewEngine() (*Engine, error) {
	tpl, err := template.ParseFS(web.Templates, "templates/layouts/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
