package view

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/atlas-billing/atlas-billing/internal/shared"
)

// TemplateData is the envelope every page template receives.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// Engine renders server side HTML pages from the embedded template tree.
type Engine struct {
	templates *template.Template
}

// NewEngine parses the layout, partial and page templates from the
// provided filesystem. Pages define themselves as named blocks
// ("pages/<name>.html") so they can be rendered selectively.
func NewEngine(fsys fs.FS) (*Engine, error) {
	root := template.New("root").Funcs(funcMap())
	tmpl, err := root.ParseFS(fsys,
		"templates/layouts/*.html",
		"templates/partials/*.html",
		"templates/pages/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Engine{templates: tmpl}, nil
}

// Render executes the named page template with the given data.
func (e *Engine) Render(w io.Writer, name string, data TemplateData) error {
	if data.Title == "" {
		data.Title = "Atlas Billing"
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

var germanPrinter = message.NewPrinter(language.German)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney": func(amount float64) string {
			return germanPrinter.Sprintf("%.2f €", amount)
		},
		"formatPercent": func(rate float64) string {
			return germanPrinter.Sprintf("%.0f %%", rate)
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return "–"
			}
			return t.Format("02.01.2006")
		},
		"formatDatePtr": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return "–"
			}
			return t.Format("02.01.2006")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
}
