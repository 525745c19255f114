package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stockroom-ims/stockroom/internal/shared"
	"github.com/stockroom-ims/stockroom/web"
)

// Engine renders HTML pages. Each page is parsed against its own copy of the
// layouts and partials so pages can share block names.
type Engine struct {
	pages map[string]*template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flashes     []shared.FlashMessage
	CurrentPath string
	Data        any
}

var printer = message.NewPrinter(language.English)

// FuncMap lists the helpers available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"money": FormatMoney,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"navClass": func(current, prefix string) string {
			if prefix == "/" && current == "/" {
				return "active"
			}
			if prefix != "/" && strings.HasPrefix(current, prefix) {
				return "active"
			}
			return ""
		},
	}
}

// FormatMoney renders an amount with thousands separators and two decimals.
func FormatMoney(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	return NewEngineFS(web.Templates)
}

// NewEngineFS parses templates from fsys, which must hold templates/layouts,
// templates/partials and templates/pages.
func NewEngineFS(fsys fs.FS) (*Engine, error) {
	base, err := template.New("root").Funcs(FuncMap()).ParseFS(fsys, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}
	files, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		tpl, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := tpl.ParseFS(fsys, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[path.Join("pages", path.Base(file))] = tpl
	}
	return &Engine{pages: pages}, nil
}

// Render executes page name inside the base layout and writes it with status.
// Nothing is written when execution fails.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	tpl, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
