// Package web embeds the page templates and static assets and renders them.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"regexp"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Pages that can be rendered. Each is parsed together with the layout.
var pages = []string{"landing", "login", "register", "dashboard", "contacts", "profile"}

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// FormatMessage escapes a transcript entry and renders **bold** spans and
// line breaks.
func FormatMessage(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	escaped = boldPattern.ReplaceAllString(escaped, "<strong>$1</strong>")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return template.HTML(escaped)
}

var funcs = template.FuncMap{
	"formatMessage": FormatMessage,
	"initial": func(s string) string {
		for _, r := range s {
			return strings.ToUpper(string(r))
		}
		return ""
	},
}

type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// StaticHandler serves the embedded assets under /static/.
func StaticHandler() http.Handler {
	subFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(subFS)))
}
