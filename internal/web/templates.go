package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// markdown renders assistant output. Raw HTML in model output is not passed
// through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderMarkdown converts model markdown to HTML for the transcript view.
func RenderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		// Fall back to escaped plain text.
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

// templateFuncs provides helper functions available in all templates.
var templateFuncs = template.FuncMap{
	"markdown": RenderMarkdown,
}

// loadTemplates parses the layout and each page template. Each page template
// is a clone of the layout with the page-specific blocks overridden. Panics on
// syntax errors so that startup fails fast.
func loadTemplates() map[string]*template.Template {
	layout := template.Must(
		template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html"),
	)

	pages := []string{"chat.html"}
	result := make(map[string]*template.Template, len(pages))

	for _, page := range pages {
		t := template.Must(layout.Clone())
		template.Must(t.ParseFS(templateFiles, "templates/"+page))
		result[page] = t
	}

	return result
}

// render executes a named page template with the shared layout.
func (s *WebServer) render(w http.ResponseWriter, name string, data any) {
	t, ok := s.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		s.logger.Error("template render failed", "template", name, "error", err)
	}
}

// staticHandler serves the embedded JS/CSS assets.
func staticHandler() http.Handler {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(subFS))
}
