// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/yorticia/yorticia-site/models"
)

//go:embed templates/*.html content/*.md static
var files embed.FS

// CacheControl is sent with rendered pages that are the same for every visitor
const CacheControl = "public, max-age=300"

// Raw HTML in markdown is escaped since WithUnsafe is not set
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Typographer, extension.Linkify),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

// Data is passed to every page template
type Data struct {
	Title       string
	Description string
	Active      string
	SiteURL     string

	Content    template.HTML
	Categories []models.CategorySummary
	Category   models.Category
	Images     []models.Image
	Events     []models.Event
	// Unix ms the form was rendered, echoed back by the contact form
	StartedAt int64
	Year      int
}

// Renderer holds the parsed templates and the rendered markdown copy
type Renderer struct {
	pages   map[string]*template.Template
	content map[string]template.HTML
	siteURL string
}

func New(siteURL string) (*Renderer, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"time": func(t time.Time) string { return t.Format("3:04 PM") },
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		pages:   make(map[string]*template.Template),
		content: make(map[string]template.HTML),
		siteURL: strings.TrimRight(siteURL, "/"),
	}

	for _, name := range names {
		page := strings.TrimSuffix(path.Base(name), ".html")
		if page == "layout" {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(files, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.pages[page] = t
	}

	mds, err := fs.Glob(files, "content/*.md")
	if err != nil {
		return nil, err
	}
	for _, name := range mds {
		src, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := markdown.Convert(src, &buf); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", name, err)
		}
		r.content[strings.TrimSuffix(path.Base(name), ".md")] = template.HTML(buf.String())
	}

	return r, nil
}

// Static serves the embedded stylesheet and other assets under /static/
func Static() http.Handler {
	return http.FileServerFS(files)
}

// Content returns rendered markdown copy by name ("bio", "about")
func (r *Renderer) Content(name string) template.HTML {
	return r.content[name]
}

// Render writes page inside the shared layout. Non-200 pages are not cached.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Data) {
	t, ok := r.pages[page]
	if !ok {
		slog.Error("unknown page template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data.SiteURL = r.siteURL
	data.Year = time.Now().Year()

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		slog.Error("failed to render page", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// error pages and forms stamped at render time must not be shared
	if status == http.StatusOK && data.StartedAt == 0 {
		w.Header().Set("Cache-Control", CacheControl)
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
