// Package web serves the game page and its static assets.
package web

import (
	"net/http"

	"github.com/a-h/templ"
)

// Handler serves the page and, when a directory is configured, static files.
type Handler struct {
	page      templ.Component
	staticDir string
}

// NewHandler creates a page handler. staticDir may be empty.
func NewHandler(title, staticDir string) *Handler {
	return &Handler{
		page:      Page(title),
		staticDir: staticDir,
	}
}

// RegisterRoutes sets up the page routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /{$}", templ.Handler(h.page))
	if h.staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
	}
}
