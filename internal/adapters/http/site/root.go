// Package site serves the embedded dashboard page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded dashboard routes to mux. The dashboard is
// served at / and catches every path no other route claims.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/", NewRootHandler().HandleRoot)
}

// RootHandler serves the dashboard page and its assets.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{files: http.FileServer(FS())}
}

// HandleRoot handles GET requests for the dashboard page and its assets.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}
