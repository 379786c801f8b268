// Package site serves the embedded browser playground.
package site

import (
	"context"
	"net/http"
)

const playgroundPage = "playground.html"

// Register attaches the playground routes to mux. Only the exact root path
// is claimed so other handlers keep their catch-all.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	root := NewRootHandler()
	mux.HandleFunc("GET /{$}", root.HandleRoot)
}

// RootHandler handles root path requests
type RootHandler struct {
	fs http.FileSystem
}

// NewRootHandler creates a new root handler
func NewRootHandler() *RootHandler {
	return &RootHandler{fs: FS()}
}

// HandleRoot handles GET / requests and serves the playground page, which
// posts to /predict and renders the label and polarity.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	f, err := h.fs.Open(playgroundPage)
	if err != nil {
		http.Error(w, "playground unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "playground unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, playgroundPage, info.ModTime(), f)
}
