package http

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves the viewer's assets from a directory
type StaticHandler struct {
	dir        string
	fileServer http.Handler
	logger     *slog.Logger
}

// NewStaticHandler creates a handler over dir
func NewStaticHandler(dir string, logger *slog.Logger) *StaticHandler {
	return &StaticHandler{
		dir:        dir,
		fileServer: http.FileServer(http.Dir(dir)),
		logger:     logger.With(slog.String("handler", "static")),
	}
}

// ServeHTTP serves index.html at / and any existing file below dir.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	if clean == "/" {
		h.serveIndex(w, r)
		return
	}

	info, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	h.fileServer.ServeHTTP(w, r)
}

func (h *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	indexPath := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		h.logger.WarnContext(r.Context(), "index page missing", slog.String("path", indexPath))
		http.Error(w, "Viewer page not found", http.StatusNotFound)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, indexPath)
}
