package server

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed all:ui
var uiFS embed.FS

// assetExtensions are never rewritten to index.html when missing.
var assetExtensions = map[string]string{
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript; charset=utf-8",
	".json":  "application/json; charset=utf-8",
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".ico":   "image/x-icon",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// handleStatic serves embedded frontend files.
// Falls back to index.html for SPA routing.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	subFS, err := fs.Sub(uiFS, "ui")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load UI files")
		return
	}

	fsPath := strings.TrimPrefix(r.URL.Path, "/")
	if fsPath == "" || strings.HasSuffix(fsPath, "/") {
		fsPath += "index.html"
	}

	ext := path.Ext(fsPath)
	file, err := subFS.Open(fsPath)
	if err != nil {
		// Unknown API paths and missing assets are real 404s; anything else
		// is a client-side route.
		_, isAsset := assetExtensions[ext]
		if strings.HasPrefix(r.URL.Path, "/api/") || isAsset {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		fsPath, ext = "index.html", ".html"
		file, err = subFS.Open(fsPath)
		if err != nil {
			writeError(w, http.StatusNotFound, "UI not available")
			return
		}
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to stat file")
		return
	}
	if stat.IsDir() {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
		return
	}

	contentType := "application/octet-stream"
	if ext == ".html" {
		contentType = "text/html; charset=utf-8"
	} else if ct, ok := assetExtensions[ext]; ok {
		contentType = ct
	}
	w.Header().Set("Content-Type", contentType)

	rs, ok := file.(io.ReadSeeker)
	if !ok {
		writeError(w, http.StatusInternalServerError, "file not seekable")
		return
	}
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), rs)
}
