package server

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	"Musarty/logger"
)

//go:embed web
var embeddedWeb embed.FS

const placeholderIcon = "assets/placeholder.svg"

// webAssets serves the player UI, from the binary or from a directory on
// disk during development.
type webAssets struct {
	fsys fs.FS
	live bool
}

func newWebAssets(dir string) *webAssets {
	if dir != "" {
		logger.Info("serving UI from disk", logger.String("dir", dir))
		return &webAssets{fsys: os.DirFS(dir), live: true}
	}
	sub, err := fs.Sub(embeddedWeb, "web")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return &webAssets{fsys: sub}
}

func (a *webAssets) fileServer() http.Handler {
	h := http.FileServer(http.FS(a.fsys))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.cacheHeaders(w)
		h.ServeHTTP(w, r)
	})
}

// page serves one HTML file for an exact route.
func (a *webAssets) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(a.fsys, name)
		if err != nil {
			logger.Error("missing UI page", logger.String("page", name), logger.ErrorField(err))
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		a.cacheHeaders(w)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	}
}

// placeholder returns the artwork used when a station has no usable icon.
func (a *webAssets) placeholder() []byte {
	data, err := fs.ReadFile(a.fsys, placeholderIcon)
	if err != nil {
		data, _ = fs.ReadFile(embeddedWeb, "web/"+placeholderIcon)
	}
	return data
}

func (a *webAssets) cacheHeaders(w http.ResponseWriter) {
	if a.live {
		w.Header().Set("Cache-Control", "no-store")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
}
