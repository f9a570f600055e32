// Package site serves the embedded dashboard pages.
package site

import (
	"context"
	"net/http"
)

// Register attaches the index page, the live monitor and static assets.
//
//	GET /          -> index.html
//	GET /camera    -> camera.html
//	GET /static/*  -> scripts and styles
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	files := FS()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(files)))
	mux.HandleFunc("GET /{$}", page(files, "index.html"))
	mux.HandleFunc("GET /camera", page(files, "camera.html"))
}

// page serves one embedded HTML file.
func page(files http.FileSystem, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := files.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, name, info.ModTime(), f)
	}
}
