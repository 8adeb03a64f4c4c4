// Package assets serves the calculator's front-end bundle.
package assets

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

//go:embed public
var embedded embed.FS

// Bundle returns the front-end files: dir when set, otherwise the bundle
// compiled into the binary.
func Bundle(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "public")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: errors.New("not a directory")}
	}
	return os.DirFS(dir), nil
}

// Handler serves files from bundle. Paths that do not name a file fall back
// to index.html so the page can be reloaded on any route.
func Handler(bundle fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(bundle))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "."
		}

		if info, err := fs.Stat(bundle, name); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		// Missing files under the asset prefix are real 404s.
		if strings.HasPrefix(name, "assets/") {
			http.NotFound(w, r)
			return
		}

		http.ServeFileFS(w, r, bundle, "index.html")
	})
}
