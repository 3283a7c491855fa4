package site

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static
var staticFS embed.FS

func sub() fs.FS {
	s, err := fs.Sub(staticFS, "static")
	if err != nil {
		return staticFS
	}
	return s
}

// FS returns an http.FileSystem for the embedded site.
func FS() http.FileSystem {
	return http.FS(sub())
}

func exists(path string) bool {
	_, err := fs.Stat(sub(), strings.TrimPrefix(path, "/"))
	return err == nil
}
