package web

import (
	"embed"
	"io/fs"
)

var (
	//go:embed static
	staticFiles embed.FS

	//go:embed templates
	templateFiles embed.FS
)

// subtree roots fsys at dir. dir is always embedded, a failure is a build defect.
func subtree(fsys embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}

	return sub
}
