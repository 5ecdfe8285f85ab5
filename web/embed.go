// Package web bundles the dashboard's page templates and browser assets into
// the binary.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed all:templates all:static
var assets embed.FS

// Templates returns the layouts, partials and pages rooted at their own
// directory names.
func Templates() (fs.FS, error) {
	return sub("templates")
}

// Static returns the files served under /static/.
func Static() (fs.FS, error) {
	return sub("static")
}

func sub(dir string) (fs.FS, error) {
	f, err := fs.Sub(assets, dir)
	if err != nil {
		return nil, fmt.Errorf("opening embedded %s: %w", dir, err)
	}
	return f, nil
}
