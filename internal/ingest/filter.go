// Package ingest uploads image files from a local directory into a dataset,
// once or continuously as files appear.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects files by doublestar patterns matched against the
// slash-separated, lower-cased path relative to the ingest root.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter validates the patterns. With no include pattern every file matches.
func NewFilter(include, exclude []string) (*Filter, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return &Filter{include: include, exclude: exclude}, nil
}

// Match reports whether the relative path is selected.
func (f *Filter) Match(relPath string) bool {
	p := strings.ToLower(filepath.ToSlash(relPath))
	for _, pat := range f.exclude {
		if ok, _ := doublestar.Match(pat, p); ok {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pat := range f.include {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}

// hidden reports whether a path element is a dot file or directory.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
