package vfs

import (
	"strings"

	"vaultfs/internal/security"
)

// Dirname returns the directory portion of path. Paths without a slash
// resolve to ".", a single leading slash resolves to "/".
func Dirname(path string) string {
	path = security.Normalize(path)
	idx := strings.LastIndexByte(path, '/')
	switch {
	case idx < 0:
		return "."
	case idx == 0:
		return "/"
	default:
		return path[:idx]
	}
}

// Basename returns the last element of path. The root path yields "/".
func Basename(path string) string {
	path = security.Normalize(path)
	if path == "/" {
		return "/"
	}
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// splitPath normalizes path and returns its non-empty components. The root
// path yields an empty slice.
func splitPath(path string) []string {
	normalized := security.Normalize(path)
	parts := strings.Split(normalized, "/")
	components := parts[:0]
	for _, p := range parts {
		if p != "" {
			components = append(components, p)
		}
	}
	return components
}
