// Package security implements the path validation layer every
// path-accepting filesystem operation passes through, plus the secure-wipe
// primitive for sensitive buffers.
package security

import "strings"

// MaxPathLen is the longest path accepted anywhere in the tree.
const MaxPathLen = 4096

// MaxNameLen is the longest single path component.
const MaxNameLen = 255

// Normalize collapses consecutive slashes into one and strips a single
// trailing slash, except for the root path itself. It does not resolve
// "." or ".." components; see IsPathTraversal for that.
func Normalize(path string) string {
	if path == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(path))
	lastSlash := false
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if !lastSlash {
				b.WriteByte('/')
				lastSlash = true
			}
			continue
		}
		b.WriteByte(path[i])
		lastSlash = false
	}

	out := b.String()
	if len(out) > 1 && out[len(out)-1] == '/' {
		out = out[:len(out)-1]
	}
	return out
}

// IsPathTraversal reports whether path would climb above the tree root once
// "." and ".." components are resolved symbolically. The real tree is never
// consulted. Absolute paths escape when more ".." components are seen than
// real components consumed; relative paths escape as soon as a ".." is left
// unconsumed.
func IsPathTraversal(path string) bool {
	if path == "" {
		return false
	}

	depth := 0
	for _, comp := range strings.Split(Normalize(path), "/") {
		switch comp {
		case "", ".":
			// no movement
		case "..":
			depth--
			if depth < 0 {
				return true
			}
		default:
			depth++
		}
	}
	return false
}

// SanitizePath filters path down to its allow-listed characters: letters,
// digits, '/', '.', '-', '_' and space. Everything else, control characters
// included, is dropped. Callers still run IsPathTraversal on the result.
func SanitizePath(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '/' || c == '.' || c == '-' || c == '_' || c == ' ':
			b.WriteByte(c)
		}
	}
	return b.String()
}
