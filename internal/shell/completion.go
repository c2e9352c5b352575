package shell

import (
	"strings"

	"vaultfs/internal/errstate"
)

// Completions returns the tree entries matching a partially typed path. The
// returned strings keep whatever directory part the prefix carried, and
// directories get a trailing slash so completion can keep descending.
func (s *Shell) Completions(prefix string) []string {
	dirPart := ""
	namePart := prefix
	if idx := strings.LastIndex(prefix, "/"); idx >= 0 {
		dirPart = prefix[:idx+1]
		namePart = prefix[idx+1:]
	}

	searchPath := s.cwd
	if dirPart != "" {
		searchPath = s.fullPath(dirPart)
	}
	dir, err := s.fs.Find(searchPath)
	if err != nil || !dir.IsDir() {
		if err != nil {
			errstate.Clear()
		}
		return nil
	}
	children, err := s.fs.ListDir(dir)
	if err != nil {
		errstate.Clear()
		return nil
	}

	var out []string
	for _, child := range children {
		if !strings.HasPrefix(child.Name(), namePart) {
			continue
		}
		cand := dirPart + child.Name()
		if child.IsDir() {
			cand += "/"
		}
		out = append(out, cand)
	}
	return out
}

// builtinCompletions returns the builtin names matching a partially typed
// command word.
func builtinCompletions(prefix string) []string {
	var out []string
	for _, b := range builtins {
		if strings.HasPrefix(b.name, prefix) {
			out = append(out, b.name)
		}
	}
	return out
}

// commonPrefix returns the longest prefix shared by all candidates.
func commonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0]
	for _, item := range items[1:] {
		for !strings.HasPrefix(item, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
