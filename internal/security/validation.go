package security

import (
	"fmt"
	"strings"
)

// ValidatePathLength reports an error when path is empty or longer than
// MaxPathLen.
func ValidatePathLength(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if len(path) > MaxPathLen {
		return fmt.Errorf("path length %d exceeds limit %d", len(path), MaxPathLen)
	}
	return nil
}

// ValidateName checks a single path component: non-empty, within MaxNameLen,
// free of '/' and NUL, and not a dot component.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("name length %d exceeds limit %d", len(name), MaxNameLen)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("name contains forbidden character")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("name %q is reserved", name)
	}
	return nil
}
