// Package errstate keeps the process-wide record of the most recent
// filesystem failure. Operations return errors as usual; this slot exists so
// interactive callers (the shell's `err` builtin, status lines) can report
// the last failure without threading it through every call site. Callers
// that handle an expected failure should Clear it so stale diagnostics do
// not leak into later output.
package errstate

import (
	"fmt"
	"sync"
)

// Code classifies a failure.
type Code int

const (
	// OK means no error has been recorded.
	OK Code = iota
	// InvalidInput covers malformed or missing arguments.
	InvalidInput
	// NotFound covers missing paths or nodes.
	NotFound
	// Permission covers refused operations, such as deleting the root.
	Permission
	// PathTraversal covers paths that attempt to escape the tree root.
	PathTraversal
	// InvalidFormat covers corrupt or truncated serialized data.
	InvalidFormat
	// IO covers disk read/write failures.
	IO
)

var codeNames = map[Code]string{
	OK:            "ok",
	InvalidInput:  "invalid input",
	NotFound:      "not found",
	Permission:    "permission denied",
	PathTraversal: "path traversal",
	InvalidFormat: "invalid format",
	IO:            "io error",
}

// String returns the human-readable name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

var (
	mu      sync.Mutex
	last    Code
	lastMsg string
)

// Record stores code and a formatted message as the most recent error.
func Record(code Code, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	last = code
	lastMsg = fmt.Sprintf(format, args...)
}

// Last returns the most recently recorded code and message.
func Last() (Code, string) {
	mu.Lock()
	defer mu.Unlock()
	return last, lastMsg
}

// Clear resets the slot to OK.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	last = OK
	lastMsg = ""
}
