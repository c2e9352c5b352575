// Package vfs implements the in-memory virtual filesystem: the node tree,
// its structural operations, and the binary snapshot codec.
//
// This file contains error types and error handling utilities.
package vfs

import (
	"errors"
	"fmt"

	"vaultfs/internal/errstate"
)

var (
	// ErrNotFound indicates a path or node doesn't exist
	ErrNotFound = errors.New("node not found")

	// ErrExists indicates a node already exists at the path
	ErrExists = errors.New("node already exists")

	// ErrInvalidPath indicates an invalid or malformed path
	ErrInvalidPath = errors.New("invalid path")

	// ErrTraversal indicates a path that would escape the tree root
	ErrTraversal = errors.New("path traversal rejected")

	// ErrPermission indicates an operation refused on the root node
	ErrPermission = errors.New("permission denied")

	// ErrNotDir indicates a file node where a directory was required
	ErrNotDir = errors.New("not a directory")

	// ErrNotFile indicates a directory node where a file was required
	ErrNotFile = errors.New("not a file")

	// ErrInvalidFormat indicates corrupt or truncated serialized data
	ErrInvalidFormat = errors.New("invalid snapshot format")

	// ErrDepthExceeded indicates a parent chain longer than the tree allows
	ErrDepthExceeded = errors.New("path depth exceeded")
)

// Error wraps filesystem errors with the operation and affected path to
// provide more detailed error information.
type Error struct {
	Op   string // Operation that failed (e.g., "create_file", "move")
	Path string // Affected path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// Common operation names for consistent logging and error reporting
const (
	OpCreateFile = "create_file"
	OpCreateDir  = "create_dir"
	OpFind       = "find"
	OpDelete     = "delete"
	OpRename     = "rename"
	OpMove       = "move"
	OpRead       = "read_file"
	OpWrite      = "write_file"
	OpListDir    = "list_dir"
	OpGetPath    = "get_path"
	OpEncode     = "encode"
	OpDecode     = "decode"
)

// fail builds an *Error and mirrors it into the process-wide last-error
// slot before returning it.
func fail(op, path string, err error) error {
	e := &Error{Op: op, Path: path, Err: err}
	errstate.Record(codeFor(err), "%s", e.Error())
	return e
}

func codeFor(err error) errstate.Code {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotDir):
		return errstate.NotFound
	case errors.Is(err, ErrPermission):
		return errstate.Permission
	case errors.Is(err, ErrTraversal):
		return errstate.PathTraversal
	case errors.Is(err, ErrInvalidFormat):
		return errstate.InvalidFormat
	default:
		return errstate.InvalidInput
	}
}
