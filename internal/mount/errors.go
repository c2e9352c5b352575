package mount

import (
	"errors"
	"syscall"

	"vaultfs/internal/vfs"
)

// toFuseError translates tree errors into the syscall errnos FUSE expects.
func toFuseError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, vfs.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, vfs.ErrExists):
		return syscall.EEXIST
	case errors.Is(err, vfs.ErrNotDir):
		return syscall.ENOTDIR
	case errors.Is(err, vfs.ErrNotFile):
		return syscall.EISDIR
	case errors.Is(err, vfs.ErrPermission):
		return syscall.EPERM
	case errors.Is(err, vfs.ErrInvalidPath), errors.Is(err, vfs.ErrTraversal):
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}
