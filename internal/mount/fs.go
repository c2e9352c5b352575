// Package mount exposes the virtual filesystem through FUSE so ordinary
// tools can browse it while the snapshot stays encrypted on disk. The tree
// itself is single-threaded, so every FUSE handler runs under one mutex.
package mount

import (
	"fmt"
	"os"
	"sync"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"vaultfs/internal/logging"
	"vaultfs/internal/vfs"
)

var logger = logging.GetLogger().WithPrefix("mount")

// FS adapts a vfs.VFS to the bazil fuse/fs interfaces.
type FS struct {
	vault *vfs.VFS
	conn  *fuse.Conn
	uid   uint32
	gid   uint32

	// mu serializes all access to the tree.
	mu sync.Mutex
}

// NewFS wraps the filesystem for mounting. Files appear owned by the
// current user.
func NewFS(vault *vfs.VFS) *FS {
	return &FS{
		vault: vault,
		uid:   uint32(os.Getuid()),
		gid:   uint32(os.Getgid()),
	}
}

// Root implements fusefs.FS.
func (f *FS) Root() (fusefs.Node, error) {
	return &Dir{fs: f, node: f.vault.Root()}, nil
}

func waitForMount(mountPoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountPoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Mount attaches the filesystem at mountPoint and serves FUSE requests in
// the background.
func (f *FS) Mount(mountPoint string) error {
	logger.Info("mounting filesystem", "mountpoint", mountPoint)

	mountOpts := []fuse.MountOption{
		fuse.FSName("vaultfs"),
		fuse.Subtype("vaultfs"),
		fuse.DefaultPermissions(),
		fuse.AllowNonEmptyMount(),
	}

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	f.conn = c

	go func() {
		if err := fusefs.Serve(c, f); err != nil {
			logger.Error("fuse server error", "err", err)
		}
	}()

	if err := waitForMount(mountPoint); err != nil {
		c.Close()
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}

	logger.Info("filesystem mounted")
	return nil
}

// Unmount detaches the filesystem.
func (f *FS) Unmount(mountPoint string) error {
	logger.Info("unmounting filesystem", "mountpoint", mountPoint)
	if f.conn == nil {
		return nil
	}
	if err := fuse.Unmount(mountPoint); err != nil {
		logger.Error("unmount failed", "err", err)
		return err
	}
	return f.conn.Close()
}

// path returns the node's absolute path, or "/" when reconstruction fails.
func (f *FS) path(node *vfs.Node) string {
	p, err := f.vault.Path(node)
	if err != nil {
		return "/"
	}
	return p
}
