package mount

import (
	"context"
	"os"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"vaultfs/internal/vfs"
)

// Dir serves a directory node over FUSE.
type Dir struct {
	fs   *FS
	node *vfs.Node
}

// Attr implements the Node interface.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	a.Mode = os.ModeDir | 0755
	a.Mtime = d.node.MTime()
	a.Ctime = d.node.CTime()
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid
	return nil
}

// Lookup finds a direct child by name.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	children, err := d.fs.vault.ListDir(d.node)
	if err != nil {
		return nil, toFuseError(err)
	}
	for _, child := range children {
		if child.Name() != name {
			continue
		}
		if child.IsDir() {
			return &Dir{fs: d.fs, node: child}, nil
		}
		return &File{fs: d.fs, node: child}, nil
	}
	return nil, syscall.ENOENT
}

// ReadDirAll lists the directory in tree order.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	children, err := d.fs.vault.ListDir(d.node)
	if err != nil {
		return nil, toFuseError(err)
	}

	entries := []fuse.Dirent{
		{Name: ".", Type: fuse.DT_Dir},
		{Name: "..", Type: fuse.DT_Dir},
	}
	for _, child := range children {
		t := fuse.DT_File
		if child.IsDir() {
			t = fuse.DT_Dir
		}
		entries = append(entries, fuse.Dirent{Name: child.Name(), Type: t})
	}
	return entries, nil
}

// Mkdir creates a child directory.
func (d *Dir) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	node, err := d.fs.vault.CreateDir(d.childPath(req.Name))
	if err != nil {
		return nil, toFuseError(err)
	}
	return &Dir{fs: d.fs, node: node}, nil
}

// Create makes an empty child file and opens it.
func (d *Dir) Create(_ context.Context, req *fuse.CreateRequest, _ *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	node, err := d.fs.vault.CreateFile(d.childPath(req.Name), nil)
	if err != nil {
		return nil, nil, toFuseError(err)
	}
	file := &File{fs: d.fs, node: node}
	return file, file, nil
}

// Remove deletes a child. rmdir refuses non-empty directories the way the
// kernel expects even though the tree itself deletes recursively.
func (d *Dir) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	children, err := d.fs.vault.ListDir(d.node)
	if err != nil {
		return toFuseError(err)
	}
	for _, child := range children {
		if child.Name() != req.Name {
			continue
		}
		if req.Dir {
			if !child.IsDir() {
				return syscall.ENOTDIR
			}
			if child.Size() > 0 {
				return syscall.ENOTEMPTY
			}
		} else if child.IsDir() {
			return syscall.EISDIR
		}
		return toFuseError(d.fs.vault.Delete(d.childPath(req.Name)))
	}
	return syscall.ENOENT
}

// Rename moves a child into newDir under a new name.
func (d *Dir) Rename(_ context.Context, req *fuse.RenameRequest, newDir fusefs.Node) error {
	target, ok := newDir.(*Dir)
	if !ok {
		return syscall.EINVAL
	}

	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	oldPath := d.childPath(req.OldName)
	newPath := target.childPath(req.NewName)
	return toFuseError(d.fs.vault.Move(oldPath, newPath))
}

// childPath builds the absolute path of a direct child. Callers hold fs.mu.
func (d *Dir) childPath(name string) string {
	base := d.fs.path(d.node)
	if base == "/" {
		return "/" + name
	}
	return base + "/" + name
}
