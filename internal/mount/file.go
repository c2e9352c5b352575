package mount

import (
	"context"

	"bazil.org/fuse"

	"vaultfs/internal/vfs"
)

// File serves a file node over FUSE. The node's whole content lives in
// memory, so reads and writes operate on the full buffer.
type File struct {
	fs   *FS
	node *vfs.Node
}

// Attr implements the Node interface.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	a.Mode = 0644
	a.Size = uint64(f.node.Size())
	a.Mtime = f.node.MTime()
	a.Ctime = f.node.CTime()
	a.Uid = f.fs.uid
	a.Gid = f.fs.gid
	a.BlockSize = 4096
	a.Blocks = (uint64(f.node.Size()) + 511) / 512
	return nil
}

// ReadAll returns the full content.
func (f *File) ReadAll(_ context.Context) ([]byte, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	data, err := f.fs.vault.ReadFile(f.node)
	if err != nil {
		return nil, toFuseError(err)
	}
	return data, nil
}

// Write splices req.Data into the content at req.Offset, extending the file
// when the write runs past the end.
func (f *File) Write(_ context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	data, err := f.fs.vault.ReadFile(f.node)
	if err != nil {
		return toFuseError(err)
	}

	end := int(req.Offset) + len(req.Data)
	if end > len(data) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	}
	copy(data[req.Offset:], req.Data)

	if err := f.fs.vault.WriteFile(f.node, data); err != nil {
		return toFuseError(err)
	}
	resp.Size = len(req.Data)
	return nil
}

// Setattr handles truncation; other attribute changes are accepted and
// ignored since the tree tracks no permissions.
func (f *File) Setattr(_ context.Context, req *fuse.SetattrRequest, _ *fuse.SetattrResponse) error {
	if !req.Valid.Size() {
		return nil
	}

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	data, err := f.fs.vault.ReadFile(f.node)
	if err != nil {
		return toFuseError(err)
	}
	size := int(req.Size)
	if size == len(data) {
		return nil
	}
	if size < len(data) {
		data = data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, data)
		data = grown
	}
	return toFuseError(f.fs.vault.WriteFile(f.node, data))
}

// Fsync is a no-op; persistence happens through snapshot saves.
func (f *File) Fsync(_ context.Context, _ *fuse.FsyncRequest) error {
	return nil
}
