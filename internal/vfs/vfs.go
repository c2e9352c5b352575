package vfs

import (
	"strings"
	"time"

	"vaultfs/internal/logging"
	"vaultfs/internal/security"
)

// canonical normalizes a path and anchors it at the root so two spellings of
// the same location compare equal.
func canonical(path string) string {
	n := security.Normalize(path)
	if !strings.HasPrefix(n, "/") {
		n = "/" + n
	}
	return n
}

var vfsLogger = logging.GetLogger().WithPrefix("vfs")

// maxDepth bounds parent-chain walks so a malformed tree cannot loop forever.
const maxDepth = 64

// VFS owns the root directory and aggregate counters. All operations are
// synchronous and single-threaded; the type performs no internal locking.
type VFS struct {
	root       *Node
	totalNodes int
	totalSize  int64
}

// New returns a VFS containing only the root directory.
func New() *VFS {
	root := newNode("/", KindDir)
	return &VFS{root: root, totalNodes: 1}
}

// FromRoot wraps a decoded tree in a VFS, recomputing the counters from the
// tree so they are exact rather than carried over from the snapshot.
func FromRoot(root *Node) (*VFS, error) {
	if root == nil || !root.IsDir() {
		return nil, fail(OpDecode, "/", ErrInvalidFormat)
	}
	v := &VFS{root: root}
	v.recount()
	return v, nil
}

// Root returns the root directory node.
func (v *VFS) Root() *Node { return v.root }

// Stats returns the tracked node count and summed file bytes.
func (v *VFS) Stats() (nodes int, size int64) {
	return v.totalNodes, v.totalSize
}

// recount recomputes the aggregate counters from the tree. Called after a
// load so the counters are exact rather than advisory.
func (v *VFS) recount() {
	v.totalNodes, v.totalSize = v.root.countSubtree()
}

// checkPath runs the security layer over a caller-supplied path: length
// bounds first, then traversal rejection. Callers must not mutate anything
// before this passes.
func checkPath(op, path string) error {
	if err := security.ValidatePathLength(path); err != nil {
		return fail(op, path, ErrInvalidPath)
	}
	if security.IsPathTraversal(path) {
		return fail(op, path, ErrTraversal)
	}
	return nil
}

// resolve walks the normalized path from the root, scanning each directory's
// children linearly. It never mutates the tree.
func (v *VFS) resolve(path string) *Node {
	current := v.root
	for _, comp := range splitPath(path) {
		current = current.findChild(comp)
		if current == nil {
			return nil
		}
	}
	return current
}

// resolveParentForCreate resolves the directory that will hold the leaf of
// path, creating missing intermediate directories. The walk validates the
// full component chain before creating anything, so a failed create never
// leaves partial directories behind.
func (v *VFS) resolveParentForCreate(op, path string) (*Node, string, error) {
	components := splitPath(path)
	if len(components) == 0 {
		return nil, "", fail(op, path, ErrExists)
	}
	leaf := components[len(components)-1]
	parents := components[:len(components)-1]

	// Validation pass: every component must be a legal name, and every
	// existing component along the parent chain must be a directory.
	for _, comp := range components {
		if err := security.ValidateName(comp); err != nil {
			return nil, "", fail(op, path, ErrInvalidPath)
		}
	}
	current := v.root
	for _, comp := range parents {
		child := current.findChild(comp)
		if child == nil {
			break
		}
		if !child.IsDir() {
			return nil, "", fail(op, path, ErrNotDir)
		}
		current = child
	}

	// Creation pass: materialize whatever is still missing.
	current = v.root
	for _, comp := range parents {
		child := current.findChild(comp)
		if child == nil {
			child = newNode(comp, KindDir)
			current.addChild(child)
			v.totalNodes++
			vfsLogger.Debug("auto-created directory", "name", comp)
		}
		current = child
	}
	return current, leaf, nil
}

// CreateFile creates a file at path with the given content, auto-creating
// missing intermediate directories. The leaf itself must not already exist.
func (v *VFS) CreateFile(path string, data []byte) (*Node, error) {
	if err := checkPath(OpCreateFile, path); err != nil {
		return nil, err
	}

	parent, name, err := v.resolveParentForCreate(OpCreateFile, path)
	if err != nil {
		return nil, err
	}
	if parent.findChild(name) != nil {
		return nil, fail(OpCreateFile, path, ErrExists)
	}

	file := newNode(name, KindFile)
	if len(data) > 0 {
		file.data = make([]byte, len(data))
		copy(file.data, data)
	}
	parent.addChild(file)

	v.totalNodes++
	v.totalSize += int64(len(data))
	vfsLogger.Debug("created file", "path", path, "bytes", len(data))
	return file, nil
}

// CreateDir creates a directory at path, auto-creating missing intermediate
// directories. It fails when any node already exists at path.
func (v *VFS) CreateDir(path string) (*Node, error) {
	if err := checkPath(OpCreateDir, path); err != nil {
		return nil, err
	}
	if v.resolve(path) != nil {
		return nil, fail(OpCreateDir, path, ErrExists)
	}

	parent, name, err := v.resolveParentForCreate(OpCreateDir, path)
	if err != nil {
		return nil, err
	}

	dir := newNode(name, KindDir)
	parent.addChild(dir)
	v.totalNodes++
	vfsLogger.Debug("created directory", "path", path)
	return dir, nil
}

// Find resolves path against the tree without creating anything.
func (v *VFS) Find(path string) (*Node, error) {
	if err := checkPath(OpFind, path); err != nil {
		return nil, err
	}
	node := v.resolve(path)
	if node == nil {
		return nil, fail(OpFind, path, ErrNotFound)
	}
	return node, nil
}

// Delete removes the node at path, recursively for directories, wiping file
// content throughout the freed subtree. The root cannot be deleted.
func (v *VFS) Delete(path string) error {
	if err := checkPath(OpDelete, path); err != nil {
		return err
	}

	node := v.resolve(path)
	if node == nil {
		return fail(OpDelete, path, ErrNotFound)
	}
	if node == v.root || node.parent == nil {
		return fail(OpDelete, path, ErrPermission)
	}

	freedNodes, freedBytes := node.countSubtree()
	node.parent.removeChild(node)
	node.destroy()

	v.totalNodes -= freedNodes
	v.totalSize -= freedBytes
	vfsLogger.Debug("deleted node", "path", path, "freed_nodes", freedNodes, "freed_bytes", freedBytes)
	return nil
}

// Rename changes only the leaf name of the node at oldPath to the basename
// of newPath; the node stays under the same parent.
func (v *VFS) Rename(oldPath, newPath string) error {
	if err := checkPath(OpRename, oldPath); err != nil {
		return err
	}
	if err := checkPath(OpRename, newPath); err != nil {
		return err
	}

	node := v.resolve(oldPath)
	if node == nil {
		return fail(OpRename, oldPath, ErrNotFound)
	}
	if node == v.root {
		return fail(OpRename, oldPath, ErrPermission)
	}

	name := Basename(newPath)
	if err := security.ValidateName(name); err != nil {
		return fail(OpRename, newPath, ErrInvalidPath)
	}
	if node.parent != nil && node.parent.findChild(name) != nil {
		return fail(OpRename, newPath, ErrExists)
	}

	node.name = name
	node.mtime = time.Now()
	vfsLogger.Debug("renamed node", "from", oldPath, "to", name)
	return nil
}

// Move detaches the node at srcPath and reattaches it under dstPath's
// parent directory with dstPath's basename, auto-creating destination
// directories. Nothing is mutated when any check fails.
func (v *VFS) Move(srcPath, dstPath string) error {
	if err := checkPath(OpMove, srcPath); err != nil {
		return err
	}
	if err := checkPath(OpMove, dstPath); err != nil {
		return err
	}

	node := v.resolve(srcPath)
	if node == nil {
		return fail(OpMove, srcPath, ErrNotFound)
	}
	if node == v.root {
		return fail(OpMove, srcPath, ErrPermission)
	}

	// Re-parenting a directory into its own subtree would detach it from
	// the root and create a cycle. Checked before any destination
	// directories are created so a refused move mutates nothing.
	src := canonical(srcPath)
	dstDir := canonical(Dirname(dstPath))
	if dstDir == src || strings.HasPrefix(dstDir, src+"/") {
		return fail(OpMove, dstPath, ErrInvalidPath)
	}

	dstParent, dstName, err := v.resolveParentForCreate(OpMove, dstPath)
	if err != nil {
		return err
	}
	if dstParent.findChild(dstName) != nil {
		return fail(OpMove, dstPath, ErrExists)
	}
	if node.isAncestorOf(dstParent) {
		return fail(OpMove, dstPath, ErrInvalidPath)
	}

	node.parent.removeChild(node)
	node.name = dstName
	dstParent.addChild(node)
	node.mtime = time.Now()
	vfsLogger.Debug("moved node", "from", srcPath, "to", dstPath)
	return nil
}

// ReadFile returns a copy of the node's content, never an alias of the
// internal buffer.
func (v *VFS) ReadFile(node *Node) ([]byte, error) {
	if node == nil || node.kind != KindFile {
		return nil, fail(OpRead, "", ErrNotFile)
	}
	out := make([]byte, len(node.data))
	copy(out, node.data)
	return out, nil
}

// WriteFile replaces the node's content, wiping the previous buffer before
// it is released.
func (v *VFS) WriteFile(node *Node, data []byte) error {
	if node == nil || node.kind != KindFile {
		return fail(OpWrite, "", ErrNotFile)
	}

	if node.data != nil {
		v.totalSize -= int64(len(node.data))
		security.Wipe(node.data)
		node.data = nil
	}
	if len(data) > 0 {
		node.data = make([]byte, len(data))
		copy(node.data, data)
	}
	node.mtime = time.Now()
	v.totalSize += int64(len(data))
	return nil
}

// ListDir returns the directory's direct children in insertion order. The
// slice is a fresh copy; the nodes themselves are shared references.
func (v *VFS) ListDir(dir *Node) ([]*Node, error) {
	if dir == nil || dir.kind != KindDir {
		return nil, fail(OpListDir, "", ErrNotDir)
	}
	out := make([]*Node, len(dir.children))
	copy(out, dir.children)
	return out, nil
}

// Path reconstructs the absolute path of node by walking parent links to
// the root. The walk is bounded by maxDepth as a guard against malformed
// trees.
func (v *VFS) Path(node *Node) (string, error) {
	if node == nil {
		return "", fail(OpGetPath, "", ErrNotFound)
	}

	var names []string
	depth := 0
	for cur := node; cur != nil; cur = cur.parent {
		if depth++; depth > maxDepth {
			return "", fail(OpGetPath, node.name, ErrDepthExceeded)
		}
		if cur.parent == nil {
			break // root contributes only the leading slash
		}
		names = append(names, cur.name)
	}

	if len(names) == 0 {
		return "/", nil
	}
	// names were collected leaf-first
	var b []byte
	for i := len(names) - 1; i >= 0; i-- {
		b = append(b, '/')
		b = append(b, names[i]...)
	}
	return string(b), nil
}
