package vfs

import (
	"time"

	"vaultfs/internal/security"
)

// NodeKind discriminates files from directories. There are no other kinds.
type NodeKind int

const (
	// KindFile is a regular file with an owned content buffer.
	KindFile NodeKind = iota
	// KindDir is a directory owning an insertion-ordered list of children.
	KindDir
)

// String returns "file" or "dir".
func (k NodeKind) String() string {
	if k == KindDir {
		return "dir"
	}
	return "file"
}

// Node is a single entry in the tree. A directory exclusively owns its
// children slice; the parent link is a relation used for path reconstruction
// and detaching, never a second owner.
type Node struct {
	name     string
	kind     NodeKind
	data     []byte
	mtime    time.Time
	ctime    time.Time
	parent   *Node
	children []*Node
}

func newNode(name string, kind NodeKind) *Node {
	now := time.Now()
	return &Node{
		name:  name,
		kind:  kind,
		mtime: now,
		ctime: now,
	}
}

// Name returns the node's name, unique among its siblings.
func (n *Node) Name() string { return n.name }

// Kind returns whether the node is a file or a directory.
func (n *Node) Kind() NodeKind { return n.kind }

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.kind == KindDir }

// Size returns the content length for files and the direct (non-recursive)
// child count for directories.
func (n *Node) Size() int {
	if n.kind == KindDir {
		return len(n.children)
	}
	return len(n.data)
}

// MTime returns the last modification time.
func (n *Node) MTime() time.Time { return n.mtime }

// CTime returns the creation time.
func (n *Node) CTime() time.Time { return n.ctime }

// findChild scans the directory's children for a name match. Linear scan,
// matching lookup cost to the reference behavior.
func (n *Node) findChild(name string) *Node {
	if n == nil || n.kind != KindDir {
		return nil
	}
	for _, child := range n.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

// addChild appends child to the directory, preserving insertion order.
// It fails when a sibling already carries the name.
func (n *Node) addChild(child *Node) bool {
	if n == nil || child == nil || n.kind != KindDir {
		return false
	}
	if n.findChild(child.name) != nil {
		return false
	}
	child.parent = n
	n.children = append(n.children, child)
	n.mtime = time.Now()
	return true
}

// removeChild detaches child from the directory without destroying it.
func (n *Node) removeChild(child *Node) bool {
	if n == nil || child == nil || n.kind != KindDir {
		return false
	}
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			n.mtime = time.Now()
			return true
		}
	}
	return false
}

// destroy wipes file content throughout the subtree and severs links so the
// nodes cannot be reached through stale references.
func (n *Node) destroy() {
	if n == nil {
		return
	}
	for _, child := range n.children {
		child.destroy()
	}
	if n.kind == KindFile && n.data != nil {
		security.Wipe(n.data)
		n.data = nil
	}
	n.children = nil
	n.parent = nil
}

// isAncestorOf reports whether n appears on other's parent chain (or is
// other itself). Used to refuse moves that would create a cycle.
func (n *Node) isAncestorOf(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// countSubtree returns the node count and summed file bytes of the subtree
// rooted at n, n included.
func (n *Node) countSubtree() (nodes int, bytes int64) {
	if n == nil {
		return 0, 0
	}
	nodes = 1
	if n.kind == KindFile {
		bytes = int64(len(n.data))
	}
	for _, child := range n.children {
		cn, cb := child.countSubtree()
		nodes += cn
		bytes += cb
	}
	return nodes, bytes
}
