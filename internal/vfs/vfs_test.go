package vfs

import (
	"bytes"
	"errors"
	"testing"
)

func TestCreateFileAutoCreatesParents(t *testing.T) {
	v := New()

	file, err := v.CreateFile("/a/b/c.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if file.Kind() != KindFile || file.Size() != 5 {
		t.Errorf("unexpected file node: kind=%v size=%d", file.Kind(), file.Size())
	}

	for _, dir := range []string{"/a", "/a/b"} {
		node, err := v.Find(dir)
		if err != nil {
			t.Fatalf("intermediate %s missing: %v", dir, err)
		}
		if !node.IsDir() {
			t.Errorf("intermediate %s is not a directory", dir)
		}
	}

	nodes, size := v.Stats()
	if nodes != 4 { // root, a, b, c.txt
		t.Errorf("expected 4 nodes, got %d", nodes)
	}
	if size != 5 {
		t.Errorf("expected total size 5, got %d", size)
	}
}

func TestCreateFileErrors(t *testing.T) {
	v := New()
	if _, err := v.CreateFile("/docs/a.txt", []byte("x")); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"already exists", "/docs/a.txt", ErrExists},
		{"parent is a file", "/docs/a.txt/nested.txt", ErrNotDir},
		{"traversal", "/../etc/passwd", ErrTraversal},
		{"empty path", "", ErrInvalidPath},
		{"root path", "/", ErrExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.CreateFile(tt.path, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateFile(%q) error = %v, expected %v", tt.path, err, tt.want)
			}
		})
	}
}

func TestCreateFileNoPartialMutationOnFailure(t *testing.T) {
	v := New()
	if _, err := v.CreateFile("/a/file", []byte("x")); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	before, _ := v.Stats()

	// /a/file is a file, so the parent chain is invalid; /a/new must not
	// appear either.
	if _, err := v.CreateFile("/a/file/deep/leaf.txt", nil); !errors.Is(err, ErrNotDir) {
		t.Fatalf("expected ErrNotDir, got %v", err)
	}

	after, _ := v.Stats()
	if before != after {
		t.Errorf("node count changed on failed create: %d -> %d", before, after)
	}
}

func TestCreateDir(t *testing.T) {
	v := New()

	if _, err := v.CreateDir("/x/y/z"); err != nil {
		t.Fatalf("CreateDir failed: %v", err)
	}
	if _, err := v.CreateDir("/x/y/z"); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists for existing directory, got %v", err)
	}
	// An existing file at the path also blocks the create
	if _, err := v.CreateFile("/x/f", nil); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if _, err := v.CreateDir("/x/f"); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists for existing file, got %v", err)
	}
}

func TestDeleteRootFails(t *testing.T) {
	v := New()
	if err := v.Delete("/"); !errors.Is(err, ErrPermission) {
		t.Errorf("expected ErrPermission deleting root, got %v", err)
	}
}

func TestDeleteRecursiveUpdatesCounters(t *testing.T) {
	v := New()
	mustCreateFile(t, v, "/d/one.txt", []byte("11"))
	mustCreateFile(t, v, "/d/sub/two.txt", []byte("222"))

	if err := v.Delete("/d"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := v.Find("/d"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected /d gone, got %v", err)
	}

	nodes, size := v.Stats()
	if nodes != 1 || size != 0 {
		t.Errorf("expected pristine counters after delete, got nodes=%d size=%d", nodes, size)
	}
}

func TestRename(t *testing.T) {
	v := New()
	mustCreateFile(t, v, "/docs/a.txt", []byte("x"))
	mustCreateFile(t, v, "/docs/b.txt", nil)

	if err := v.Rename("/docs/a.txt", "/docs/renamed.txt"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if _, err := v.Find("/docs/renamed.txt"); err != nil {
		t.Errorf("renamed node not found: %v", err)
	}
	if _, err := v.Find("/docs/a.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old name still resolves: %v", err)
	}

	// Collision with a sibling
	if err := v.Rename("/docs/renamed.txt", "/docs/b.txt"); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists on sibling collision, got %v", err)
	}
	// Root cannot be renamed
	if err := v.Rename("/", "/newroot"); !errors.Is(err, ErrPermission) {
		t.Errorf("expected ErrPermission renaming root, got %v", err)
	}
}

func TestRenameDoesNotRelocate(t *testing.T) {
	v := New()
	mustCreateFile(t, v, "/a/f.txt", nil)

	// rename uses only the basename of the new path
	if err := v.Rename("/a/f.txt", "/elsewhere/g.txt"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if _, err := v.Find("/a/g.txt"); err != nil {
		t.Errorf("node should stay under /a: %v", err)
	}
	if _, err := v.Find("/elsewhere/g.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("node must not relocate on rename")
	}
}

func TestMove(t *testing.T) {
	v := New()
	mustCreateFile(t, v, "/src/f.txt", []byte("data"))

	if err := v.Move("/src/f.txt", "/dst/sub/g.txt"); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	node, err := v.Find("/dst/sub/g.txt")
	if err != nil {
		t.Fatalf("moved node not found: %v", err)
	}
	content, _ := v.ReadFile(node)
	if !bytes.Equal(content, []byte("data")) {
		t.Errorf("content lost in move: %q", content)
	}
	if _, err := v.Find("/src/f.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("source still resolves after move")
	}
}

func TestMoveCollisionLeavesTreesUntouched(t *testing.T) {
	v := New()
	mustCreateFile(t, v, "/src/f.txt", []byte("source"))
	mustCreateFile(t, v, "/dst/f.txt", []byte("existing"))
	nodesBefore, sizeBefore := v.Stats()

	if err := v.Move("/src/f.txt", "/dst/f.txt"); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	src, err := v.Find("/src/f.txt")
	if err != nil {
		t.Fatalf("source vanished on failed move: %v", err)
	}
	content, _ := v.ReadFile(src)
	if string(content) != "source" {
		t.Errorf("source content mutated: %q", content)
	}
	dst, _ := v.Find("/dst/f.txt")
	content, _ = v.ReadFile(dst)
	if string(content) != "existing" {
		t.Errorf("destination content mutated: %q", content)
	}

	nodesAfter, sizeAfter := v.Stats()
	if nodesBefore != nodesAfter || sizeBefore != sizeAfter {
		t.Errorf("counters changed on failed move")
	}
}

func TestMoveIntoOwnSubtreeRefused(t *testing.T) {
	v := New()
	if _, err := v.CreateDir("/a/b"); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if err := v.Move("/a", "/a/b/a2"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath moving dir under itself, got %v", err)
	}
	if _, err := v.Find("/a/b"); err != nil {
		t.Errorf("tree damaged by refused move: %v", err)
	}
}

func TestReadFileReturnsCopy(t *testing.T) {
	v := New()
	node := mustCreateFile(t, v, "/f", []byte("abc"))

	content, err := v.ReadFile(node)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	content[0] = 'X'

	again, _ := v.ReadFile(node)
	if string(again) != "abc" {
		t.Errorf("internal buffer aliased by ReadFile result")
	}
}

func TestWriteFile(t *testing.T) {
	v := New()
	node := mustCreateFile(t, v, "/f", []byte("old content"))

	if err := v.WriteFile(node, []byte("new")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	content, _ := v.ReadFile(node)
	if string(content) != "new" {
		t.Errorf("unexpected content %q", content)
	}
	_, size := v.Stats()
	if size != 3 {
		t.Errorf("expected total size 3, got %d", size)
	}

	dir, _ := v.CreateDir("/d")
	if err := v.WriteFile(dir, []byte("x")); !errors.Is(err, ErrNotFile) {
		t.Errorf("expected ErrNotFile writing a directory, got %v", err)
	}
}

func TestListDirInsertionOrder(t *testing.T) {
	v := New()
	names := []string{"charlie", "alpha", "bravo"}
	for _, name := range names {
		mustCreateFile(t, v, "/d/"+name, nil)
	}

	dir, err := v.Find("/d")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	children, err := v.ListDir(dir)
	if err != nil {
		t.Fatalf("ListDir failed: %v", err)
	}
	if len(children) != len(names) {
		t.Fatalf("expected %d children, got %d", len(names), len(children))
	}
	for i, name := range names {
		if children[i].Name() != name {
			t.Errorf("child %d = %q, expected %q (insertion order)", i, children[i].Name(), name)
		}
	}
}

func TestPathReconstruction(t *testing.T) {
	v := New()
	node := mustCreateFile(t, v, "/a/b/c.txt", nil)

	path, err := v.Path(node)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if path != "/a/b/c.txt" {
		t.Errorf("Path = %q, expected /a/b/c.txt", path)
	}

	rootPath, err := v.Path(v.Root())
	if err != nil || rootPath != "/" {
		t.Errorf("root Path = %q, %v", rootPath, err)
	}
}

func TestPathHelpers(t *testing.T) {
	tests := []struct {
		path string
		dir  string
		base string
	}{
		{"/a/b/c.txt", "/a/b", "c.txt"},
		{"/f", "/", "f"},
		{"/", "/", "/"},
		{"plain", ".", "plain"},
		{"/a/b/", "/a", "b"},
	}
	for _, tt := range tests {
		if got := Dirname(tt.path); got != tt.dir {
			t.Errorf("Dirname(%q) = %q, expected %q", tt.path, got, tt.dir)
		}
		if got := Basename(tt.path); got != tt.base {
			t.Errorf("Basename(%q) = %q, expected %q", tt.path, got, tt.base)
		}
	}
}

func mustCreateFile(t *testing.T, v *VFS, path string, data []byte) *Node {
	t.Helper()
	node, err := v.CreateFile(path, data)
	if err != nil {
		t.Fatalf("CreateFile(%q) failed: %v", path, err)
	}
	return node
}
