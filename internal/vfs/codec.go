package vfs

import (
	"bytes"
	"encoding/binary"
	"time"

	"vaultfs/internal/security"
)

// Snapshot wire format, all integers little-endian, no padding:
//
//	header: 8-byte magic, uint32 version
//	node record:
//	  uint32 tag (tagNone | tagFile | tagDir)
//	  uint32 name length N
//	  N+1 bytes NUL-terminated name
//	  uint64 content length (files) / child count at write time (dirs)
//	  int64 mtime, int64 ctime (Unix seconds)
//	  files: content bytes when length > 0
//	  dirs:  uint32 child count, then that many node records
//
// Records are written depth-first pre-order. Child order is insertion
// order and survives a round-trip.

const (
	// codecMagic identifies a decrypted vaultfs snapshot.
	codecMagic = "VAULTFS1"
	// codecVersion is the current snapshot format version.
	codecVersion uint32 = 1
)

// Node tags. Zero is reserved as the explicit "no node" sentinel so a
// truncated or zeroed buffer can never alias a real record.
const (
	tagNone uint32 = 0
	tagFile uint32 = 1
	tagDir  uint32 = 2
)

const (
	headerSize     = len(codecMagic) + 4
	nodeFixedSize  = 4 + 4 + 8 + 8 + 8 // tag, name len, size, mtime, ctime
	maxDecodeNames = 1 << 20           // caps a corrupt child count before allocation
)

// encodedSize mirrors every field encodeNode will emit, so the write pass
// runs against an exactly sized buffer and never reallocates.
func encodedSize(n *Node) int {
	if n == nil {
		return 4 // sentinel tag
	}
	size := nodeFixedSize + len(n.name) + 1
	if n.kind == KindFile {
		size += len(n.data)
	} else {
		size += 4 // child count
		for _, child := range n.children {
			size += encodedSize(child)
		}
	}
	return size
}

// Encode serializes the tree rooted at root, header included.
func Encode(root *Node) ([]byte, error) {
	if root == nil {
		return nil, fail(OpEncode, "", ErrInvalidPath)
	}

	buf := make([]byte, 0, headerSize+encodedSize(root))
	buf = append(buf, codecMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, codecVersion)
	buf = encodeNode(buf, root)
	return buf, nil
}

func encodeNode(buf []byte, n *Node) []byte {
	if n == nil {
		return binary.LittleEndian.AppendUint32(buf, tagNone)
	}

	tag := tagFile
	if n.kind == KindDir {
		tag = tagDir
	}
	buf = binary.LittleEndian.AppendUint32(buf, tag)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.name)))
	buf = append(buf, n.name...)
	buf = append(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(n.Size()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(n.mtime.Unix()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(n.ctime.Unix()))

	if n.kind == KindFile {
		buf = append(buf, n.data...)
		return buf
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(n.children)))
	for _, child := range n.children {
		buf = encodeNode(buf, child)
	}
	return buf
}

// decoder reads the snapshot stream with a bounds check before every field
// access. Any failure aborts the whole decode; partially built subtrees are
// destroyed before the error propagates.
type decoder struct {
	buf []byte
	off int
}

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) u32(field string) (uint32, error) {
	if d.remaining() < 4 {
		return 0, fail(OpDecode, field, ErrInvalidFormat)
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) u64(field string) (uint64, error) {
	if d.remaining() < 8 {
		return 0, fail(OpDecode, field, ErrInvalidFormat)
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

func (d *decoder) take(n int, field string) ([]byte, error) {
	if n < 0 || d.remaining() < n {
		return nil, fail(OpDecode, field, ErrInvalidFormat)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

// Decode reconstructs a tree from a snapshot buffer produced by Encode. On
// any error the caller receives nil and no partially built tree survives.
func Decode(buf []byte) (*Node, error) {
	d := &decoder{buf: buf}

	magic, err := d.take(len(codecMagic), "magic")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, []byte(codecMagic)) {
		return nil, fail(OpDecode, "magic", ErrInvalidFormat)
	}
	version, err := d.u32("version")
	if err != nil {
		return nil, err
	}
	if version != codecVersion {
		return nil, fail(OpDecode, "version", ErrInvalidFormat)
	}

	root, err := d.node(nil)
	if err != nil {
		return nil, err
	}
	if root == nil || !root.IsDir() {
		return nil, fail(OpDecode, "root", ErrInvalidFormat)
	}
	return root, nil
}

// node reads one record. Recursion depth is bounded by the input itself:
// every nested record consumes at least nodeFixedSize bytes of buf.
func (d *decoder) node(parent *Node) (*Node, error) {
	tag, err := d.u32("tag")
	if err != nil {
		return nil, err
	}
	if tag == tagNone {
		return nil, nil
	}
	if tag != tagFile && tag != tagDir {
		return nil, fail(OpDecode, "tag", ErrInvalidFormat)
	}

	nameLen, err := d.u32("name length")
	if err != nil {
		return nil, err
	}
	if nameLen == 0 || nameLen > security.MaxNameLen {
		return nil, fail(OpDecode, "name length", ErrInvalidFormat)
	}
	nameBytes, err := d.take(int(nameLen)+1, "name")
	if err != nil {
		return nil, err
	}
	if nameBytes[nameLen] != 0 {
		return nil, fail(OpDecode, "name terminator", ErrInvalidFormat)
	}
	// The root record is named "/"; every other name must be a legal path
	// component, so a crafted snapshot cannot smuggle in separators or NULs.
	name := string(nameBytes[:nameLen])
	if parent == nil {
		if name != "/" {
			return nil, fail(OpDecode, "name", ErrInvalidFormat)
		}
	} else if err := security.ValidateName(name); err != nil {
		return nil, fail(OpDecode, "name", ErrInvalidFormat)
	}

	size, err := d.u64("size")
	if err != nil {
		return nil, err
	}
	mtime, err := d.u64("mtime")
	if err != nil {
		return nil, err
	}
	ctime, err := d.u64("ctime")
	if err != nil {
		return nil, err
	}

	node := &Node{
		name:   name,
		parent: parent,
		mtime:  time.Unix(int64(mtime), 0),
		ctime:  time.Unix(int64(ctime), 0),
	}

	if tag == tagFile {
		node.kind = KindFile
		if size > 0 {
			content, err := d.take(int(size), "content")
			if err != nil {
				return nil, err
			}
			node.data = make([]byte, size)
			copy(node.data, content)
		}
		return node, nil
	}

	node.kind = KindDir
	childCount, err := d.u32("child count")
	if err != nil {
		node.destroy()
		return nil, err
	}
	if childCount > maxDecodeNames {
		node.destroy()
		return nil, fail(OpDecode, "child count", ErrInvalidFormat)
	}
	for i := uint32(0); i < childCount; i++ {
		child, err := d.node(node)
		if err != nil {
			node.destroy()
			return nil, err
		}
		if child == nil || node.findChild(child.name) != nil {
			node.destroy()
			return nil, fail(OpDecode, "child", ErrInvalidFormat)
		}
		node.children = append(node.children, child)
	}
	return node, nil
}
