// Package codec converts a vfs.Tree to and from its persisted form.
//
// Serialized Layout
// =================
//
// The persisted form is JSON-compatible nested arrays so that it can be
// stored by any blob store and read back by older and newer builds:
//
//	[                                  // SerializedTree
//	  ["/", [                          // root entry
//	    [null, {"ino":1,"type":"dir",...}],      // the directory's own metadata
//	    ["readme.md", {"ino":4,"type":"file",...}],
//	    ["src", [                                // subdirectory
//	      [null, {"ino":2,"type":"dir",...}]
//	    ]]
//	  ]]
//	]
//
// The reserved metadata key is JSON null, which can never be a filename.
// Older snapshots wrote it as a number or as the string "__meta__"; both are
// read as the metadata key when the directory has no null key.
// Sibling order follows the in-memory insertion order, so encoding the same
// tree twice yields identical output.
//
// Decoding is lenient about metadata (see vfs.CoerceInodeMeta) and about the
// historical "wrapped leaf" encoding where a file was written as a one-entry
// list holding only its metadata. It is strict about structure: anything that
// cannot be read as a directory or a file, or an inode number used twice,
// fails with vfs.ErrInvalidShape.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// SerializedTree is the flat, persistable representation of a tree.
type SerializedTree = []any

// SerializedNode is the representation of a single directory.
type SerializedNode = []any

// Serialize converts tree into its persisted form.
func Serialize(tree *vfs.Tree) SerializedTree {
	if tree == nil {
		return SerializedTree{}
	}
	return SerializedTree{
		[]any{vfs.Root, serializeDir(tree.Root())},
	}
}

func serializeDir(node *vfs.Node) SerializedNode {
	out := make(SerializedNode, 0, node.Len()+1)
	out = append(out, []any{nil, node.Meta()})
	node.Each(func(name string, child *vfs.Node) bool {
		if child.IsDir() {
			out = append(out, []any{name, serializeDir(child)})
		} else {
			out = append(out, []any{name, child.Meta()})
		}
		return true
	})
	return out
}

// legacyMetaKey is the string form of the metadata key in older snapshots.
const legacyMetaKey = "__meta__"

// Deserialize rebuilds a tree from its persisted form. The input may be the
// value returned by Serialize or the result of decoding JSON into an any.
func Deserialize(data any) (*vfs.Tree, error) {
	entries, ok := data.([]any)
	if !ok {
		return nil, shapeError("tree is not a list")
	}

	for _, raw := range entries {
		key, value, err := splitEntry(raw)
		if err != nil {
			return nil, err
		}
		if key != vfs.Root {
			continue
		}
		d := &decoder{seen: make(map[vfs.Ino]string)}
		root, err := d.node(vfs.Root, value)
		if err != nil {
			return nil, err
		}
		return vfs.NewTreeFromRoot(root)
	}
	return nil, shapeError("no root entry")
}

// decoder tracks the inodes already used while one tree is decoded.
type decoder struct {
	seen map[vfs.Ino]string
}

func (d *decoder) claim(path string, ino vfs.Ino) error {
	if other, dup := d.seen[ino]; dup {
		return shapeError("%s: ino %d already used by %s", path, ino, other)
	}
	d.seen[ino] = path
	return nil
}

func (d *decoder) node(path string, value any) (*vfs.Node, error) {
	if list, ok := value.([]any); ok {
		return d.dir(path, list)
	}
	meta, ok := vfs.CoerceInodeMeta(value)
	if !ok {
		return nil, shapeError("entry %s is neither a directory nor metadata", path)
	}
	if err := d.claim(path, meta.Ino); err != nil {
		return nil, err
	}
	if meta.IsDir() {
		return vfs.NewDirNode(meta), nil
	}
	return vfs.NewFileNode(meta), nil
}

func (d *decoder) dir(path string, list []any) (*vfs.Node, error) {
	var (
		meta       vfs.InodeMeta
		haveMeta   bool
		legacyMeta any
		haveLegacy bool
		children   []childEntry
	)

	pairs := make([][2]any, 0, len(list))
	hasNullKey := false
	for _, raw := range list {
		key, value, err := splitEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if key == nil {
			hasNullKey = true
		}
		pairs = append(pairs, [2]any{key, value})
	}

	for _, p := range pairs {
		key, value := p[0], p[1]
		switch {
		case key == nil:
			m, ok := vfs.CoerceInodeMeta(value)
			if !ok {
				return nil, shapeError("%s: unreadable metadata", path)
			}
			meta, haveMeta = m, true
		case !hasNullKey && isLegacyMetaKey(key):
			legacyMeta, haveLegacy = value, true
		default:
			name, ok := key.(string)
			if !ok {
				return nil, shapeError("%s: non-string entry name %v", path, key)
			}
			children = append(children, childEntry{name: name, value: value})
		}
	}

	if !haveMeta && haveLegacy {
		m, ok := vfs.CoerceInodeMeta(legacyMeta)
		if !ok {
			return nil, shapeError("%s: unreadable metadata", path)
		}
		meta, haveMeta = m, true
	}
	if !haveMeta {
		return nil, shapeError("%s: directory without metadata", path)
	}
	if err := d.claim(path, meta.Ino); err != nil {
		return nil, err
	}

	// A list holding only file metadata is the legacy wrapped leaf.
	if meta.IsFile() {
		if len(children) > 0 {
			return nil, shapeError("%s: file with children", path)
		}
		return vfs.NewFileNode(meta), nil
	}

	dir := vfs.NewDirNode(meta)
	for _, c := range children {
		childPath := vfs.BuildPath(path, c.name)
		child, err := d.node(childPath, c.value)
		if err != nil {
			return nil, err
		}
		if err := dir.AddChild(c.name, child); err != nil {
			return nil, shapeError("%s: %v", childPath, err)
		}
	}
	return dir, nil
}

// isLegacyMetaKey reports whether key is an older spelling of the metadata
// key: any number, or the string "__meta__".
func isLegacyMetaKey(key any) bool {
	switch k := key.(type) {
	case json.Number, float64, float32, int, int64, uint64:
		return true
	case string:
		return k == legacyMetaKey
	default:
		return false
	}
}

type childEntry struct {
	name  string
	value any
}

func splitEntry(raw any) (key any, value any, err error) {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return nil, nil, shapeError("entry is not a [key, value] pair")
	}
	return pair[0], pair[1], nil
}

func shapeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", vfs.ErrBadShape, fmt.Sprintf(format, args...))
}

// Marshal serializes tree to JSON.
func Marshal(tree *vfs.Tree) ([]byte, error) {
	data, err := json.Marshal(Serialize(tree))
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree: %w", err)
	}
	return data, nil
}

// Unmarshal decodes JSON produced by Marshal (or an older build).
func Unmarshal(data []byte) (*vfs.Tree, error) {
	raw, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Deserialize(raw)
}

// Decode parses JSON into the loosely typed form accepted by Deserialize.
// Numbers are kept as json.Number so large inode values survive.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}
	return raw, nil
}
