package vfs

import (
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is a single entry in the tree.
//
// Directories own an ordered set of named children; files have none. Child
// order is insertion order, which is what the codec persists. Nodes are only
// mutated through Tree methods.
type Node struct {
	meta     InodeMeta
	children *orderedmap.OrderedMap[string, *Node]
}

// NewFileNode returns a leaf node for the given metadata.
func NewFileNode(meta InodeMeta) *Node {
	meta.Type = FileTypeFile
	return &Node{meta: meta}
}

// NewDirNode returns an empty directory node for the given metadata.
func NewDirNode(meta InodeMeta) *Node {
	meta.Type = FileTypeDir
	meta.Size = 0
	return &Node{meta: meta, children: orderedmap.New[string, *Node]()}
}

// newNode builds a file or directory node depending on meta.Type.
func newNode(meta InodeMeta) *Node {
	if meta.IsDir() {
		return NewDirNode(meta)
	}
	return NewFileNode(meta)
}

// Meta returns a copy of the node's metadata.
func (n *Node) Meta() InodeMeta { return n.meta }

// Ino is a shortcut for Meta().Ino.
func (n *Node) Ino() Ino { return n.meta.Ino }

func (n *Node) IsDir() bool  { return n.meta.IsDir() }
func (n *Node) IsFile() bool { return n.meta.IsFile() }

// Child returns the named child of a directory.
func (n *Node) Child(name string) (*Node, bool) {
	if n.children == nil {
		return nil, false
	}
	return n.children.Get(name)
}

// Len returns the number of children (0 for files).
func (n *Node) Len() int {
	if n.children == nil {
		return 0
	}
	return n.children.Len()
}

// Names returns child names in insertion order.
func (n *Node) Names() []string {
	if n.children == nil {
		return nil
	}
	names := make([]string, 0, n.children.Len())
	for pair := n.children.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Each calls fn for every child in insertion order until fn returns false.
func (n *Node) Each(fn func(name string, child *Node) bool) {
	if n.children == nil {
		return
	}
	for pair := n.children.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Shallow returns a detached copy of n without its children. A directory
// copy has an empty child list.
func (n *Node) Shallow() *Node {
	if n == nil {
		return nil
	}
	return newNode(n.meta)
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{meta: n.meta}
	if n.children != nil {
		out.children = orderedmap.New[string, *Node](n.children.Len())
		for pair := n.children.Oldest(); pair != nil; pair = pair.Next() {
			out.children.Set(pair.Key, pair.Value.Clone())
		}
	}
	return out
}

// AddChild attaches child under name. It is meant for constructing trees
// (the codec, tests); it fails instead of overwriting.
func (n *Node) AddChild(name string, child *Node) error {
	if !n.IsDir() {
		return newError(ErrNotDirectory, "add", name)
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, exists := n.children.Get(name); exists {
		return newError(ErrAlreadyExists, "add", name)
	}
	n.children.Set(name, child)
	return nil
}

// DirEntry is one row of a directory listing.
type DirEntry struct {
	Name string
	Node *Node
}

// ListChildren returns the children of a directory sorted directories-first,
// then by name. Files have no children and yield nil.
func ListChildren(n *Node) []DirEntry {
	if n == nil || !n.IsDir() {
		return nil
	}
	entries := make([]DirEntry, 0, n.Len())
	n.Each(func(name string, child *Node) bool {
		entries = append(entries, DirEntry{Name: name, Node: child})
		return true
	})
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Node.IsDir() != b.Node.IsDir() {
			return a.Node.IsDir()
		}
		return a.Name < b.Name
	})
	return entries
}

// ValidateName checks a single path component.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, Separator) {
		return newError(ErrInvalidName, "validate", name)
	}
	return nil
}
