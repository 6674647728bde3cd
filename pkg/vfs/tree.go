package vfs

import (
	"errors"
	"time"
)

// Tree is the rooted directory hierarchy.
//
// All mutators are all-or-nothing: when they return an error the tree is
// exactly as it was before the call.
type Tree struct {
	root *Node
}

// NewTree returns a tree containing only a root directory with the given
// metadata.
func NewTree(rootMeta InodeMeta) *Tree {
	return &Tree{root: NewDirNode(rootMeta)}
}

// NewTreeFromRoot wraps an existing root node, which must be a directory.
func NewTreeFromRoot(root *Node) (*Tree, error) {
	if root == nil || !root.IsDir() {
		return nil, newError(ErrInvalidShape, "tree", Root)
	}
	return &Tree{root: root}, nil
}

// Root returns the root directory node.
func (t *Tree) Root() *Node { return t.root }

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.Clone()}
}

// Insert adds a new entry named name under the directory at dirPath.
//
// It fails with ErrNotFound or ErrNotDirectory when dirPath does not name a
// directory, ErrInvalidName for an illegal name and ErrAlreadyExists when the
// name is taken. The caller supplies the metadata, including a fresh Ino.
func (t *Tree) Insert(dirPath, name string, meta InodeMeta) (*Node, error) {
	dir, err := t.resolveDir("create", dirPath)
	if err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, newError(ErrInvalidName, "create", BuildPath(CleanPath(dirPath), name))
	}
	if _, exists := dir.Child(name); exists {
		return nil, newError(ErrAlreadyExists, "create", BuildPath(CleanPath(dirPath), name))
	}

	node := newNode(meta)
	dir.children.Set(name, node)
	return node, nil
}

// Rename changes the name of the entry at path within its parent directory.
//
// The node value itself is moved, so its inode, metadata and children are
// preserved. Renaming onto an existing name fails with ErrAlreadyExists;
// renaming to the same name is a no-op.
func (t *Tree) Rename(path, newName string) error {
	parentPath, name, ok := SplitPath(path)
	if !ok {
		return newError(ErrInvalidName, "rename", Root)
	}
	parent, err := t.resolveDir("rename", parentPath)
	if err != nil {
		return err
	}
	node, ok := parent.Child(name)
	if !ok {
		return newError(ErrNotFound, "rename", CleanPath(path))
	}
	if err := ValidateName(newName); err != nil {
		return newError(ErrInvalidName, "rename", BuildPath(parentPath, newName))
	}
	if newName == name {
		return nil
	}
	if _, exists := parent.Child(newName); exists {
		return newError(ErrAlreadyExists, "rename", BuildPath(parentPath, newName))
	}

	parent.children.Delete(name)
	parent.children.Set(newName, node)
	return nil
}

// Remove detaches the entry at path (with its whole subtree) and returns it.
func (t *Tree) Remove(path string) (*Node, error) {
	parentPath, name, ok := SplitPath(path)
	if !ok {
		return nil, newError(ErrInvalidName, "remove", Root)
	}
	parent, err := t.resolveDir("remove", parentPath)
	if err != nil {
		return nil, err
	}
	node, ok := parent.children.Delete(name)
	if !ok {
		return nil, newError(ErrNotFound, "remove", CleanPath(path))
	}
	return node, nil
}

// UpdateFileStats sets the size of the file at path and bumps its mtime.
func (t *Tree) UpdateFileStats(path string, size int64, now time.Time) error {
	res := t.Resolve(path)
	if !res.Found() {
		return newError(ErrNotFound, "stat", res.At)
	}
	if res.Node.IsDir() {
		return newError(ErrIsDirectory, "stat", CleanPath(path))
	}
	res.Node.meta.Size = size
	res.Node.meta.MtimeMs = now.UnixMilli()
	return nil
}

// errStopWalk lets FindIno end a walk early.
var errStopWalk = errors.New("stop walk")

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(path string, node *Node) error

// Walk visits every node depth-first in child order, starting at the root.
// Returning an error from fn stops the walk and is returned by Walk.
func (t *Tree) Walk(fn WalkFunc) error {
	return walk(Root, t.root, fn)
}

func walk(path string, node *Node, fn WalkFunc) error {
	if err := fn(path, node); err != nil {
		return err
	}
	var err error
	node.Each(func(name string, child *Node) bool {
		err = walk(BuildPath(path, name), child, fn)
		return err == nil
	})
	return err
}

// FindIno returns the current path of the entry with the given inode.
func (t *Tree) FindIno(ino Ino) (string, bool) {
	var found string
	err := t.Walk(func(path string, node *Node) error {
		if node.meta.Ino == ino {
			found = path
			return errStopWalk
		}
		return nil
	})
	return found, errors.Is(err, errStopWalk)
}

// MaxIno returns the largest inode number present in the tree.
func (t *Tree) MaxIno() Ino {
	var max Ino
	_ = t.Walk(func(_ string, node *Node) error {
		if node.meta.Ino > max {
			max = node.meta.Ino
		}
		return nil
	})
	return max
}

// Count returns the number of entries in the tree, root included.
func (t *Tree) Count() int {
	n := 0
	_ = t.Walk(func(string, *Node) error { n++; return nil })
	return n
}

// CollectInos returns the inodes of every file in the subtree rooted at node.
// Directories are skipped since they have no content.
func CollectInos(node *Node) []Ino {
	var inos []Ino
	_ = walk(Root, node, func(_ string, n *Node) error {
		if n.IsFile() {
			inos = append(inos, n.meta.Ino)
		}
		return nil
	})
	return inos
}
