package vfs

import "strings"

// ResolveKind tells whether a path resolved.
type ResolveKind int

const (
	Missing ResolveKind = iota
	Found
)

func (k ResolveKind) String() string {
	if k == Found {
		return "found"
	}
	return "missing"
}

// ResolveResult is the outcome of a path lookup.
//
// When Kind is Found, Node and Meta describe the entry. When Kind is Missing,
// At is the absolute path of the first component that could not be walked.
type ResolveResult struct {
	Kind ResolveKind
	Node *Node
	Meta InodeMeta
	At   string
}

// Found reports whether the lookup succeeded.
func (r ResolveResult) Found() bool { return r.Kind == Found }

// Resolve walks path from the root.
//
// Missing results never panic and carry the failure point:
//   - a component that does not exist yields At = the path up to and including it
//   - descending through a file yields At = the path of that file
func (t *Tree) Resolve(path string) ResolveResult {
	if t == nil || t.root == nil {
		return ResolveResult{Kind: Missing, At: Root}
	}

	parts := Segments(path)
	node := t.root
	for i, part := range parts {
		if !node.IsDir() {
			return missingAt(parts[:i])
		}
		next, ok := node.Child(part)
		if !ok {
			return missingAt(parts[:i+1])
		}
		node = next
	}
	return ResolveResult{Kind: Found, Node: node, Meta: node.meta}
}

func missingAt(parts []string) ResolveResult {
	return ResolveResult{Kind: Missing, At: Separator + strings.Join(parts, Separator)}
}

// resolveDir resolves path and requires it to be a directory.
func (t *Tree) resolveDir(op, path string) (*Node, error) {
	res := t.Resolve(path)
	if !res.Found() {
		return nil, newError(ErrNotFound, op, res.At)
	}
	if !res.Node.IsDir() {
		return nil, newError(ErrNotDirectory, op, CleanPath(path))
	}
	return res.Node, nil
}
