package vfs

import (
	"strings"
)

// Separator is the path separator. Paths are always absolute and
// "/"-delimited; there is no notion of a host filesystem here.
const Separator = "/"

// Root is the path of the tree root.
const Root = "/"

// Segments splits a path into its non-empty components.
// Leading, trailing and repeated separators are ignored.
func Segments(path string) []string {
	raw := strings.Split(path, Separator)
	out := raw[:0]
	for _, part := range raw {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CleanPath returns the canonical absolute form of path ("/a/b").
func CleanPath(path string) string {
	parts := Segments(path)
	if len(parts) == 0 {
		return Root
	}
	return Separator + strings.Join(parts, Separator)
}

// BuildPath joins a parent directory path and a child name.
func BuildPath(parentPath, name string) string {
	if parentPath == Root || parentPath == "" {
		return Separator + name
	}
	return parentPath + Separator + name
}

// SplitPath splits a path into its parent directory and final component.
// It returns ok=false for the root, which has no name.
func SplitPath(path string) (parentPath, name string, ok bool) {
	parts := Segments(path)
	if len(parts) == 0 {
		return "", "", false
	}
	name = parts[len(parts)-1]
	if len(parts) == 1 {
		return Root, name, true
	}
	return Separator + strings.Join(parts[:len(parts)-1], Separator), name, true
}

// ResolveFilename returns the last component of path, or ok=false for root.
func ResolveFilename(path string) (string, bool) {
	_, name, ok := SplitPath(path)
	return name, ok
}

// GetFileExtension returns the lower-cased extension of the file named by
// path, without the dot. Dotfiles such as ".env" have no extension.
func GetFileExtension(path string) string {
	name, ok := ResolveFilename(path)
	if !ok {
		return ""
	}
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// NormalizeRelativePath cleans an untrusted relative path: backslashes become
// separators, "." components are dropped and ".." pops the previous component
// without ever escaping the base. The result has no leading separator.
func NormalizeRelativePath(raw string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, "\\", Separator))
	out := make([]string, 0, 8)
	for _, part := range Segments(cleaned) {
		switch part {
		case ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}
	return strings.Join(out, Separator)
}

// JoinPath appends a relative path (normalized with NormalizeRelativePath)
// to an absolute base.
func JoinPath(base, relative string) string {
	rel := NormalizeRelativePath(relative)
	if rel == "" {
		return CleanPath(base)
	}
	b := CleanPath(base)
	if b == Root {
		return Root + rel
	}
	return b + Separator + rel
}

// HasPathPrefix reports whether path equals prefix or lies beneath it.
func HasPathPrefix(path, prefix string) bool {
	path, prefix = CleanPath(path), CleanPath(prefix)
	if prefix == Root {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+Separator)
}

// ReplacePathPrefix rewrites path from oldPrefix to newPrefix. The second
// return value is false when path is not under oldPrefix.
func ReplacePathPrefix(path, oldPrefix, newPrefix string) (string, bool) {
	if !HasPathPrefix(path, oldPrefix) {
		return path, false
	}
	path, oldPrefix = CleanPath(path), CleanPath(oldPrefix)
	rest := strings.TrimPrefix(path, oldPrefix)
	if oldPrefix == Root {
		rest = path
	}
	return CleanPath(newPrefix + rest), true
}
