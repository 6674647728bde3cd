// Package snapshot defines the persistent blob store that holds whole-state
// snapshots of a workspace filesystem.
//
// A snapshot is an opaque byte value saved under a name. The filesystem
// store serializes its persisted state to JSON and saves it here; on startup
// it loads the same name back. Saves replace the whole value.
package snapshot

import (
	"context"
	"errors"
	"strings"
)

// Store is a string-keyed blob store.
type Store interface {
	// Load returns the bytes saved under name. ok is false when nothing has
	// been saved yet; that is not an error.
	Load(ctx context.Context, name string) (data []byte, ok bool, err error)

	// Save replaces the bytes saved under name.
	Save(ctx context.Context, name string, data []byte) error
}

// ErrInvalidName is returned for snapshot names that cannot be stored.
var ErrInvalidName = errors.New("invalid snapshot name")

// ValidateName rejects empty names and names containing path separators.
// File-backed stores use the name as a file name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
