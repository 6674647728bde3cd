// Package content defines the byte store that holds file content.
//
// Separation of Concerns:
//
// The content store manages only raw file bytes, addressed by inode number.
// It knows nothing about paths, names or directories: the vfs tree is the
// single source of truth for which inodes are live. Bytes whose inode no
// longer appears in the tree are orphans; they never resolve to a path and
// may be deleted opportunistically.
//
// Write Semantics:
//   - Read of an inode that was never written returns empty content, not an
//     error. New files are empty by definition.
//   - Write replaces the whole value. There is no partial or append write.
//   - Delete is idempotent.
//
// Implementations must be safe for concurrent use.
package content

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Store is a key-value byte store keyed by inode.
type Store interface {
	// Read returns the bytes stored for ino, or an empty slice if nothing has
	// been written. The returned slice is owned by the caller.
	Read(ctx context.Context, ino vfs.Ino) ([]byte, error)

	// Write replaces the bytes stored for ino. A failed write leaves the
	// previous bytes authoritative.
	Write(ctx context.Context, ino vfs.Ino, data []byte) error

	// Delete removes the bytes stored for ino. Deleting absent content
	// succeeds.
	Delete(ctx context.Context, ino vfs.Ino) error
}

// Closer is implemented by stores that hold resources (databases, files).
type Closer interface {
	Close() error
}

// Lister is implemented by stores that can enumerate what they hold. It is
// used to find orphaned content.
type Lister interface {
	List(ctx context.Context) ([]vfs.Ino, error)
}

// List enumerates the inodes s holds, or fails with ErrNotSupported.
func List(ctx context.Context, s Store) ([]vfs.Ino, error) {
	l, ok := s.(Lister)
	if !ok {
		return nil, ErrNotSupported
	}
	return l.List(ctx)
}

// ReadText reads the content of ino and decodes it as UTF-8. Invalid byte
// sequences are replaced with U+FFFD.
func ReadText(ctx context.Context, s Store, ino vfs.Ino) (string, error) {
	data, err := s.Read(ctx, ino)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// WriteText encodes text as UTF-8 and writes it for ino.
func WriteText(ctx context.Context, s Store, ino vfs.Ino, text string) error {
	return s.Write(ctx, ino, []byte(text))
}

// Open forces a lazily opened store to connect. Stores that are ready on
// construction succeed immediately.
func Open(ctx context.Context, s Store) error {
	if o, ok := s.(interface{ Open(context.Context) error }); ok {
		return o.Open(ctx)
	}
	return nil
}

// Close closes s if it holds resources.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

// StorageStats describes what a store currently holds.
type StorageStats struct {
	// ContentCount is the number of inodes with stored bytes.
	ContentCount uint64

	// UsedSize is the sum of all stored values in bytes.
	UsedSize uint64

	// AverageSize is UsedSize / ContentCount, 0 when empty.
	AverageSize uint64
}

// StatsProvider is implemented by stores that can report StorageStats.
type StatsProvider interface {
	GetStorageStats(ctx context.Context) (*StorageStats, error)
}

// NewStorageStats builds StorageStats from a count and total size.
func NewStorageStats(count, used uint64) *StorageStats {
	stats := &StorageStats{ContentCount: count, UsedSize: used}
	if count > 0 {
		stats.AverageSize = used / count
	}
	return stats
}
