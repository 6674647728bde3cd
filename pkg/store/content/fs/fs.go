// Package fs implements filesystem-based content storage.
//
// Each inode's content lives in its own file named by the decimal inode
// number under a base directory. Writes go to a uniquely named temporary
// file in the same directory and are renamed into place, so a crash never
// leaves a half-written value behind.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// tempPrefix marks in-flight writes. Entries with this prefix are never
// reported as content.
const tempPrefix = ".tmp-"

// FSContentStore implements content.Store using the local filesystem.
//
// Thread Safety:
// Whole-value writes are atomic renames, so concurrent writers of the same
// inode resolve to last-rename-wins without corrupting the file.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates a filesystem content store rooted at basePath.
//
// The base directory is created with permissions 0755 if it doesn't exist.
//
// Parameters:
//   - ctx: Context for cancellation
//   - basePath: Root directory for storing content files
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Returns error if directory creation fails or context is cancelled
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if basePath == "" {
		return nil, fmt.Errorf("base path is required")
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// getFilePath returns the full path for ino's content file.
func (r *FSContentStore) getFilePath(ino vfs.Ino) string {
	return filepath.Join(r.basePath, strconv.FormatUint(uint64(ino), 10))
}

// parseIno maps a directory entry name back to an inode. Temporary files
// and foreign names are rejected.
func parseIno(name string) (vfs.Ino, bool) {
	if strings.HasPrefix(name, tempPrefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(name, 10, 64)
	if err != nil {
		return 0, false
	}
	return vfs.Ino(n), true
}

// GetStorageStats scans the base directory and sums content file sizes.
func (r *FSContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	var count, used uint64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := parseIno(entry.Name()); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		count++
		used += uint64(info.Size())
	}

	return content.NewStorageStats(count, used), nil
}
