package fs

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Read returns the content stored for ino.
//
// A missing file means the inode was never written (or was deleted) and
// yields empty content.
func (r *FSContentStore) Read(ctx context.Context, ino vfs.Ino) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.getFilePath(ino))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("failed to read content %d: %w", ino, err)
	}

	return data, nil
}

// List returns every inode with a content file.
func (r *FSContentStore) List(ctx context.Context) ([]vfs.Ino, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	inos := make([]vfs.Ino, 0, len(entries))
	for i, entry := range entries {
		// Check context periodically (every 100 entries)
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if entry.IsDir() {
			continue
		}
		if ino, ok := parseIno(entry.Name()); ok {
			inos = append(inos, ino)
		}
	}

	return inos, nil
}
