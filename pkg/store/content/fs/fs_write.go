package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/google/uuid"
)

// Write replaces the content for ino.
//
// The data is written to a temporary file, synced, then renamed over the
// content file.
func (r *FSContentStore) Write(ctx context.Context, ino vfs.Ino, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpPath := filepath.Join(r.basePath, tempPrefix+uuid.NewString())

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	cleanup := func() {
		_ = file.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("Failed to remove temp file %s: %v", tmpPath, rmErr)
		}
	}

	if _, err := file.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write content %d: %w", ino, err)
	}
	if err := file.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync content %d: %w", ino, err)
	}
	if err := file.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close content %d: %w", ino, err)
	}

	if err := os.Rename(tmpPath, r.getFilePath(ino)); err != nil {
		cleanup()
		return fmt.Errorf("failed to commit content %d: %w", ino, err)
	}

	return nil
}

// Delete removes the content file for ino. A missing file is not an error.
func (r *FSContentStore) Delete(ctx context.Context, ino vfs.Ino) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(r.getFilePath(ino)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete content %d: %w", ino, err)
	}

	return nil
}
