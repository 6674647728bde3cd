package actions

import (
	"context"
	"fmt"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// maxDirSuffix bounds the search in UniqueDirPath: suffixes -2 to -99.
const maxDirSuffix = 100

// CreateFileWithContent creates the file at path and commits text as its
// content. It reports false without error when path is malformed, its
// parent is missing, or the name is already taken; an existing file is
// never overwritten.
func (a *Actions) CreateFileWithContent(ctx context.Context, path, text string) (bool, error) {
	parent, name, ok := vfs.SplitPath(path)
	if !ok {
		return false, nil
	}

	ino, err := a.FS.CreateFile(parent, name)
	if err != nil {
		logger.Debug("Create %s with content skipped: %v", path, err)
		return false, nil
	}

	// On failure the entry stays in the tree as a valid empty file.
	if err := a.commit(ctx, ino, text, false); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteNode removes path and everything under it. Drafts of removed files
// are discarded. Their content is deleted best effort: failures are logged
// and leave orphaned bytes that no path can reach.
func (a *Actions) DeleteNode(ctx context.Context, path string) error {
	inos, err := a.FS.DeleteNode(path)
	if err != nil {
		return err
	}

	for _, ino := range inos {
		a.Drafts.DiscardDraft(ino)
		if err := a.Content.Delete(ctx, ino); err != nil {
			logger.Warn("Failed to delete content of ino %d under %s: %v", ino, path, err)
		}
	}
	return nil
}

// RenameNode renames path to newName within its parent and moves the draft
// paths along with it.
func (a *Actions) RenameNode(path, newName string) error {
	if err := a.FS.RenameNode(path, newName); err != nil {
		return err
	}
	oldPath := vfs.CleanPath(path)
	parent, _, _ := vfs.SplitPath(oldPath)
	a.Drafts.RenamePath(oldPath, vfs.BuildPath(parent, newName))
	return nil
}

// EnsureDir creates every missing directory along path. It fails with
// ErrNotFolder if a component exists as a file.
func (a *Actions) EnsureDir(path string) error {
	current := vfs.Root
	for _, part := range vfs.Segments(path) {
		next := vfs.BuildPath(current, part)

		res := a.FS.Resolve(next)
		if res.Found() {
			if !res.Node.IsDir() {
				return fmt.Errorf("%w: %s", ErrNotFolder, next)
			}
			current = next
			continue
		}

		if _, err := a.FS.CreateDir(current, part); err != nil && !vfs.IsCode(err, vfs.ErrAlreadyExists) {
			return fmt.Errorf("create folder %s: %w", next, err)
		}
		current = next
	}
	return nil
}

// UniqueDirPath returns base if nothing exists there, otherwise the first
// free path among base-2 to base-99.
func (a *Actions) UniqueDirPath(base string) (string, error) {
	base = vfs.CleanPath(base)
	res := a.FS.Resolve(base)
	if !res.Found() {
		return base, nil
	}
	if !res.Node.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFolder, base)
	}

	for i := 2; i < maxDirSuffix; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !a.FS.Resolve(candidate).Found() {
			return candidate, nil
		}
	}
	return "", ErrNoAvailableName
}
