// Package actions orchestrates user-level file operations across the
// filesystem store, the editor overlay and the content store.
//
// Ordering Rules:
//   - Content is written before any in-memory state records it as saved,
//     so a failed write leaves the file unsaved and its stats untouched.
//   - Tree removals happen first and content deletion is best effort:
//     leftover bytes are unreachable orphans, never visible files.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/editor"
	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

var (
	// ErrNoActiveFile is returned by SaveActiveFile when no tab is focused.
	ErrNoActiveFile = errors.New("no active file")

	// ErrNoAvailableName is returned when every suffixed folder name is taken.
	ErrNoAvailableName = errors.New("could not find an available destination folder name")

	// ErrNotFolder is returned when a path that must be a folder is a file.
	ErrNotFolder = errors.New("path exists but is not a folder")

	// ErrNoFiles is returned by ImportSources for an empty request.
	ErrNoFiles = errors.New("no files to import")
)

// Actions ties the three stores together.
type Actions struct {
	FS      *filesystem.FileSystem
	Drafts  *editor.Overlay
	Content content.Store

	initMu sync.Mutex
}

// New creates Actions over the given stores.
func New(fs *filesystem.FileSystem, drafts *editor.Overlay, store content.Store) *Actions {
	return &Actions{FS: fs, Drafts: drafts, Content: store}
}

// statFile returns the metadata of the file at path, failing for
// directories.
func (a *Actions) statFile(op, path string) (vfs.InodeMeta, error) {
	meta, err := a.FS.Stat(path)
	if err != nil {
		return meta, err
	}
	if meta.IsDir() {
		return meta, &vfs.Error{Code: vfs.ErrIsDirectory, Op: op, Path: vfs.CleanPath(path)}
	}
	return meta, nil
}

// OpenFile opens a tab for path and seeds its draft from committed content.
// A draft that already exists is kept, so reopening a file does not lose
// unsaved edits.
func (a *Actions) OpenFile(ctx context.Context, path string) error {
	meta, err := a.statFile("open", path)
	if err != nil {
		return err
	}

	text, err := content.ReadText(ctx, a.Content, meta.Ino)
	if err != nil {
		return fmt.Errorf("read content of %s: %w", path, err)
	}

	if err := a.FS.OpenFile(path); err != nil {
		return err
	}
	a.Drafts.SeedDraft(meta.Ino, vfs.CleanPath(path), text)
	return nil
}

// ReadFile returns the committed content of the file at path.
func (a *Actions) ReadFile(ctx context.Context, path string) (string, error) {
	meta, err := a.statFile("read", path)
	if err != nil {
		return "", err
	}
	return content.ReadText(ctx, a.Content, meta.Ino)
}

// WriteFile commits text to path, creating the file if it does not exist.
// The parent directory must exist.
func (a *Actions) WriteFile(ctx context.Context, path, text string) error {
	res := a.FS.Resolve(path)
	if !res.Found() {
		ok, err := a.CreateFileWithContent(ctx, path, text)
		if err != nil {
			return err
		}
		if !ok {
			return &vfs.Error{Code: vfs.ErrInvalidName, Op: "write", Path: path}
		}
		return nil
	}
	if res.Node.IsDir() {
		return &vfs.Error{Code: vfs.ErrIsDirectory, Op: "write", Path: vfs.CleanPath(path)}
	}
	return a.commit(ctx, res.Meta.Ino, text, false)
}

// commit writes text as the committed content of ino and records it in the
// tree stats and the overlay. fromDraft is set when text is the draft being
// saved; otherwise a clean draft is moved to text.
func (a *Actions) commit(ctx context.Context, ino vfs.Ino, text string, fromDraft bool) error {
	if err := content.WriteText(ctx, a.Content, ino, text); err != nil {
		return fmt.Errorf("write content of ino %d: %w", ino, err)
	}
	if err := a.FS.UpdateFileStatsByIno(ino, int64(len(text))); err != nil {
		// The file was removed while the write was in flight.
		logger.Warn("Saved ino %d but could not update its stats: %v", ino, err)
	}
	if fromDraft {
		a.Drafts.MarkSaved(ino, text)
	} else {
		a.Drafts.MarkWritten(ino, text)
	}
	return nil
}
