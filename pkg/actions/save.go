package actions

import (
	"context"
	"errors"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// SaveFileByIno commits the draft of ino. It reports false without error
// when ino has no draft.
//
// The draft is read once at the start; an edit that arrives while the write
// is in flight leaves the file unsaved.
func (a *Actions) SaveFileByIno(ctx context.Context, ino vfs.Ino) (bool, error) {
	draft, ok := a.Drafts.Draft(ino)
	if !ok {
		return false, nil
	}
	if err := a.commit(ctx, ino, draft.Content, true); err != nil {
		return false, err
	}
	logger.Debug("Saved %s (ino %d, %d bytes)", draft.Path, ino, draft.Size)
	return true, nil
}

// SaveActiveFile saves the focused tab.
func (a *Actions) SaveActiveFile(ctx context.Context) (bool, error) {
	path, ok := a.FS.ActiveFile()
	if !ok {
		return false, ErrNoActiveFile
	}
	meta, err := a.FS.Stat(path)
	if err != nil {
		return false, err
	}
	return a.SaveFileByIno(ctx, meta.Ino)
}

// SaveAllUnsavedFiles saves every file that is unsaved at the time of the
// call and returns how many were saved. A failing file does not stop the
// others; all failures are returned joined.
func (a *Actions) SaveAllUnsavedFiles(ctx context.Context) (int, error) {
	inos := a.Drafts.UnsavedInos()

	saved := 0
	var errs []error
	for _, ino := range inos {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := a.SaveFileByIno(ctx, ino)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			saved++
		}
	}

	if len(errs) > 0 {
		logger.Warn("Saved %d of %d unsaved files, %d failed", saved, len(inos), len(errs))
	}
	return saved, errors.Join(errs...)
}
