package actions

import "context"

// CloseFile closes the tab for path unless it has unsaved changes, in which
// case nothing happens and true is returned so the caller can ask the user
// to save, discard or cancel.
func (a *Actions) CloseFile(path string) (needsConfirm bool) {
	if meta, err := a.FS.Stat(path); err == nil && a.Drafts.IsUnsaved(meta.Ino) {
		return true
	}
	a.FS.CloseFile(path)
	return false
}

// CloseAllFiles closes every tab unless any has unsaved changes, in which
// case nothing happens and true is returned.
func (a *Actions) CloseAllFiles() (needsConfirm bool) {
	for _, p := range a.FS.OpenFiles() {
		if meta, err := a.FS.Stat(p); err == nil && a.Drafts.IsUnsaved(meta.Ino) {
			return true
		}
	}
	a.FS.CloseAllFiles()
	return false
}

// DiscardAndClose drops the unsaved edits of path and closes its tab.
func (a *Actions) DiscardAndClose(path string) {
	if meta, err := a.FS.Stat(path); err == nil {
		a.Drafts.DiscardDraft(meta.Ino)
	}
	a.FS.CloseFile(path)
}

// DiscardAndCloseAll drops the edits of every open file and closes all tabs.
func (a *Actions) DiscardAndCloseAll() {
	for _, p := range a.FS.OpenFiles() {
		if meta, err := a.FS.Stat(p); err == nil {
			a.Drafts.DiscardDraft(meta.Ino)
		}
	}
	a.FS.CloseAllFiles()
}

// SaveAndClose saves path and closes its tab. The tab stays open if the
// save fails.
func (a *Actions) SaveAndClose(ctx context.Context, path string) error {
	meta, err := a.statFile("close", path)
	if err != nil {
		return err
	}
	if _, err := a.SaveFileByIno(ctx, meta.Ino); err != nil {
		return err
	}
	a.FS.CloseFile(path)
	return nil
}
