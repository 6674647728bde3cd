package filesystem

import (
	"github.com/auditforge/workspacefs/pkg/vfs"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OpenFile adds path to the open tabs (if not already open) and makes it
// the active file. path must name an existing file.
func (fs *FileSystem) OpenFile(path string) error {
	fs.mu.Lock()
	p := vfs.CleanPath(path)
	res := fs.tree.Resolve(p)
	var err error
	switch {
	case !res.Found():
		err = &vfs.Error{Code: vfs.ErrNotFound, Op: "open", Path: res.At}
	case res.Node.IsDir():
		err = &vfs.Error{Code: vfs.ErrIsDirectory, Op: "open", Path: p}
	default:
		fs.openFiles.Set(p, struct{}{})
		fs.activeFile = p
	}
	fs.mu.Unlock()

	if err != nil {
		return err
	}
	fs.publish(Event{Kind: EventTabsChanged, Path: p, Ino: res.Meta.Ino})
	return nil
}

// CloseFile removes path from the open tabs. If it was active, the first
// remaining tab in open order becomes active, or none if no tabs remain.
// Closing a path that is not open does nothing.
func (fs *FileSystem) CloseFile(path string) {
	fs.mu.Lock()
	p := vfs.CleanPath(path)
	changed := fs.closeLocked(p)
	fs.mu.Unlock()

	if changed {
		fs.publish(Event{Kind: EventTabsChanged, Path: p})
	}
}

func (fs *FileSystem) closeLocked(p string) bool {
	if _, ok := fs.openFiles.Delete(p); !ok {
		return false
	}
	if fs.activeFile == p {
		fs.activeFile = ""
		if first := fs.openFiles.Oldest(); first != nil {
			fs.activeFile = first.Key
		}
	}
	return true
}

// CloseAllFiles clears the open tabs and the active file.
func (fs *FileSystem) CloseAllFiles() {
	fs.mu.Lock()
	fs.openFiles = orderedmap.New[string, struct{}]()
	fs.activeFile = ""
	fs.mu.Unlock()

	fs.publish(Event{Kind: EventTabsChanged})
}

// SetActiveFile focuses path, which must already be open. An empty path
// clears the active file.
func (fs *FileSystem) SetActiveFile(path string) error {
	fs.mu.Lock()
	var err error
	p := ""
	if path != "" {
		p = vfs.CleanPath(path)
		if _, open := fs.openFiles.Get(p); !open {
			err = &vfs.Error{Code: vfs.ErrNotFound, Op: "activate", Path: p}
		}
	}
	if err == nil {
		fs.activeFile = p
	}
	fs.mu.Unlock()

	if err != nil {
		return err
	}
	fs.publish(Event{Kind: EventTabsChanged, Path: p})
	return nil
}

// ActiveFile returns the focused tab's path. ok is false when no file is
// active.
func (fs *FileSystem) ActiveFile() (path string, ok bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.activeFile, fs.activeFile != ""
}

// OpenFiles returns the open tab paths in open order.
func (fs *FileSystem) OpenFiles() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.openFilesLocked()
}

func (fs *FileSystem) openFilesLocked() []string {
	paths := make([]string, 0, fs.openFiles.Len())
	for pair := fs.openFiles.Oldest(); pair != nil; pair = pair.Next() {
		paths = append(paths, pair.Key)
	}
	return paths
}

// IsOpen reports whether path has an open tab.
func (fs *FileSystem) IsOpen(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.openFiles.Get(vfs.CleanPath(path))
	return ok
}
