// Package filesystem is the single source of truth for a workspace: the vfs
// tree plus navigation state (open tabs, active file, current directory,
// selected workspace) and the inode counter.
//
// Every mutation runs inside one critical section, so concurrent readers
// observe either the state before or the state after a mutation, never a
// partially applied one. Change notifications are delivered to subscribers
// after the lock has been released.
package filesystem

import (
	"sync"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/vfs"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// WorkspacesRoot is the reserved directory holding all workspaces.
	WorkspacesRoot = "/.workspaces"

	// DefaultWorkspace is the workspace created with a fresh filesystem.
	DefaultWorkspace = "default_workspace"

	// DefaultCwd is the directory of the default workspace.
	DefaultCwd = WorkspacesRoot + "/" + DefaultWorkspace

	// RootIno is the inode of "/" in a fresh filesystem.
	RootIno vfs.Ino = 1
)

// Options configures a FileSystem. The zero value is usable.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Metrics receives mutation observations. nil disables collection.
	Metrics Metrics
}

// FileSystem holds the tree and navigation state behind a RWMutex.
type FileSystem struct {
	mu sync.RWMutex

	tree    *vfs.Tree
	nextIno vfs.Ino

	// openFiles keeps tab paths in open order.
	openFiles  *orderedmap.OrderedMap[string, struct{}]
	activeFile string

	cwd                  string
	selectedWorkspace    string
	workspaceInitialized bool

	now     func() time.Time
	metrics Metrics

	subMu       sync.RWMutex
	subscribers map[uint64]func(Event)
	nextSubID   uint64

	hydrateOnce sync.Once
	hydrated    chan struct{}
}

// New creates a FileSystem in the default state: "/" containing
// "/.workspaces/default_workspace", which is also the current directory
// and selected workspace.
func New(opts Options) *FileSystem {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := opts.Metrics
	if m == nil {
		m = noopMetrics{}
	}

	fs := &FileSystem{
		openFiles:   orderedmap.New[string, struct{}](),
		now:         now,
		metrics:     m,
		subscribers: make(map[uint64]func(Event)),
		hydrated:    make(chan struct{}),
	}
	fs.tree, fs.nextIno = defaultTree(now())
	fs.cwd = DefaultCwd
	fs.selectedWorkspace = DefaultWorkspace
	fs.metrics.SetNodeCount(fs.tree.Count())
	return fs
}

// defaultTree builds the fresh-install tree and the next free inode.
func defaultTree(now time.Time) (*vfs.Tree, vfs.Ino) {
	tree := vfs.NewTree(vfs.NewDirMeta(RootIno, now))
	ino := RootIno + 1
	workspaces, _ := tree.Insert(vfs.Root, ".workspaces", vfs.NewDirMeta(ino, now))
	ino++
	_ = workspaces.AddChild(DefaultWorkspace, vfs.NewDirNode(vfs.NewDirMeta(ino, now)))
	ino++
	return tree, ino
}

// ============================================================================
// Read operations
// ============================================================================

// Resolve looks up path. On success the returned Node is a detached copy
// holding the metadata only; use ListChildren or Tree to see children.
func (fs *FileSystem) Resolve(path string) vfs.ResolveResult {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	res := fs.tree.Resolve(path)
	if res.Found() {
		res.Node = res.Node.Shallow()
	}
	return res
}

// Stat returns the metadata of the entry at path.
func (fs *FileSystem) Stat(path string) (vfs.InodeMeta, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	res := fs.tree.Resolve(path)
	if !res.Found() {
		return vfs.InodeMeta{}, &vfs.Error{Code: vfs.ErrNotFound, Op: "stat", Path: res.At}
	}
	return res.Meta, nil
}

// Entry is one row of a directory listing.
type Entry struct {
	Name string
	Path string
	Meta vfs.InodeMeta
}

// ListChildren lists the directory at path, directories first then files,
// each group sorted by name.
func (fs *FileSystem) ListChildren(path string) ([]Entry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	res := fs.tree.Resolve(path)
	if !res.Found() {
		return nil, &vfs.Error{Code: vfs.ErrNotFound, Op: "list", Path: res.At}
	}
	if !res.Node.IsDir() {
		return nil, &vfs.Error{Code: vfs.ErrNotDirectory, Op: "list", Path: vfs.CleanPath(path)}
	}

	dir := vfs.CleanPath(path)
	children := vfs.ListChildren(res.Node)
	entries := make([]Entry, len(children))
	for i, c := range children {
		entries[i] = Entry{Name: c.Name, Path: vfs.BuildPath(dir, c.Name), Meta: c.Node.Meta()}
	}
	return entries, nil
}

// Tree returns a deep copy of the current tree.
func (fs *FileSystem) Tree() *vfs.Tree {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.tree.Clone()
}

// PathOf returns the current path of the entry with inode ino.
func (fs *FileSystem) PathOf(ino vfs.Ino) (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.tree.FindIno(ino)
}

// NextIno returns the inode the next allocation will hand out.
func (fs *FileSystem) NextIno() vfs.Ino {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.nextIno
}

// ============================================================================
// Tree mutations
// ============================================================================

// AllocateIno returns a fresh inode and advances the counter. Inodes are
// never reused, even after the entry holding one is deleted.
func (fs *FileSystem) AllocateIno() vfs.Ino {
	fs.mu.Lock()
	ino := fs.allocateLocked()
	fs.mu.Unlock()
	return ino
}

func (fs *FileSystem) allocateLocked() vfs.Ino {
	ino := fs.nextIno
	fs.nextIno++
	return ino
}

// CreateFile creates an empty file named name in the directory dirPath and
// returns its inode.
func (fs *FileSystem) CreateFile(dirPath, name string) (vfs.Ino, error) {
	return fs.create("create_file", dirPath, name, vfs.FileTypeFile)
}

// CreateDir creates an empty directory named name in dirPath and returns its
// inode.
func (fs *FileSystem) CreateDir(dirPath, name string) (vfs.Ino, error) {
	return fs.create("create_dir", dirPath, name, vfs.FileTypeDir)
}

func (fs *FileSystem) create(op, dirPath, name string, typ vfs.FileType) (vfs.Ino, error) {
	start := time.Now()

	fs.mu.Lock()
	now := fs.now()
	ino := fs.nextIno
	meta := vfs.NewFileMeta(ino, now)
	if typ == vfs.FileTypeDir {
		meta = vfs.NewDirMeta(ino, now)
	}
	_, err := fs.tree.Insert(dirPath, name, meta)
	if err == nil {
		// Only consume the inode once the insert has succeeded.
		fs.allocateLocked()
	}
	count := fs.tree.Count()
	fs.mu.Unlock()

	fs.metrics.ObserveMutation(op, time.Since(start), err)
	if err != nil {
		logger.Debug("%s %s/%s rejected: %v", op, dirPath, name, err)
		return 0, err
	}

	path := vfs.BuildPath(vfs.CleanPath(dirPath), name)
	logger.Debug("%s %s (ino %d)", op, path, ino)
	fs.metrics.SetNodeCount(count)
	fs.publish(Event{Kind: EventCreated, Path: path, Ino: ino})
	return ino, nil
}

// RenameNode renames the entry at path within its parent. Open tabs, the
// active file, the current directory and the selected workspace that live
// under the old path follow the entry to its new path.
func (fs *FileSystem) RenameNode(path, newName string) error {
	start := time.Now()

	fs.mu.Lock()
	oldPath := vfs.CleanPath(path)
	res := fs.tree.Resolve(oldPath)
	err := fs.tree.Rename(oldPath, newName)
	var newPath string
	if err == nil {
		parent, _, _ := vfs.SplitPath(oldPath)
		newPath = vfs.BuildPath(parent, newName)
		if newPath != oldPath {
			fs.remapLocked(oldPath, newPath)
		}
	}
	fs.mu.Unlock()

	fs.metrics.ObserveMutation("rename", time.Since(start), err)
	if err != nil {
		logger.Debug("rename %s -> %s rejected: %v", path, newName, err)
		return err
	}
	if newPath == oldPath {
		return nil
	}

	logger.Debug("rename %s -> %s", oldPath, newPath)
	fs.publish(Event{Kind: EventRenamed, Path: newPath, OldPath: oldPath, Ino: res.Meta.Ino})
	return nil
}

// remapLocked rewrites navigation state from oldPath to newPath.
func (fs *FileSystem) remapLocked(oldPath, newPath string) {
	if fs.openFiles.Len() > 0 {
		remapped := orderedmap.New[string, struct{}]()
		for pair := fs.openFiles.Oldest(); pair != nil; pair = pair.Next() {
			p, _ := vfs.ReplacePathPrefix(pair.Key, oldPath, newPath)
			remapped.Set(p, struct{}{})
		}
		fs.openFiles = remapped
	}
	if fs.activeFile != "" {
		fs.activeFile, _ = vfs.ReplacePathPrefix(fs.activeFile, oldPath, newPath)
	}
	if cwd, ok := vfs.ReplacePathPrefix(fs.cwd, oldPath, newPath); ok {
		fs.cwd = cwd
		fs.selectedWorkspace = workspaceOf(cwd)
	}
}

// DeleteNode removes the entry at path with its whole subtree and returns
// the inodes of the removed files, whose content the caller may delete.
// Tabs under the removed path are closed; a current directory under it
// falls back to the removed entry's parent.
func (fs *FileSystem) DeleteNode(path string) ([]vfs.Ino, error) {
	start := time.Now()

	fs.mu.Lock()
	target := vfs.CleanPath(path)
	removed, err := fs.tree.Remove(target)
	var inos []vfs.Ino
	if err == nil {
		inos = vfs.CollectInos(removed)
		fs.closeUnderLocked(target)
		if vfs.HasPathPrefix(fs.cwd, target) {
			parent, _, _ := vfs.SplitPath(target)
			fs.cwd = parent
			fs.selectedWorkspace = workspaceOf(parent)
		}
	}
	count := fs.tree.Count()
	fs.mu.Unlock()

	fs.metrics.ObserveMutation("delete", time.Since(start), err)
	if err != nil {
		logger.Debug("delete %s rejected: %v", path, err)
		return nil, err
	}

	logger.Debug("delete %s (%d file inodes released)", target, len(inos))
	fs.metrics.SetNodeCount(count)
	fs.publish(Event{Kind: EventDeleted, Path: target, Ino: removed.Ino()})
	return inos, nil
}

// closeUnderLocked closes every tab at or below prefix.
func (fs *FileSystem) closeUnderLocked(prefix string) {
	var doomed []string
	for pair := fs.openFiles.Oldest(); pair != nil; pair = pair.Next() {
		if vfs.HasPathPrefix(pair.Key, prefix) {
			doomed = append(doomed, pair.Key)
		}
	}
	for _, p := range doomed {
		fs.closeLocked(p)
	}
}

// UpdateFileStats sets the size of the file at path and bumps its mtime.
func (fs *FileSystem) UpdateFileStats(path string, size int64) error {
	fs.mu.Lock()
	err := fs.tree.UpdateFileStats(path, size, fs.now())
	fs.mu.Unlock()

	if err != nil {
		return err
	}
	fs.publish(Event{Kind: EventStatChanged, Path: vfs.CleanPath(path)})
	return nil
}

// UpdateFileStatsByIno is UpdateFileStats addressed by inode.
func (fs *FileSystem) UpdateFileStatsByIno(ino vfs.Ino, size int64) error {
	fs.mu.Lock()
	path, ok := fs.tree.FindIno(ino)
	var err error
	if !ok {
		err = &vfs.Error{Code: vfs.ErrNotFound, Op: "stat"}
	} else {
		err = fs.tree.UpdateFileStats(path, size, fs.now())
	}
	fs.mu.Unlock()

	if err != nil {
		return err
	}
	fs.publish(Event{Kind: EventStatChanged, Path: path, Ino: ino})
	return nil
}
