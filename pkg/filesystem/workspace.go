package filesystem

import (
	"strings"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// workspaceOf returns the workspace name that path lies in, or "" when path
// is outside every workspace.
func workspaceOf(path string) string {
	rest, ok := strings.CutPrefix(vfs.CleanPath(path), WorkspacesRoot+vfs.Separator)
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, vfs.Separator)
	return name
}

// WorkspacePath returns the directory of the named workspace.
func WorkspacePath(name string) string {
	return vfs.BuildPath(WorkspacesRoot, name)
}

// CreateWorkspace creates an empty workspace directory, creating the
// workspaces root first if it has been removed.
func (fs *FileSystem) CreateWorkspace(name string) (vfs.Ino, error) {
	if err := vfs.ValidateName(name); err != nil {
		return 0, &vfs.Error{Code: vfs.ErrInvalidName, Op: "create_workspace", Path: WorkspacePath(name)}
	}

	fs.mu.Lock()
	now := fs.now()
	var events []Event

	res := fs.tree.Resolve(WorkspacesRoot)
	var err error
	switch {
	case !res.Found():
		rootIno := fs.nextIno
		_, err = fs.tree.Insert(vfs.Root, strings.TrimPrefix(WorkspacesRoot, vfs.Separator), vfs.NewDirMeta(rootIno, now))
		if err == nil {
			fs.allocateLocked()
			events = append(events, Event{Kind: EventCreated, Path: WorkspacesRoot, Ino: rootIno})
		}
	case !res.Node.IsDir():
		err = &vfs.Error{Code: vfs.ErrNotDirectory, Op: "create_workspace", Path: WorkspacesRoot}
	}

	var ino vfs.Ino
	if err == nil {
		ino = fs.nextIno
		if _, err = fs.tree.Insert(WorkspacesRoot, name, vfs.NewDirMeta(ino, now)); err == nil {
			fs.allocateLocked()
			events = append(events, Event{Kind: EventCreated, Path: WorkspacePath(name), Ino: ino})
		}
	}
	count := fs.tree.Count()
	fs.mu.Unlock()

	// A created workspaces root stays even if the workspace insert failed.
	fs.metrics.SetNodeCount(count)
	for _, ev := range events {
		fs.publish(ev)
	}
	if err != nil {
		return 0, err
	}
	return ino, nil
}

// Workspaces lists workspace names in the order they were created.
func (fs *FileSystem) Workspaces() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	res := fs.tree.Resolve(WorkspacesRoot)
	if !res.Found() || !res.Node.IsDir() {
		return nil
	}
	var names []string
	res.Node.Each(func(name string, child *vfs.Node) bool {
		if child.IsDir() {
			names = append(names, name)
		}
		return true
	})
	return names
}

// SelectWorkspace makes the named workspace current: cwd moves to its
// directory. Unknown names are rejected and leave the state unchanged.
func (fs *FileSystem) SelectWorkspace(name string) error {
	path := WorkspacePath(name)

	fs.mu.Lock()
	var err error
	if vfs.ValidateName(name) != nil {
		err = &vfs.Error{Code: vfs.ErrInvalidName, Op: "select_workspace", Path: path}
	} else if res := fs.tree.Resolve(path); !res.Found() {
		err = &vfs.Error{Code: vfs.ErrNotFound, Op: "select_workspace", Path: path}
	} else if !res.Node.IsDir() {
		err = &vfs.Error{Code: vfs.ErrNotDirectory, Op: "select_workspace", Path: path}
	} else {
		fs.cwd = path
		fs.selectedWorkspace = name
	}
	fs.mu.Unlock()

	if err != nil {
		return err
	}
	fs.publish(Event{Kind: EventWorkspaceChanged, Path: path})
	return nil
}

// SetCwd changes the current directory. The selected workspace follows the
// workspace that contains the new directory.
func (fs *FileSystem) SetCwd(path string) error {
	p := vfs.CleanPath(path)

	fs.mu.Lock()
	res := fs.tree.Resolve(p)
	var err error
	switch {
	case !res.Found():
		err = &vfs.Error{Code: vfs.ErrNotFound, Op: "chdir", Path: res.At}
	case !res.Node.IsDir():
		err = &vfs.Error{Code: vfs.ErrNotDirectory, Op: "chdir", Path: p}
	default:
		fs.cwd = p
		fs.selectedWorkspace = workspaceOf(p)
	}
	fs.mu.Unlock()

	if err != nil {
		return err
	}
	fs.publish(Event{Kind: EventWorkspaceChanged, Path: p})
	return nil
}

// Cwd returns the current directory.
func (fs *FileSystem) Cwd() string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.cwd
}

// SelectedWorkspace returns the current workspace name, "" if cwd is
// outside every workspace.
func (fs *FileSystem) SelectedWorkspace() string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.selectedWorkspace
}

// SetWorkspaceInitialized records whether first-run setup has completed.
func (fs *FileSystem) SetWorkspaceInitialized(v bool) {
	fs.mu.Lock()
	fs.workspaceInitialized = v
	fs.mu.Unlock()

	fs.publish(Event{Kind: EventWorkspaceChanged})
}

// WorkspaceInitialized reports whether first-run setup has completed.
func (fs *FileSystem) WorkspaceInitialized() bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.workspaceInitialized
}
