package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/store/snapshot"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/auditforge/workspacefs/pkg/vfs/codec"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultSnapshotName is the snapshot name used when none is configured.
const DefaultSnapshotName = "file-system-storage"

// PersistedState is the storage shape of a FileSystem. Sets are flattened
// to arrays and the tree is in codec form.
type PersistedState struct {
	FsTree               codec.SerializedTree `json:"fsTree"`
	NextIno              vfs.Ino              `json:"nextIno"`
	ActiveFile           *string              `json:"activeFile"`
	OpenFiles            []string             `json:"openFiles"`
	Cwd                  string               `json:"cwd"`
	SelectedWorkspace    string               `json:"selectedWorkspace"`
	WorkspaceInitialized bool                 `json:"isWorkspaceInitialized"`
}

// Partialize captures the persistable part of the state.
func (fs *FileSystem) Partialize() PersistedState {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var active *string
	if fs.activeFile != "" {
		a := fs.activeFile
		active = &a
	}

	return PersistedState{
		FsTree:               codec.Serialize(fs.tree),
		NextIno:              fs.nextIno,
		ActiveFile:           active,
		OpenFiles:            fs.openFilesLocked(),
		Cwd:                  fs.cwd,
		SelectedWorkspace:    fs.selectedWorkspace,
		WorkspaceInitialized: fs.workspaceInitialized,
	}
}

// Merge reconciles a loosely typed persisted snapshot (as decoded from
// JSON) with the current state.
//
// A present, non-empty tree replaces the current tree wholesale. Scalar
// fields are taken only when they have the right type and still make sense
// against the resulting tree; otherwise the current value is kept or
// recomputed:
//   - nextIno is kept only if it is above every live inode
//   - open files are filtered to paths that still resolve to files
//   - activeFile is kept only if it resolves to a file and is open
//   - cwd must resolve to a directory
//
// A tree that cannot be decoded returns an error wrapping vfs.ErrBadShape
// and leaves the state untouched.
func (fs *FileSystem) Merge(persisted map[string]any) error {
	if persisted == nil {
		return nil
	}

	var tree *vfs.Tree
	if raw, ok := persisted["fsTree"].([]any); ok && len(raw) > 0 {
		t, err := codec.Deserialize(raw)
		if err != nil {
			return fmt.Errorf("merge persisted tree: %w", err)
		}
		tree = t
	}

	fs.mu.Lock()
	if tree != nil {
		fs.tree = tree
	}

	liveNext := fs.tree.MaxIno() + 1
	next := fs.nextIno
	if n, ok := asIno(persisted["nextIno"]); ok {
		next = n
	}
	if next < liveNext {
		next = liveNext
	}
	fs.nextIno = next

	open := orderedmap.New[string, struct{}]()
	if list, ok := persisted["openFiles"].([]any); ok {
		for _, item := range list {
			p, ok := item.(string)
			if !ok {
				continue
			}
			p = vfs.CleanPath(p)
			if res := fs.tree.Resolve(p); res.Found() && res.Node.IsFile() {
				open.Set(p, struct{}{})
			}
		}
	} else if tree == nil {
		open = fs.openFiles
	}
	fs.openFiles = open

	active := ""
	if p, ok := persisted["activeFile"].(string); ok {
		active = vfs.CleanPath(p)
	} else if _, present := persisted["activeFile"]; !present {
		active = fs.activeFile
	}
	if _, isOpen := fs.openFiles.Get(active); !isOpen {
		active = ""
	}
	fs.activeFile = active

	cwd := fs.cwd
	if p, ok := persisted["cwd"].(string); ok {
		cwd = vfs.CleanPath(p)
	}
	if res := fs.tree.Resolve(cwd); !res.Found() || !res.Node.IsDir() {
		cwd = DefaultCwd
		if res := fs.tree.Resolve(cwd); !res.Found() || !res.Node.IsDir() {
			cwd = vfs.Root
		}
	}
	fs.cwd = cwd
	fs.selectedWorkspace = workspaceOf(cwd)

	if v, ok := persisted["isWorkspaceInitialized"].(bool); ok {
		fs.workspaceInitialized = v
	}

	count := fs.tree.Count()
	fs.mu.Unlock()

	fs.metrics.SetNodeCount(count)
	return nil
}

// asIno accepts the numeric shapes a JSON decoder can produce.
func asIno(v any) (vfs.Ino, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return vfs.Ino(i), true
	case float64:
		if n < 0 || n != float64(int64(n)) {
			return 0, false
		}
		return vfs.Ino(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return vfs.Ino(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return vfs.Ino(n), true
	case uint64:
		return vfs.Ino(n), true
	case vfs.Ino:
		return n, true
	default:
		return 0, false
	}
}

// MarshalState encodes the persistable state as JSON.
func (fs *FileSystem) MarshalState() ([]byte, error) {
	return json.Marshal(fs.Partialize())
}

// UnmarshalState decodes JSON produced by MarshalState (or an older
// version of it) and merges it.
func (fs *FileSystem) UnmarshalState(data []byte) error {
	decoded, err := codec.Decode(data)
	if err != nil {
		return fmt.Errorf("decode persisted state: %w", err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return fmt.Errorf("decode persisted state: expected object, got %T", decoded)
	}
	return fs.Merge(obj)
}

// Hydrate loads the named snapshot from store and merges it. The Hydrated
// channel is closed when Hydrate returns, whether or not it succeeded, so
// first-run logic waiting on it never blocks forever.
func (fs *FileSystem) Hydrate(ctx context.Context, store snapshot.Store, name string) error {
	defer fs.MarkHydrated()

	start := time.Now()
	data, ok, err := store.Load(ctx, name)
	if err != nil {
		fs.metrics.ObservePersist("load", 0, time.Since(start), err)
		return fmt.Errorf("load snapshot %q: %w", name, err)
	}
	if !ok {
		fs.metrics.ObservePersist("load", 0, time.Since(start), nil)
		logger.Info("No snapshot %q found, starting with the default workspace", name)
		return nil
	}

	err = fs.UnmarshalState(data)
	fs.metrics.ObservePersist("load", len(data), time.Since(start), err)
	if err != nil {
		return err
	}

	logger.Info("Hydrated filesystem from snapshot %q (%d bytes)", name, len(data))
	return nil
}

// Persist saves the current state under name.
func (fs *FileSystem) Persist(ctx context.Context, store snapshot.Store, name string) error {
	start := time.Now()

	data, err := fs.MarshalState()
	if err != nil {
		fs.metrics.ObservePersist("save", 0, time.Since(start), err)
		return fmt.Errorf("encode state: %w", err)
	}

	err = store.Save(ctx, name, data)
	fs.metrics.ObservePersist("save", len(data), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}

	logger.Debug("Persisted filesystem snapshot %q (%d bytes)", name, len(data))
	return nil
}

// MarkHydrated closes the Hydrated channel. Use it when there is no
// persisted state to load. Safe to call more than once.
func (fs *FileSystem) MarkHydrated() {
	fs.hydrateOnce.Do(func() {
		close(fs.hydrated)
		fs.publish(Event{Kind: EventHydrated})
	})
}

// Hydrated is closed once hydration has finished.
func (fs *FileSystem) Hydrated() <-chan struct{} {
	return fs.hydrated
}
