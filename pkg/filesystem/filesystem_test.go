package filesystem

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestFS(t *testing.T) *FileSystem {
	t.Helper()
	return New(Options{Now: func() time.Time { return testNow }})
}

func TestNew_DefaultState(t *testing.T) {
	fs := newTestFS(t)

	root, err := fs.Stat("/")
	require.NoError(t, err)
	assert.Equal(t, RootIno, root.Ino)
	assert.True(t, root.IsDir())

	ws, err := fs.Stat(DefaultCwd)
	require.NoError(t, err)
	assert.True(t, ws.IsDir())

	assert.Equal(t, DefaultCwd, fs.Cwd())
	assert.Equal(t, DefaultWorkspace, fs.SelectedWorkspace())
	assert.Equal(t, []string{DefaultWorkspace}, fs.Workspaces())
	assert.Equal(t, vfs.Ino(4), fs.NextIno())
	assert.False(t, fs.WorkspaceInitialized())

	_, ok := fs.ActiveFile()
	assert.False(t, ok)
	assert.Empty(t, fs.OpenFiles())
}

func TestCreateFile(t *testing.T) {
	fs := newTestFS(t)

	ino, err := fs.CreateFile(DefaultCwd, "a.sol")
	require.NoError(t, err)

	meta, err := fs.Stat(DefaultCwd + "/a.sol")
	require.NoError(t, err)
	assert.Equal(t, ino, meta.Ino)
	assert.Equal(t, vfs.FileTypeFile, meta.Type)
	assert.Equal(t, vfs.DefaultMode, meta.Mode)
	assert.Equal(t, testNow.UnixMilli(), meta.MtimeMs)
	assert.Zero(t, meta.Size)
}

func TestCreateFile_ConflictLeavesTreeUnchanged(t *testing.T) {
	fs := newTestFS(t)

	_, err := fs.CreateFile(DefaultCwd, "readme.md")
	require.NoError(t, err)
	before, err := fs.Stat(DefaultCwd + "/readme.md")
	require.NoError(t, err)
	count := fs.Tree().Count()
	next := fs.NextIno()

	_, err = fs.CreateFile(DefaultCwd, "readme.md")
	require.ErrorIs(t, err, vfs.ErrExist)

	after, err := fs.Stat(DefaultCwd + "/readme.md")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, count, fs.Tree().Count())
	assert.Equal(t, next, fs.NextIno(), "failed create must not consume an inode")
}

func TestCreate_Failures(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.CreateFile(DefaultCwd, "file.txt")
	require.NoError(t, err)

	tests := []struct {
		name string
		dir  string
		file string
		code vfs.ErrorCode
	}{
		{"missing parent", "/nope", "x", vfs.ErrNotFound},
		{"parent is file", DefaultCwd + "/file.txt", "x", vfs.ErrNotDirectory},
		{"name with slash", DefaultCwd, "a/b", vfs.ErrInvalidName},
		{"empty name", DefaultCwd, "", vfs.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fs.CreateDir(tt.dir, tt.file)
			require.Error(t, err)
			assert.True(t, vfs.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestAllocateIno_UniqueUnderConcurrency(t *testing.T) {
	fs := newTestFS(t)

	const workers = 16
	var wg sync.WaitGroup
	inos := make(chan vfs.Ino, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ino, err := fs.CreateFile(DefaultCwd, fmt.Sprintf("f%d.txt", i))
			if err == nil {
				inos <- ino
			}
			inos <- fs.AllocateIno()
		}(i)
	}
	wg.Wait()
	close(inos)

	seen := make(map[vfs.Ino]bool)
	for ino := range inos {
		assert.False(t, seen[ino], "duplicate inode %d", ino)
		seen[ino] = true
	}
	assert.Len(t, seen, workers*2)

	live := make(map[vfs.Ino]string)
	require.NoError(t, fs.Tree().Walk(func(path string, n *vfs.Node) error {
		if other, dup := live[n.Ino()]; dup {
			t.Fatalf("inode %d shared by %s and %s", n.Ino(), other, path)
		}
		live[n.Ino()] = path
		return nil
	}))
}

func TestRenameNode_PreservesIdentity(t *testing.T) {
	fs := newTestFS(t)
	ino, err := fs.CreateFile(DefaultCwd, "old.sol")
	require.NoError(t, err)
	require.NoError(t, fs.UpdateFileStats(DefaultCwd+"/old.sol", 42))
	before, err := fs.Stat(DefaultCwd + "/old.sol")
	require.NoError(t, err)

	require.NoError(t, fs.RenameNode(DefaultCwd+"/old.sol", "new.sol"))

	assert.False(t, fs.Resolve(DefaultCwd+"/old.sol").Found())
	after, err := fs.Stat(DefaultCwd + "/new.sol")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, ino, after.Ino)
}

func TestRenameNode_RemapsTabsAndCwd(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.CreateDir(DefaultCwd, "src")
	require.NoError(t, err)
	_, err = fs.CreateFile(DefaultCwd+"/src", "a.sol")
	require.NoError(t, err)
	_, err = fs.CreateFile(DefaultCwd, "b.sol")
	require.NoError(t, err)

	require.NoError(t, fs.OpenFile(DefaultCwd+"/b.sol"))
	require.NoError(t, fs.OpenFile(DefaultCwd+"/src/a.sol"))

	require.NoError(t, fs.RenameNode(WorkspacesRoot+"/"+DefaultWorkspace, "main"))

	assert.Equal(t, []string{
		"/.workspaces/main/b.sol",
		"/.workspaces/main/src/a.sol",
	}, fs.OpenFiles())
	active, ok := fs.ActiveFile()
	require.True(t, ok)
	assert.Equal(t, "/.workspaces/main/src/a.sol", active)
	assert.Equal(t, "/.workspaces/main", fs.Cwd())
	assert.Equal(t, "main", fs.SelectedWorkspace())
}

func TestRenameNode_Conflict(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.CreateFile(DefaultCwd, "a")
	require.NoError(t, err)
	_, err = fs.CreateFile(DefaultCwd, "b")
	require.NoError(t, err)

	err = fs.RenameNode(DefaultCwd+"/a", "b")
	require.ErrorIs(t, err, vfs.ErrExist)
	assert.True(t, fs.Resolve(DefaultCwd+"/a").Found())
}

func TestDeleteNode(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.CreateDir(DefaultCwd, "src")
	require.NoError(t, err)
	a, err := fs.CreateFile(DefaultCwd+"/src", "a.sol")
	require.NoError(t, err)
	b, err := fs.CreateFile(DefaultCwd+"/src", "b.sol")
	require.NoError(t, err)
	_, err = fs.CreateFile(DefaultCwd, "keep.sol")
	require.NoError(t, err)

	require.NoError(t, fs.OpenFile(DefaultCwd+"/keep.sol"))
	require.NoError(t, fs.OpenFile(DefaultCwd+"/src/a.sol"))
	require.NoError(t, fs.SetCwd(DefaultCwd+"/src"))

	inos, err := fs.DeleteNode(DefaultCwd + "/src")
	require.NoError(t, err)
	assert.ElementsMatch(t, []vfs.Ino{a, b}, inos)

	assert.False(t, fs.Resolve(DefaultCwd+"/src/a.sol").Found())
	assert.Equal(t, []string{DefaultCwd + "/keep.sol"}, fs.OpenFiles())
	active, _ := fs.ActiveFile()
	assert.Equal(t, DefaultCwd+"/keep.sol", active)
	assert.Equal(t, DefaultCwd, fs.Cwd())
}

func TestDeleteNode_Root(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.DeleteNode("/")
	require.ErrorIs(t, err, vfs.ErrBadName)
}

func TestDeleteNode_SelectedWorkspace(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.DeleteNode(DefaultCwd)
	require.NoError(t, err)

	assert.Equal(t, WorkspacesRoot, fs.Cwd())
	assert.Empty(t, fs.SelectedWorkspace())
	assert.Empty(t, fs.Workspaces())
}

func TestUpdateFileStats(t *testing.T) {
	fs := newTestFS(t)
	ino, err := fs.CreateFile(DefaultCwd, "a.sol")
	require.NoError(t, err)

	require.NoError(t, fs.UpdateFileStatsByIno(ino, 13))
	meta, err := fs.Stat(DefaultCwd + "/a.sol")
	require.NoError(t, err)
	assert.EqualValues(t, 13, meta.Size)

	err = fs.UpdateFileStats(DefaultCwd, 5)
	require.ErrorIs(t, err, vfs.ErrIsDir)

	err = fs.UpdateFileStatsByIno(9999, 1)
	require.ErrorIs(t, err, vfs.ErrNotExist)
}

func TestListChildren_DirsFirst(t *testing.T) {
	fs := newTestFS(t)
	for _, name := range []string{"zeta.sol", "alpha.sol"} {
		_, err := fs.CreateFile(DefaultCwd, name)
		require.NoError(t, err)
	}
	for _, name := range []string{"lib", "contracts"} {
		_, err := fs.CreateDir(DefaultCwd, name)
		require.NoError(t, err)
	}

	entries, err := fs.ListChildren(DefaultCwd)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"contracts", "lib", "alpha.sol", "zeta.sol"}, names)
	assert.Equal(t, DefaultCwd+"/contracts", entries[0].Path)

	_, err = fs.ListChildren(DefaultCwd + "/alpha.sol")
	require.ErrorIs(t, err, vfs.ErrNotDir)
}

func TestResolve_ReturnsSnapshot(t *testing.T) {
	fs := newTestFS(t)
	res := fs.Resolve(DefaultCwd)
	require.True(t, res.Found())

	require.NoError(t, res.Node.AddChild("sneaky", vfs.NewFileNode(vfs.NewFileMeta(99, testNow))))
	assert.False(t, fs.Resolve(DefaultCwd+"/sneaky").Found())
}

func TestResolve_DoesNotCopyChildren(t *testing.T) {
	fs := newTestFS(t)

	res := fs.Resolve(vfs.Root)
	require.True(t, res.Found())
	assert.True(t, res.Node.IsDir())
	assert.Equal(t, RootIno, res.Node.Ino())
	assert.Zero(t, res.Node.Len())
	assert.Equal(t, res.Meta, res.Node.Meta())

	assert.Equal(t, 1, fs.Tree().Root().Len(), "the tree itself keeps its children")
}

func TestSubscribe(t *testing.T) {
	fs := newTestFS(t)

	var mu sync.Mutex
	var events []Event
	unsub := fs.Subscribe(func(ev Event) {
		// Reading state from a callback must not deadlock.
		_ = fs.Cwd()
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	ino, err := fs.CreateFile(DefaultCwd, "a.sol")
	require.NoError(t, err)
	require.NoError(t, fs.RenameNode(DefaultCwd+"/a.sol", "b.sol"))
	_, err = fs.CreateFile(DefaultCwd, "b.sol")
	require.Error(t, err)

	unsub()
	_, err = fs.DeleteNode(DefaultCwd + "/b.sol")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2, "failed mutations and post-unsubscribe changes are not delivered")
	assert.Equal(t, Event{Kind: EventCreated, Path: DefaultCwd + "/a.sol", Ino: ino}, events[0])
	assert.Equal(t, EventRenamed, events[1].Kind)
	assert.Equal(t, DefaultCwd+"/a.sol", events[1].OldPath)
	assert.Equal(t, DefaultCwd+"/b.sol", events[1].Path)
}
