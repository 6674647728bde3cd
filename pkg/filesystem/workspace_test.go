package filesystem

import (
	"testing"

	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkspace(t *testing.T) {
	fs := newTestFS(t)
	next := fs.NextIno()

	ino, err := fs.CreateWorkspace("demo")
	require.NoError(t, err)
	assert.Equal(t, next, ino)

	meta, err := fs.Stat("/.workspaces/demo")
	require.NoError(t, err)
	assert.True(t, meta.IsDir())
	assert.Equal(t, ino, meta.Ino)

	assert.Equal(t, []string{DefaultWorkspace, "demo"}, fs.Workspaces())

	_, err = fs.CreateWorkspace("demo")
	require.ErrorIs(t, err, vfs.ErrExist)

	_, err = fs.CreateWorkspace("../etc")
	require.ErrorIs(t, err, vfs.ErrBadName)
}

func TestCreateWorkspace_RecreatesRoot(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.DeleteNode(WorkspacesRoot)
	require.NoError(t, err)
	assert.Equal(t, vfs.Root, fs.Cwd())

	_, err = fs.CreateWorkspace("fresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, fs.Workspaces())
}

func TestSelectWorkspace(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.CreateWorkspace("demo")
	require.NoError(t, err)

	require.NoError(t, fs.SelectWorkspace("demo"))
	assert.Equal(t, "/.workspaces/demo", fs.Cwd())
	assert.Equal(t, "demo", fs.SelectedWorkspace())

	err = fs.SelectWorkspace("ghost")
	require.ErrorIs(t, err, vfs.ErrNotExist)
	assert.Equal(t, "/.workspaces/demo", fs.Cwd(), "unknown workspace leaves state unchanged")
	assert.Equal(t, "demo", fs.SelectedWorkspace())
}

func TestSetCwd(t *testing.T) {
	fs := newTestFS(t)
	_, err := fs.CreateFile(DefaultCwd, "a.sol")
	require.NoError(t, err)

	require.NoError(t, fs.SetCwd("/"))
	assert.Equal(t, "/", fs.Cwd())
	assert.Empty(t, fs.SelectedWorkspace())

	require.ErrorIs(t, fs.SetCwd(DefaultCwd+"/a.sol"), vfs.ErrNotDir)
	require.ErrorIs(t, fs.SetCwd("/nope"), vfs.ErrNotExist)
	assert.Equal(t, "/", fs.Cwd())
}

func TestWorkspaceOf(t *testing.T) {
	assert.Equal(t, "demo", workspaceOf("/.workspaces/demo"))
	assert.Equal(t, "demo", workspaceOf("/.workspaces/demo/src/a.sol"))
	assert.Equal(t, "", workspaceOf("/.workspaces"))
	assert.Equal(t, "", workspaceOf("/other"))
}
