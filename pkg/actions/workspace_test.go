package actions

import (
	"context"
	"testing"
	"time"

	"github.com/auditforge/workspacefs/pkg/editor"
	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/auditforge/workspacefs/pkg/store/content/memory"
	"github.com/auditforge/workspacefs/pkg/store/snapshot"
	snapmem "github.com/auditforge/workspacefs/pkg/store/snapshot/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActions(t *testing.T) *Actions {
	t.Helper()
	store, err := memory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)
	return New(filesystem.New(filesystem.Options{}), editor.NewOverlay(nil), store)
}

func TestInitializeDefaultWorkspace(t *testing.T) {
	ctx := context.Background()
	a := newActions(t)
	a.FS.MarkHydrated()

	require.NoError(t, a.InitializeDefaultWorkspace(ctx))

	welcome := filesystem.DefaultCwd + "/" + WelcomeFileName
	text, err := a.ReadFile(ctx, welcome)
	require.NoError(t, err)
	assert.Equal(t, WelcomeFileContent, text)
	assert.Contains(t, text, "AI-assisted security analysis")

	active, ok := a.FS.ActiveFile()
	require.True(t, ok)
	assert.Equal(t, welcome, active)
	assert.Equal(t, filesystem.DefaultWorkspace, a.FS.SelectedWorkspace())
	assert.True(t, a.FS.WorkspaceInitialized())

	meta, err := a.FS.Stat(welcome)
	require.NoError(t, err)
	assert.EqualValues(t, len(WelcomeFileContent), meta.Size)
}

func TestInitializeDefaultWorkspace_RunsOnce(t *testing.T) {
	ctx := context.Background()
	a := newActions(t)
	a.FS.MarkHydrated()
	require.NoError(t, a.InitializeDefaultWorkspace(ctx))

	welcome := filesystem.DefaultCwd + "/" + WelcomeFileName
	_, err := a.FS.DeleteNode(welcome)
	require.NoError(t, err)

	require.NoError(t, a.InitializeDefaultWorkspace(ctx))
	assert.False(t, a.FS.Resolve(welcome).Found(), "second run must not recreate the file")
}

func TestInitializeDefaultWorkspace_KeepsExistingWelcome(t *testing.T) {
	ctx := context.Background()
	a := newActions(t)
	a.FS.MarkHydrated()

	welcome := filesystem.DefaultCwd + "/" + WelcomeFileName
	require.NoError(t, a.WriteFile(ctx, welcome, "my notes"))

	require.NoError(t, a.InitializeDefaultWorkspace(ctx))
	text, err := a.ReadFile(ctx, welcome)
	require.NoError(t, err)
	assert.Equal(t, "my notes", text)
}

func TestInitializeDefaultWorkspace_WithoutDefaultWorkspace(t *testing.T) {
	ctx := context.Background()
	a := newActions(t)
	_, err := a.FS.DeleteNode(filesystem.DefaultCwd)
	require.NoError(t, err)
	a.FS.MarkHydrated()

	require.NoError(t, a.InitializeDefaultWorkspace(ctx))
	assert.True(t, a.FS.WorkspaceInitialized())
	assert.Empty(t, a.FS.OpenFiles())
}

func TestInitializeDefaultWorkspace_WaitsForHydration(t *testing.T) {
	a := newActions(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, a.InitializeDefaultWorkspace(ctx), context.DeadlineExceeded)
	assert.False(t, a.FS.WorkspaceInitialized())
}

// A restored session must not be reinitialized: hydration brings back the
// initialized flag before setup looks at it.
func TestInitializeDefaultWorkspace_AfterHydration(t *testing.T) {
	ctx := context.Background()
	snaps := snapmem.New()

	first := newActions(t)
	first.FS.MarkHydrated()
	require.NoError(t, first.InitializeDefaultWorkspace(ctx))
	_, err := first.FS.DeleteNode(filesystem.DefaultCwd + "/" + WelcomeFileName)
	require.NoError(t, err)
	require.NoError(t, first.FS.Persist(ctx, snaps, filesystem.DefaultSnapshotName))

	second := New(filesystem.New(filesystem.Options{}), editor.NewOverlay(nil), first.Content)
	done := make(chan error, 1)
	go func() { done <- second.InitializeDefaultWorkspace(ctx) }()

	require.NoError(t, hydrate(ctx, second, snaps))
	require.NoError(t, <-done)
	assert.False(t, second.FS.Resolve(filesystem.DefaultCwd+"/"+WelcomeFileName).Found())
}

func hydrate(ctx context.Context, a *Actions, store snapshot.Store) error {
	return a.FS.Hydrate(ctx, store, filesystem.DefaultSnapshotName)
}
