package gc

import (
	"context"
	"testing"
	"time"

	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/store/content/memory"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup returns a filesystem with one live file and a store holding that
// file's content plus two orphans.
func setup(t *testing.T) (*filesystem.FileSystem, *memory.MemoryContentStore, vfs.Ino) {
	t.Helper()
	ctx := context.Background()

	fs := filesystem.New(filesystem.Options{})
	live, err := fs.CreateFile(filesystem.DefaultCwd, "a.sol")
	require.NoError(t, err)

	store, err := memory.NewMemoryContentStore(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, live, []byte("contract A {}")))
	require.NoError(t, store.Write(ctx, 900, []byte("orphan")))
	require.NoError(t, store.Write(ctx, 901, []byte("orphan")))

	return fs, store, live
}

func TestRunNow_DeletesOrphans(t *testing.T) {
	ctx := context.Background()
	fs, store, live := setup(t)

	stats, err := NewCollector(fs, store, Config{}).RunNow(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.ExistingCount)
	assert.EqualValues(t, 2, stats.OrphanedCount)
	assert.EqualValues(t, 2, stats.DeletedCount)
	assert.Zero(t, stats.FailedCount)
	assert.Contains(t, stats.Summary(), "orphaned=2")

	inos, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []vfs.Ino{live}, inos)
}

func TestRunNow_DryRun(t *testing.T) {
	ctx := context.Background()
	fs, store, _ := setup(t)

	stats, err := NewCollector(fs, store, Config{DryRun: true}).RunNow(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.OrphanedCount)
	assert.Zero(t, stats.DeletedCount)

	inos, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, inos, 3)
}

func TestRunNow_ThroughWrappers(t *testing.T) {
	ctx := context.Background()
	fs, mem, _ := setup(t)

	lazy := content.NewLazy(func(context.Context) (content.Store, error) { return mem, nil })
	wrapped := content.NewInstrumented(lazy, nil)

	stats, err := NewCollector(fs, wrapped, Config{}).RunNow(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.DeletedCount)
}

// unlistable hides the Lister implementation of the wrapped store.
type unlistable struct{ content.Store }

func TestRunNow_RequiresLister(t *testing.T) {
	fs, store, _ := setup(t)

	_, err := NewCollector(fs, unlistable{store}, Config{}).RunNow(context.Background())
	require.ErrorIs(t, err, content.ErrNotSupported)
}

func TestStartStop(t *testing.T) {
	fs, store, _ := setup(t)
	c := NewCollector(fs, store, Config{Interval: 10 * time.Millisecond})

	c.Start()
	c.Start()

	require.Eventually(t, func() bool {
		inos, err := store.List(context.Background())
		return err == nil && len(inos) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
}
