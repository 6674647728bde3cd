package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/auditforge/workspacefs/pkg/store/content"
	storetesting "github.com/auditforge/workspacefs/pkg/store/content/testing"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSContentStore(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.Store {
			store, err := NewFSContentStore(context.Background(), t.TempDir())
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestFSContentStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSContentStore(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, store.Write(context.Background(), 42, []byte("pragma solidity ^0.8.0;")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "42", entries[0].Name())
}

func TestFSContentStore_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSContentStore(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, tempPrefix+"abandoned"), []byte("x"), 0644))
	require.NoError(t, store.Write(context.Background(), 7, []byte("seven")))

	inos, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []vfs.Ino{7}, inos)
}

func TestNewFSContentStore_RequiresPath(t *testing.T) {
	_, err := NewFSContentStore(context.Background(), "")
	require.Error(t, err)
}
