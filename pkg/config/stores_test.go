package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContentStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  func(dir string) ContentConfig
	}{
		{
			name: "memory",
			cfg:  func(string) ContentConfig { return ContentConfig{Type: "memory"} },
		},
		{
			name: "filesystem",
			cfg: func(dir string) ContentConfig {
				return ContentConfig{Type: "filesystem", Filesystem: map[string]any{"path": dir}}
			},
		},
		{
			name: "badger",
			cfg: func(dir string) ContentConfig {
				return ContentConfig{Type: "badger", Badger: map[string]any{"db_path": dir}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			f := NewStoreFactory()
			t.Cleanup(func() { _ = f.Close() })

			s, err := f.CreateContentStore(ctx, tt.cfg(dir))
			require.NoError(t, err)

			require.NoError(t, content.WriteText(ctx, s, 7, "pragma solidity;"))
			text, err := content.ReadText(ctx, s, 7)
			require.NoError(t, err)
			assert.Equal(t, "pragma solidity;", text)
		})
	}
}

func TestCreateContentStore_ConfigErrors(t *testing.T) {
	ctx := context.Background()
	f := NewStoreFactory()
	defer func() { _ = f.Close() }()

	tests := []struct {
		name string
		cfg  ContentConfig
	}{
		{"unknown type", ContentConfig{Type: "tape"}},
		{"filesystem without path", ContentConfig{Type: "filesystem", Filesystem: map[string]any{}}},
		{"s3 without bucket", ContentConfig{Type: "s3", S3: map[string]any{"region": "us-east-1"}}},
		{"s3 without region", ContentConfig{Type: "s3", S3: map[string]any{"bucket": "b"}}},
		{"badger bad field type", ContentConfig{Type: "badger", Badger: map[string]any{"db_path": []int{1}}}},
		{"postgres without dsn", ContentConfig{Type: "postgres", Postgres: map[string]any{"namespace": "ws"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.CreateContentStore(ctx, tt.cfg)
			require.Error(t, err)
		})
	}
}

func TestCreateContentStore_OpensLazily(t *testing.T) {
	ctx := context.Background()
	f := NewStoreFactory()
	defer func() { _ = f.Close() }()

	// A path below a regular file is only rejected on first use.
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	s, err := f.CreateContentStore(ctx, ContentConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"path": filepath.Join(blocker, "content")},
	})
	require.NoError(t, err)

	_, err = s.Read(ctx, 1)
	require.Error(t, err)
}

func TestCreateSnapshotStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  func(dir string) SnapshotConfig
	}{
		{
			name: "memory",
			cfg:  func(string) SnapshotConfig { return SnapshotConfig{Type: "memory"} },
		},
		{
			name: "file",
			cfg: func(dir string) SnapshotConfig {
				return SnapshotConfig{Type: "file", File: map[string]any{"dir": dir}}
			},
		},
		{
			name: "badger",
			cfg: func(dir string) SnapshotConfig {
				return SnapshotConfig{Type: "badger", Badger: map[string]any{"db_path": dir}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			f := NewStoreFactory()
			t.Cleanup(func() { _ = f.Close() })

			s, err := f.CreateSnapshotStore(ctx, tt.cfg(dir))
			require.NoError(t, err)

			_, ok, err := s.Load(ctx, "ws")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Save(ctx, "ws", []byte(`{"nextIno":4}`)))
			data, ok, err := s.Load(ctx, "ws")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"nextIno":4}`, string(data))
		})
	}

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewStoreFactory().CreateSnapshotStore(ctx, SnapshotConfig{Type: "tape"})
		require.Error(t, err)
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		_, err := NewStoreFactory().CreateSnapshotStore(ctx, SnapshotConfig{Type: "postgres"})
		require.ErrorContains(t, err, "dsn is required")
	})
}

func TestStoreFactory_SharesBadger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewStoreFactory()

	cs, err := f.CreateContentStore(ctx, ContentConfig{Type: "badger", Badger: map[string]any{"db_path": dir}})
	require.NoError(t, err)
	snap, err := f.CreateSnapshotStore(ctx, SnapshotConfig{Type: "badger", Badger: map[string]any{"db_path": dir}})
	require.NoError(t, err)

	// Both views would fail to open the same directory twice.
	require.NoError(t, cs.Write(ctx, vfs.Ino(9), []byte("x")))
	require.NoError(t, snap.Save(ctx, "ws", []byte("{}")))
	assert.Len(t, f.dbs, 1)

	require.NoError(t, f.Close())

	_, err = cs.Read(ctx, 9)
	assert.ErrorIs(t, err, content.ErrClosed)
}

func TestOpenStores(t *testing.T) {
	dir := t.TempDir()
	cfg := GetDefaultConfig()
	cfg.Content.Badger["db_path"] = dir
	cfg.Snapshot.Badger["db_path"] = dir

	stores, err := OpenStores(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, stores.Content)
	require.NotNil(t, stores.Snapshot)
	require.NoError(t, stores.Close())
}
