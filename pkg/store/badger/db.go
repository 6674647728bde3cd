// Package badger implements persistent content and snapshot storage on top
// of a single embedded BadgerDB database.
//
// One DB serves both namespaces (see keys.go). ContentStore and
// SnapshotStore are lightweight views that share the DB handle; closing the
// DB closes both.
package badger

import (
	"context"
	"fmt"
	"sync"

	"github.com/auditforge/workspacefs/internal/logger"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Config contains configuration for opening the shared BadgerDB database.
type Config struct {
	// DBPath is the directory where BadgerDB will store its files.
	DBPath string `mapstructure:"db_path"`

	// InMemory runs BadgerDB without touching disk (tests).
	InMemory bool `mapstructure:"in_memory"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`

	// MaxValueSize rejects content writes larger than this many bytes.
	// 0 means unlimited.
	MaxValueSize int64 `mapstructure:"max_value_size"`
}

// DB wraps a BadgerDB handle shared by the content and snapshot views.
type DB struct {
	db           *badger.DB
	maxValueSize int64

	closeOnce sync.Once
	closeErr  error
}

// Open opens (or creates) the database described by cfg.
//
// Context Cancellation:
// The context is checked before the database is opened.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger db_path is required")
	}

	opts := badger.DefaultOptions(cfg.DBPath)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}

	// Workspace files are small text; compression overhead not worth it.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := cfg.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := cfg.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	logger.Debug("Opened BadgerDB (path=%q, in_memory=%v)", cfg.DBPath, cfg.InMemory)
	return &DB{db: db, maxValueSize: cfg.MaxValueSize}, nil
}

// Content returns the content store view of the database.
func (d *DB) Content() *ContentStore {
	return &ContentStore{db: d}
}

// Snapshots returns the snapshot store view of the database.
func (d *DB) Snapshots() *SnapshotStore {
	return &SnapshotStore{db: d}
}

// Close closes the database. It is safe to call more than once.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.db.Close()
	})
	return d.closeErr
}
