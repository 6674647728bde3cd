// Package postgres implements content and snapshot storage in PostgreSQL.
//
// One connection pool serves both tables. Rows are scoped by a namespace so
// several workspaces can share a database. ContentStore and SnapshotStore
// are views over the shared pool; closing the DB closes both.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultNamespace scopes rows when no namespace is configured.
const DefaultNamespace = "default"

// Config contains configuration for connecting to PostgreSQL.
type Config struct {
	// DSN is a libpq connection string or URL.
	DSN string `mapstructure:"dsn"`

	// Namespace scopes every row this DB reads or writes.
	Namespace string `mapstructure:"namespace"`

	// MaxConns caps the pool size. 0 keeps the pgx default.
	MaxConns int32 `mapstructure:"max_conns"`

	// MaxValueSize rejects content writes larger than this many bytes.
	// 0 means unlimited.
	MaxValueSize int64 `mapstructure:"max_value_size"`
}

// Client is the subset of the pool used by the stores. A pgx.Tx satisfies it
// too, so queries run unchanged inside WithTransaction.
type Client interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB wraps a connection pool shared by the content and snapshot views.
type DB struct {
	pool         *pgxpool.Pool
	namespace    string
	maxValueSize int64

	closed    atomic.Bool
	closeOnce sync.Once
}

// Open connects to the database described by cfg and creates the schema if
// it does not exist yet.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w: %w", content.ErrUnavailable, err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	logger.Debug("Connected to postgres (host=%s, database=%s, namespace=%s)",
		poolCfg.ConnConfig.Host, poolCfg.ConnConfig.Database, namespace)

	return &DB{pool: pool, namespace: namespace, maxValueSize: cfg.MaxValueSize}, nil
}

// Content returns the content store view of the database.
func (d *DB) Content() *ContentStore {
	return &ContentStore{db: d}
}

// Snapshots returns the snapshot store view of the database.
func (d *DB) Snapshots() *SnapshotStore {
	return &SnapshotStore{db: d}
}

// Namespace returns the namespace rows are scoped by.
func (d *DB) Namespace() string {
	return d.namespace
}

// Close closes the pool. It is safe to call more than once.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.pool.Close()
	})
	return nil
}

// client returns the pool, or content.ErrClosed after Close.
func (d *DB) client() (Client, error) {
	if d.closed.Load() {
		return nil, content.ErrClosed
	}
	return d.pool, nil
}

// WithTransaction runs fn inside a transaction on db. The transaction is
// committed when fn returns nil and rolled back otherwise.
func WithTransaction(ctx context.Context, db Client, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	return fn(tx)
}
