package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/metrics"
	badgerstore "github.com/auditforge/workspacefs/pkg/store/badger"
	"github.com/auditforge/workspacefs/pkg/store/content"
	contentfs "github.com/auditforge/workspacefs/pkg/store/content/fs"
	contentmemory "github.com/auditforge/workspacefs/pkg/store/content/memory"
	"github.com/auditforge/workspacefs/pkg/store/content/s3"
	"github.com/auditforge/workspacefs/pkg/store/postgres"
	"github.com/auditforge/workspacefs/pkg/store/snapshot"
	snapshotfile "github.com/auditforge/workspacefs/pkg/store/snapshot/file"
	snapshotmemory "github.com/auditforge/workspacefs/pkg/store/snapshot/memory"
	"github.com/mitchellh/mapstructure"
)

// s3YAMLConfig represents S3 configuration loaded from YAML files.
type s3YAMLConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	MaxSize         int64  `mapstructure:"max_size"`
}

// StoreFactory creates content and snapshot stores from configuration.
//
// Badger-backed content and snapshot stores configured with the same
// db_path share one database handle. Postgres-backed stores with the same
// dsn and namespace share one pool. Close releases everything the factory
// opened.
type StoreFactory struct {
	mu     sync.Mutex
	dbs    map[string]*badgerstore.DB
	pools  map[string]*postgres.DB
	lazies []*content.Lazy
}

// NewStoreFactory creates an empty factory.
func NewStoreFactory() *StoreFactory {
	return &StoreFactory{
		dbs:   make(map[string]*badgerstore.DB),
		pools: make(map[string]*postgres.DB),
	}
}

// openBadger returns the shared database for cfg, opening it on first use.
func (f *StoreFactory) openBadger(ctx context.Context, cfg badgerstore.Config) (*badgerstore.DB, error) {
	key := "in_memory"
	if !cfg.InMemory {
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("badger db_path is required")
		}
		key = filepath.Clean(cfg.DBPath)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if db, ok := f.dbs[key]; ok {
		logger.Debug("Reusing BadgerDB %q", key)
		return db, nil
	}

	db, err := badgerstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	f.dbs[key] = db
	return db, nil
}

// openPostgres returns the shared pool for cfg, connecting on first use.
func (f *StoreFactory) openPostgres(ctx context.Context, cfg postgres.Config) (*postgres.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = postgres.DefaultNamespace
	}
	key := cfg.DSN + "\x00" + cfg.Namespace

	f.mu.Lock()
	defer f.mu.Unlock()

	if db, ok := f.pools[key]; ok {
		logger.Debug("Reusing postgres pool (namespace=%s)", cfg.Namespace)
		return db, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	f.pools[key] = db
	return db, nil
}

// CreateContentStore builds the content store selected by cfg.Type.
//
// The backend-specific section is decoded immediately so configuration
// mistakes surface here. The backend itself is opened on first use, and
// every operation is reported to the content metrics.
func (f *StoreFactory) CreateContentStore(ctx context.Context, cfg ContentConfig) (content.Store, error) {
	open, err := f.contentOpener(cfg)
	if err != nil {
		return nil, err
	}

	lazy := content.NewLazy(open)

	f.mu.Lock()
	f.lazies = append(f.lazies, lazy)
	f.mu.Unlock()

	logger.Debug("Content store configured (type=%s)", cfg.Type)
	return content.NewInstrumented(lazy, metrics.NewContentMetrics(cfg.Type)), nil
}

// contentOpener decodes cfg and returns the function that opens the store.
func (f *StoreFactory) contentOpener(cfg ContentConfig) (content.Opener, error) {
	switch cfg.Type {
	case "memory":
		return func(ctx context.Context) (content.Store, error) {
			return contentmemory.NewMemoryContentStore(ctx)
		}, nil

	case "badger":
		var badgerCfg badgerstore.Config
		if err := mapstructure.Decode(cfg.Badger, &badgerCfg); err != nil {
			return nil, fmt.Errorf("invalid badger config: %w", err)
		}
		return func(ctx context.Context) (content.Store, error) {
			db, err := f.openBadger(ctx, badgerCfg)
			if err != nil {
				return nil, err
			}
			return db.Content(), nil
		}, nil

	case "filesystem":
		var fsCfg struct {
			Path string `mapstructure:"path"`
		}
		if err := mapstructure.Decode(cfg.Filesystem, &fsCfg); err != nil {
			return nil, fmt.Errorf("invalid filesystem config: %w", err)
		}
		if fsCfg.Path == "" {
			return nil, fmt.Errorf("filesystem path is required")
		}
		return func(ctx context.Context) (content.Store, error) {
			store, err := contentfs.NewFSContentStore(ctx, fsCfg.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize filesystem store: %w", err)
			}
			return store, nil
		}, nil

	case "s3":
		var yamlCfg s3YAMLConfig
		if err := mapstructure.Decode(cfg.S3, &yamlCfg); err != nil {
			return nil, fmt.Errorf("invalid S3 config: %w", err)
		}
		if yamlCfg.Bucket == "" {
			return nil, fmt.Errorf("S3 bucket is required")
		}
		if yamlCfg.Region == "" {
			return nil, fmt.Errorf("S3 region is required")
		}
		return func(ctx context.Context) (content.Store, error) {
			return createS3ContentStore(ctx, yamlCfg)
		}, nil

	case "postgres":
		var pgCfg postgres.Config
		if err := mapstructure.Decode(cfg.Postgres, &pgCfg); err != nil {
			return nil, fmt.Errorf("invalid postgres config: %w", err)
		}
		if pgCfg.DSN == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		return func(ctx context.Context) (content.Store, error) {
			db, err := f.openPostgres(ctx, pgCfg)
			if err != nil {
				return nil, err
			}
			return db.Content(), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

// createS3ContentStore creates an S3-backed content store.
func createS3ContentStore(ctx context.Context, yamlCfg s3YAMLConfig) (content.Store, error) {
	client, err := s3.NewS3ClientFromConfig(
		ctx,
		yamlCfg.Endpoint,
		yamlCfg.Region,
		yamlCfg.AccessKeyID,
		yamlCfg.SecretAccessKey,
		yamlCfg.ForcePathStyle,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	store, err := s3.NewS3ContentStore(ctx, s3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    yamlCfg.Bucket,
		KeyPrefix: yamlCfg.KeyPrefix,
		MaxSize:   yamlCfg.MaxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 store: %w", err)
	}

	return store, nil
}

// CreateSnapshotStore builds the snapshot store selected by cfg.Type.
//
// Unlike content, snapshot stores open eagerly: hydration reads from them
// before anything else happens.
func (f *StoreFactory) CreateSnapshotStore(ctx context.Context, cfg SnapshotConfig) (snapshot.Store, error) {
	switch cfg.Type {
	case "memory":
		return snapshotmemory.New(), nil

	case "badger":
		var badgerCfg badgerstore.Config
		if err := mapstructure.Decode(cfg.Badger, &badgerCfg); err != nil {
			return nil, fmt.Errorf("invalid badger config: %w", err)
		}
		db, err := f.openBadger(ctx, badgerCfg)
		if err != nil {
			return nil, err
		}
		return db.Snapshots(), nil

	case "file":
		var fileCfg snapshotfile.Config
		if err := mapstructure.Decode(cfg.File, &fileCfg); err != nil {
			return nil, fmt.Errorf("invalid file snapshot config: %w", err)
		}
		return snapshotfile.New(fileCfg)

	case "postgres":
		var pgCfg postgres.Config
		if err := mapstructure.Decode(cfg.Postgres, &pgCfg); err != nil {
			return nil, fmt.Errorf("invalid postgres config: %w", err)
		}
		db, err := f.openPostgres(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		return db.Snapshots(), nil

	default:
		return nil, fmt.Errorf("unknown snapshot store type: %q", cfg.Type)
	}
}

// Close closes every store and database the factory opened.
func (f *StoreFactory) Close() error {
	f.mu.Lock()
	lazies := f.lazies
	dbs := f.dbs
	pools := f.pools
	f.lazies = nil
	f.dbs = make(map[string]*badgerstore.DB)
	f.pools = make(map[string]*postgres.DB)
	f.mu.Unlock()

	var errs []error
	for _, l := range lazies {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for key, db := range dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close badger %q: %w", key, err))
		}
	}
	for _, db := range pools {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres %q: %w", db.Namespace(), err))
		}
	}
	return errors.Join(errs...)
}

// Stores bundles the stores one workspace runs on.
type Stores struct {
	Content  content.Store
	Snapshot snapshot.Store

	factory *StoreFactory
}

// OpenStores creates the content and snapshot stores described by cfg.
func OpenStores(ctx context.Context, cfg *Config) (*Stores, error) {
	factory := NewStoreFactory()

	snap, err := factory.CreateSnapshotStore(ctx, cfg.Snapshot)
	if err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	cs, err := factory.CreateContentStore(ctx, cfg.Content)
	if err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("content store: %w", err)
	}

	return &Stores{Content: cs, Snapshot: snap, factory: factory}, nil
}

// Close releases the stores.
func (s *Stores) Close() error {
	return s.factory.Close()
}
