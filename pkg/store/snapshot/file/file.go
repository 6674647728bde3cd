// Package file implements a snapshot store that keeps one JSON file per
// snapshot name in a directory.
//
// Saves are atomic: the new value is written to a temporary file and renamed
// over the old one. Before each save the previous value is copied into a
// per-name backup directory; only the most recent backups are kept.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/store/snapshot"
	"github.com/google/uuid"
)

const (
	backupDirName = ".backups"
	snapshotExt   = ".json"

	// DefaultBackupCount is used when Config.BackupCount is 0.
	DefaultBackupCount = 5
)

// Config configures a file snapshot store.
type Config struct {
	// Dir is the directory holding snapshot files. Created if missing.
	Dir string `mapstructure:"dir"`

	// BackupCount is how many previous versions to keep per name.
	// 0 uses DefaultBackupCount; negative disables backups.
	BackupCount int `mapstructure:"backup_count"`
}

// Store is a directory-backed snapshot.Store.
type Store struct {
	dir         string
	backupCount int

	// mu serializes saves so backup rotation sees a consistent directory.
	mu sync.Mutex

	now func() time.Time
}

// New creates a file snapshot store, creating cfg.Dir if needed.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", cfg.Dir, err)
	}

	count := cfg.BackupCount
	if count == 0 {
		count = DefaultBackupCount
	}

	logger.Debug("Snapshot store at %s (backups: %d)", cfg.Dir, count)
	return &Store{dir: cfg.Dir, backupCount: count, now: time.Now}, nil
}

func (s *Store) snapshotPath(name string) string {
	return filepath.Join(s.dir, name+snapshotExt)
}

func (s *Store) backupDir(name string) string {
	return filepath.Join(s.dir, backupDirName, name)
}

// Load implements snapshot.Store. An empty file is treated as absent.
func (s *Store) Load(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := snapshot.ValidateName(name); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.snapshotPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read snapshot %q: %w", name, err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}

	return data, true, nil
}

// Save implements snapshot.Store.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snapshot.ValidateName(name); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("refusing to write empty snapshot %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backupCount > 0 {
		if err := s.createBackup(name); err != nil {
			// Continue with save even if backup fails
			logger.Warn("Failed to back up snapshot %q: %v", name, err)
		}
	}

	tmpPath := filepath.Join(s.dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot %q: %w", name, err)
	}
	if err := os.Rename(tmpPath, s.snapshotPath(name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to commit snapshot %q: %w", name, err)
	}

	logger.Debug("Saved snapshot %q (%d bytes)", name, len(data))
	return nil
}

// Backups returns the backup file paths for name, newest first.
func (s *Store) Backups(name string) ([]string, error) {
	if err := snapshot.ValidateName(name); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.backupDir(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), snapshotExt) {
			names = append(names, entry.Name())
		}
	}

	// Names start with a zero-padded timestamp, so lexical order is age order.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(s.backupDir(name), n)
	}
	return paths, nil
}

// createBackup copies the current snapshot into the backup directory and
// prunes old backups. A missing snapshot needs no backup.
func (s *Store) createBackup(name string) error {
	data, err := os.ReadFile(s.snapshotPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	dir := s.backupDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupName := fmt.Sprintf("%020d-%s%s", s.now().UnixNano(), uuid.NewString()[:8], snapshotExt)
	if err := os.WriteFile(filepath.Join(dir, backupName), data, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	return s.cleanupOldBackups(name)
}

// cleanupOldBackups removes backups beyond backupCount, oldest first.
func (s *Store) cleanupOldBackups(name string) error {
	backups, err := s.Backups(name)
	if err != nil {
		return err
	}

	for i := s.backupCount; i < len(backups); i++ {
		logger.Debug("Removing old backup: %s", backups[i])
		if err := os.Remove(backups[i]); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i], err)
		}
	}
	return nil
}
