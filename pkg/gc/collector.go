// Package gc provides garbage collection for orphaned content.
//
// The garbage collector identifies and removes content whose inode no
// longer appears in the filesystem tree (orphaned content). This can occur
// due to:
//   - Crashes between a tree delete and the content delete
//   - Failed best-effort content deletes
//   - Snapshots restored from an older backup
//
// Orphans are never visible through the filesystem; collecting them only
// reclaims space. The content store must implement content.Lister.
package gc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Collector performs periodic garbage collection on a content store.
//
// Thread Safety: Safe for concurrent use. Runs never overlap.
type Collector struct {
	fs           *filesystem.FileSystem
	contentStore content.Store
	config       Config

	runMu sync.Mutex

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Interval is how often to run garbage collection (default: 1h)
	Interval time.Duration

	// DryRun mode logs what would be deleted without actually deleting
	DryRun bool
}

// NewCollector creates a new garbage collector for the content of fs.
//
// The collector will be initialized but not started. Call Start() to begin
// background garbage collection, or RunNow() for a single pass.
func NewCollector(fs *filesystem.FileSystem, contentStore content.Store, config Config) *Collector {
	if config.Interval == 0 {
		config.Interval = time.Hour
	}

	return &Collector{
		fs:           fs,
		contentStore: contentStore,
		config:       config,
	}
}

// Start begins background garbage collection. Safe to call multiple times
// (subsequent calls are no-ops).
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.running = true

	logger.Info("Starting garbage collector: interval=%s dry_run=%v", c.config.Interval, c.config.DryRun)
	go c.worker(c.stopCh, c.doneCh)
}

// Stop stops the garbage collector and waits for an in-progress run to
// finish, or for ctx to expire. Safe to call multiple times.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	close(c.stopCh)
	done := c.doneCh
	c.mu.Unlock()

	select {
	case <-done:
		logger.Debug("Garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow performs one collection and blocks until it completes or ctx is
// cancelled.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	return c.collect(ctx)
}

// worker is the background goroutine that runs periodic garbage collection.
func (c *Collector) worker(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-stop:
			return
		}
	}
}

// collect performs a single garbage collection run.
//
// The store is listed before the tree is read. Content is only ever written
// for an inode already in the tree, so anything listed that is missing from
// the later tree is a true orphan even while edits continue.
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	stats := &Stats{StartTime: time.Now()}

	existing, err := content.List(ctx, c.contentStore)
	if err != nil {
		return stats, fmt.Errorf("failed to list content: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	tree := c.fs.Tree()
	referenced := make(map[vfs.Ino]struct{})
	for _, ino := range vfs.CollectInos(tree.Root()) {
		referenced[ino] = struct{}{}
	}
	stats.ReferencedCount = uint64(len(referenced))

	var orphaned []vfs.Ino
	for _, ino := range existing {
		if _, ok := referenced[ino]; !ok {
			orphaned = append(orphaned, ino)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	if len(orphaned) == 0 || c.config.DryRun {
		if c.config.DryRun && len(orphaned) > 0 {
			logger.Info("GC: DRY RUN - would delete %d items: %v", len(orphaned), preview(orphaned))
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	for _, ino := range orphaned {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		if err := c.contentStore.Delete(ctx, ino); err != nil {
			logger.Debug("GC: Failed to delete ino %d: %v", ino, err)
			stats.FailedCount++
			continue
		}
		stats.DeletedCount++
	}

	stats.EndTime = time.Now()
	logger.Info("GC: deleted %d items, %d failed, duration=%s",
		stats.DeletedCount, stats.FailedCount, stats.Duration())

	return stats, nil
}

// preview returns at most the first ten inodes for logging.
func preview(inos []vfs.Ino) []vfs.Ino {
	if len(inos) > 10 {
		return inos[:10]
	}
	return inos
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime       time.Time // When collection started
	EndTime         time.Time // When collection ended
	ReferencedCount uint64    // Number of inodes in the tree
	ExistingCount   uint64    // Number of inodes with stored content
	OrphanedCount   uint64    // Number of stored inodes missing from the tree
	DeletedCount    uint64    // Number of orphans successfully deleted
	FailedCount     uint64    // Number of orphans that failed to delete
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
