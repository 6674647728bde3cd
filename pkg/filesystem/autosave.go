package filesystem

import (
	"context"
	"sync"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/internal/ratelimiter"
	"github.com/auditforge/workspacefs/pkg/store/snapshot"
)

// AutosaveConfig controls how often the autosaver writes snapshots.
type AutosaveConfig struct {
	// Name is the snapshot name. Defaults to DefaultSnapshotName.
	Name string

	// Interval is the minimum spacing between saves once the burst is
	// spent. 0 saves after every change.
	Interval time.Duration

	// Burst is how many saves may happen back to back. Defaults to 1.
	Burst int
}

// Autosaver persists the filesystem whenever it changes.
//
// Changes that arrive while a save is pending or throttled coalesce into a
// single follow-up save, so the stored snapshot always converges to the
// latest state without writing once per change.
type Autosaver struct {
	fs      *FileSystem
	store   snapshot.Store
	name    string
	limiter *ratelimiter.RateLimiter

	trigger chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	unsub   func()
	done    chan struct{}
	running bool
}

// NewAutosaver creates a stopped autosaver for fs writing to store.
func NewAutosaver(fs *FileSystem, store snapshot.Store, cfg AutosaveConfig) *Autosaver {
	name := cfg.Name
	if name == "" {
		name = DefaultSnapshotName
	}
	return &Autosaver{
		fs:      fs,
		store:   store,
		name:    name,
		limiter: ratelimiter.New(cfg.Interval, cfg.Burst),
		trigger: make(chan struct{}, 1),
	}
}

// Start subscribes to filesystem changes and begins saving in the
// background. It returns immediately. Calling Start on a running autosaver
// does nothing.
func (a *Autosaver) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.running = true
	a.unsub = a.fs.Subscribe(func(ev Event) {
		if ev.Kind == EventHydrated {
			return
		}
		a.Notify()
	})

	go a.loop(ctx, a.done)
	logger.Debug("Autosave started for snapshot %q", a.name)
}

// Notify requests a save. Requests made while one is already pending
// collapse into it.
func (a *Autosaver) Notify() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

func (a *Autosaver) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.trigger:
		}

		if err := a.limiter.Wait(ctx); err != nil {
			// Stopped while throttled; Stop performs the final save.
			return
		}
		if err := a.fs.Persist(ctx, a.store, a.name); err != nil {
			logger.Warn("Autosave failed: %v", err)
		}
	}
}

// Stop unsubscribes, waits for the background loop to exit, then writes a
// final snapshot so no change is lost.
func (a *Autosaver) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.unsub()
	a.cancel()
	done := a.done
	a.mu.Unlock()

	<-done

	// Drain any request that raced with shutdown.
	select {
	case <-a.trigger:
	default:
	}

	logger.Debug("Autosave stopped, writing final snapshot %q", a.name)
	return a.fs.Persist(ctx, a.store, a.name)
}
