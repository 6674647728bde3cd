package content

import (
	"context"
	"sync"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Opener opens the backing store on first use.
type Opener func(ctx context.Context) (Store, error)

// Lazy defers opening a Store until the first operation.
//
// Concurrent first callers share a single open: one goroutine runs the
// Opener while the others wait for its result. A successful open is reused
// for the lifetime of the Lazy. A failed open is not cached, so the next
// operation retries.
type Lazy struct {
	open Opener

	mu      sync.Mutex
	store   Store
	pending chan struct{}
	err     error
	closed  bool
}

// NewLazy returns a Lazy that opens its store with open.
func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

// get returns the opened store, opening it if needed.
func (l *Lazy) get(ctx context.Context) (Store, error) {
	for {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return nil, ErrClosed
		}
		if l.store != nil {
			s := l.store
			l.mu.Unlock()
			return s, nil
		}

		if wait := l.pending; wait != nil {
			l.mu.Unlock()
			select {
			case <-wait:
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			// Waiters share the outcome of the open they waited on.
			l.mu.Lock()
			err := l.err
			opened := l.store != nil
			l.mu.Unlock()
			if !opened && err != nil {
				return nil, err
			}
			continue
		}

		done := make(chan struct{})
		l.pending = done
		l.err = nil
		l.mu.Unlock()

		s, err := l.open(ctx)

		l.mu.Lock()
		l.pending = nil
		if err != nil {
			l.err = err
			logger.Warn("Content store open failed: %v", err)
		} else {
			l.store = s
			logger.Debug("Content store opened")
		}
		l.mu.Unlock()
		close(done)

		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Open forces initialization without performing an operation.
func (l *Lazy) Open(ctx context.Context) error {
	_, err := l.get(ctx)
	return err
}

// Read implements Store.
func (l *Lazy) Read(ctx context.Context, ino vfs.Ino) ([]byte, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.Read(ctx, ino)
}

// Write implements Store.
func (l *Lazy) Write(ctx context.Context, ino vfs.Ino, data []byte) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.Write(ctx, ino, data)
}

// Delete implements Store.
func (l *Lazy) Delete(ctx context.Context, ino vfs.Ino) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.Delete(ctx, ino)
}

// List implements Lister when the opened store does.
func (l *Lazy) List(ctx context.Context) ([]vfs.Ino, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return List(ctx, s)
}

// Close closes the underlying store if it was opened. Later operations
// return ErrClosed.
func (l *Lazy) Close() error {
	l.mu.Lock()
	s := l.store
	l.store = nil
	l.closed = true
	l.mu.Unlock()

	if s == nil {
		return nil
	}
	return Close(s)
}
