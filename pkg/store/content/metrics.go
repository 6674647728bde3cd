package content

import (
	"context"
	"time"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Metrics provides observability for content store operations.
//
// Implementations collect operation counts, latency and bytes moved. This is
// optional: a nil Metrics passed to NewInstrumented disables collection.
type Metrics interface {
	// ObserveOperation records an operation ("read", "write", "delete") with
	// its duration and outcome.
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes transferred by read and write operations.
	RecordBytes(operation string, bytes int64)
}

// noopMetrics is a default no-op metrics implementation
type noopMetrics struct{}

func (noopMetrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopMetrics) RecordBytes(operation string, bytes int64)                            {}

// Instrumented wraps a Store and reports every operation to Metrics.
type Instrumented struct {
	Store
	metrics Metrics
}

// NewInstrumented wraps s. A nil m yields a pass-through wrapper.
func NewInstrumented(s Store, m Metrics) *Instrumented {
	if m == nil {
		m = noopMetrics{}
	}
	return &Instrumented{Store: s, metrics: m}
}

// Read implements Store.
func (i *Instrumented) Read(ctx context.Context, ino vfs.Ino) ([]byte, error) {
	start := time.Now()
	data, err := i.Store.Read(ctx, ino)
	i.metrics.ObserveOperation("read", time.Since(start), err)
	if err == nil {
		i.metrics.RecordBytes("read", int64(len(data)))
	}
	return data, err
}

// Write implements Store.
func (i *Instrumented) Write(ctx context.Context, ino vfs.Ino, data []byte) error {
	start := time.Now()
	err := i.Store.Write(ctx, ino, data)
	i.metrics.ObserveOperation("write", time.Since(start), err)
	if err == nil {
		i.metrics.RecordBytes("write", int64(len(data)))
	}
	return err
}

// Delete implements Store.
func (i *Instrumented) Delete(ctx context.Context, ino vfs.Ino) error {
	start := time.Now()
	err := i.Store.Delete(ctx, ino)
	i.metrics.ObserveOperation("delete", time.Since(start), err)
	return err
}

// List implements Lister when the wrapped store does.
func (i *Instrumented) List(ctx context.Context) ([]vfs.Ino, error) {
	start := time.Now()
	inos, err := List(ctx, i.Store)
	i.metrics.ObserveOperation("list", time.Since(start), err)
	return inos, err
}

// Open opens the wrapped store if it opens lazily.
func (i *Instrumented) Open(ctx context.Context) error {
	start := time.Now()
	err := Open(ctx, i.Store)
	i.metrics.ObserveOperation("open", time.Since(start), err)
	return err
}

// Close closes the wrapped store.
func (i *Instrumented) Close() error {
	return Close(i.Store)
}
