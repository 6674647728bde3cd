package filesystem

import "time"

// Metrics provides observability for filesystem mutations and persistence.
//
// This is optional - if not provided, metrics collection is skipped.
type Metrics interface {
	// ObserveMutation records a tree mutation ("create_file", "rename", ...)
	// with its duration and outcome.
	ObserveMutation(op string, duration time.Duration, err error)

	// SetNodeCount records the number of nodes in the tree.
	SetNodeCount(n int)

	// ObservePersist records a snapshot load or save.
	ObservePersist(op string, bytes int, duration time.Duration, err error)
}

// noopMetrics is a default no-op metrics implementation
type noopMetrics struct{}

func (noopMetrics) ObserveMutation(op string, duration time.Duration, err error)           {}
func (noopMetrics) SetNodeCount(n int)                                                     {}
func (noopMetrics) ObservePersist(op string, bytes int, duration time.Duration, err error) {}
