// Package metrics holds the Prometheus collectors for workspacefs.
//
// Collection is opt-in. Until InitRegistry runs, every constructor returns
// nil and the instrumented packages fall back to their own no-op
// implementations, so nothing is registered or allocated.
//
//	metrics.InitRegistry()
//	store := content.NewInstrumented(backend, metrics.NewContentMetrics("badger"))
//	fs := filesystem.New(filesystem.Options{Metrics: metrics.NewFilesystemMetrics()})
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the process-wide registry with Go runtime and
// process collectors. Later calls do nothing.
func InitRegistry() {
	registryOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = reg
	})
}

// GetRegistry returns the registry, or nil before InitRegistry.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has run.
func IsEnabled() bool {
	return GetRegistry() != nil
}
