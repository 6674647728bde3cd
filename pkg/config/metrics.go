package config

import (
	"context"

	"github.com/auditforge/workspacefs/pkg/filesystem"
	"github.com/auditforge/workspacefs/pkg/metrics"
)

// MetricsResult holds the metrics components built from configuration.
type MetricsResult struct {
	// Filesystem receives tree mutation and snapshot observations.
	// nil when metrics are disabled; the filesystem substitutes a no-op.
	Filesystem filesystem.Metrics

	enabled bool
	port    int
}

// Enabled reports whether metrics collection is on.
func (m *MetricsResult) Enabled() bool {
	return m.enabled
}

// NewServer builds the HTTP server for the registry. ready backs /readyz.
// It returns nil when metrics are disabled.
func (m *MetricsResult) NewServer(ready func(ctx context.Context) error) *metrics.Server {
	if !m.enabled {
		return nil
	}
	return metrics.NewServer(metrics.ServerConfig{Port: m.port, Ready: ready})
}

// InitializeMetrics initializes the global registry when cfg enables
// metrics and returns the per-component collectors.
//
// Content store metrics are picked up by StoreFactory once the registry
// exists, so call this before OpenStores.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Filesystem: metrics.NewFilesystemMetrics(),
		enabled:    true,
		port:       cfg.Metrics.Port,
	}
}
