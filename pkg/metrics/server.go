package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/auditforge/workspacefs/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPort is the port the metrics server listens on when none is set.
const DefaultPort = 9090

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Port to listen on. Default: DefaultPort.
	Port int

	// Ready reports whether the workspace is loaded and its stores are
	// usable. /readyz answers 503 while it returns an error. nil is always
	// ready.
	Ready func(ctx context.Context) error
}

// Server serves the global registry over HTTP:
//   - GET /metrics: Prometheus exposition
//   - GET /healthz: 200 while the process is up
//   - GET /readyz: 200 once ServerConfig.Ready succeeds
type Server struct {
	server *http.Server
	port   int

	mu       sync.Mutex
	listener net.Listener
	stopOnce sync.Once
}

// NewServer creates a stopped server. Call Start to serve.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           newMux(cfg.Ready),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		port: cfg.Port,
	}
}

func newMux(ready func(ctx context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()

	if reg := GetRegistry(); reg != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
	} else {
		mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics collection is disabled", http.StatusServiceUnavailable)
		})
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = fmt.Fprintln(w, "ready")
	})

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "workspacefs: /metrics /healthz /readyz")
	})

	return mux
}

// Start listens on the configured port and serves until ctx is cancelled,
// then shuts down gracefully. A port that cannot be bound is reported
// immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server listen on %s: %w", s.server.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	logger.Info("Metrics server listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		// ctx is already done; shutdown needs its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop shuts the server down. It is safe to call more than once and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		if err = s.server.Shutdown(ctx); err != nil {
			err = fmt.Errorf("metrics server shutdown: %w", err)
			return
		}
		logger.Info("Metrics server stopped")
	})
	return err
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the address being served, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
