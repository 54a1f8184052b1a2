package daemon

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/releasebot/internal/logfields"
)

const readHeaderTimeout = 5 * time.Second

// HTTPServer exposes /metrics and /healthz for a running daemon.
type HTTPServer struct {
	addr    string
	daemon  *Daemon
	metrics http.Handler
	server  *http.Server
}

// NewHTTPServer creates a server on addr. A nil metrics handler leaves /metrics unregistered.
func NewHTTPServer(addr string, daemon *Daemon, metrics http.Handler) *HTTPServer {
	return &HTTPServer{addr: addr, daemon: daemon, metrics: metrics}
}

// Handler returns the routing for the server.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.daemon.PerformHealthChecks()
	w.Header().Set("Content-Type", "application/json")
	if health.Status == HealthStatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		slog.Warn("Failed to encode health response", logfields.Error(err))
	}
}

// Start binds the address and serves in the background. Binding errors are
// returned so a port conflict fails the command instead of being logged later.
func (s *HTTPServer) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics listener %s: %w", s.addr, err)
	}
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		if err := s.server.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", logfields.Error(err))
		}
	}()
	slog.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
