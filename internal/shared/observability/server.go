package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health is the body served on /health.
type Health struct {
	Status      string     `json:"status"`
	LastRun     *time.Time `json:"last_run,omitempty"` // nil until the first rebuild
	LastError   string     `json:"last_error,omitempty"`
	Definitions int        `json:"definitions"`
	Edges       int        `json:"edges"`
}

// Server exposes /metrics and /health while watch mode runs.
type Server struct {
	addr     string
	server   *http.Server
	listener net.Listener

	mu     sync.RWMutex
	health Health
}

func NewServer(addr string) *Server {
	return &Server{addr: addr, health: Health{Status: "starting"}}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		status := s.health
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	slog.Info("metrics server starting", "addr", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when addr used port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// ReportRun updates /health after a rebuild.
func (s *Server) ReportRun(definitions, edges int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.health.LastRun = &now
	if err != nil {
		s.health.Status = "degraded"
		s.health.LastError = err.Error()
		return
	}
	s.health = Health{Status: "up", LastRun: s.health.LastRun, Definitions: definitions, Edges: edges}
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
