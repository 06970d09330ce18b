package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

const (
	DefaultMetricsAddr = "127.0.0.1:9090"
	DefaultMetricsPath = "/metrics"
	DefaultHealthPath  = "/health"
)

// ErrServerRunning is returned by Start on a running server.
var ErrServerRunning = errors.New("metrics server already running")

// Server exposes the Prometheus registry and the health checks over HTTP:
//
//	GET /metrics          Prometheus exposition
//	GET /health           every check; 503 when one fails
//	GET /health/{check}   a single check; 404 when unknown
type Server struct {
	metrics *Metrics
	health  *HealthChecker
	addr    string

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHealthChecker serves h under /health.
func WithHealthChecker(h *HealthChecker) ServerOption {
	return func(s *Server) {
		s.health = h
	}
}

// WithAddr sets the listen address. Empty keeps the default.
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// NewServer creates a metrics server for m.
func NewServer(m *Metrics, opts ...ServerOption) *Server {
	s := &Server{
		metrics: m,
		health:  NewHealthChecker(),
		addr:    DefaultMetricsAddr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle(DefaultMetricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc(DefaultHealthPath, s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc(DefaultHealthPath+"/{check}", s.handleCheck).Methods(http.MethodGet)
	return router
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrServerRunning
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	server := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.server, s.listener = server, listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	return nil
}

// Stop shuts the server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["check"]
	check, ok := s.health.CheckOne(r.Context(), name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown check %q", name), http.StatusNotFound)
		return
	}
	code := http.StatusOK
	if !check.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, check)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
