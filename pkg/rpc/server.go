package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// ServerConfig holds configuration for the RPC server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8899" or "127.0.0.1:8899")
	Address string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxRequestSize is the maximum size of a request body in bytes.
	MaxRequestSize int64

	// AllowedOrigins for CORS.
	AllowedOrigins []string

	// RateLimit is the sustained requests per second allowed per client.
	// Zero disables rate limiting.
	RateLimit float64
	RateBurst int

	// Logger for request logging (nil disables logging).
	Logger *log.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:        "127.0.0.1:8899",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxRequestSize: 1024 * 1024,
		AllowedOrigins: []string{"*"},
	}
}

// ErrServerRunning is returned by Start on a running server.
var ErrServerRunning = errors.New("rpc server already running")

// Server is a JSON-RPC 2.0 server over the ledger.
type Server struct {
	config   *ServerConfig
	handlers *Handlers

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new RPC server. A nil config uses the defaults.
func NewServer(config *ServerConfig, h *Handlers) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	return &Server{config: config, handlers: h}
}

// Handler returns the full HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleRequest).Methods(http.MethodPost)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	var handler http.Handler = router
	if s.config.RateLimit > 0 {
		handler = RateLimitMiddleware(s.config.RateLimit, s.config.RateBurst)(handler)
	}
	handler = handlers.CompressHandler(handler)
	handler = handlers.CORS(
		handlers.AllowedOrigins(s.config.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	if s.config.Logger != nil {
		handler = handlers.RecoveryHandler(handlers.RecoveryLogger(s.config.Logger))(handler)
		handler = handlers.CombinedLoggingHandler(s.config.Logger.Writer(), handler)
	}
	return handler
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return ErrServerRunning
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	server := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.server, s.listener = server, listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("rpc server error: %v", err)
		}
	}()
	return nil
}

// Stop drains in-flight requests and closes the listener. Stopping a
// stopped server is a no-op.
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
	return s.config.Address
}

func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, rpcErr := s.handlers.handleGetHealth(nil); rpcErr != nil {
		http.Error(w, rpcErr.Message, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "ok")
}

// handleRequest serves a single call or a batch. Calls without an id are
// notifications and get no entry in a batch reply.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize))
	if err != nil {
		writeJSON(w, failure(nil, ParseError, "failed to read request body"))
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		writeJSON(w, s.dispatch(trimmed))
		return
	}

	var calls []json.RawMessage
	if err := json.Unmarshal(trimmed, &calls); err != nil {
		writeJSON(w, failure(nil, ParseError, "invalid JSON"))
		return
	}
	if len(calls) == 0 {
		writeJSON(w, failure(nil, InvalidRequest, "empty batch"))
		return
	}
	replies := make([]RPCResponse, 0, len(calls))
	for _, call := range calls {
		if reply := s.dispatch(call); reply.ID != nil {
			replies = append(replies, reply)
		}
	}
	writeJSON(w, replies)
}

// dispatch decodes one call and runs its handler.
func (s *Server) dispatch(body []byte) RPCResponse {
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return failure(nil, ParseError, "invalid JSON")
	}
	if req.JSONRPC != JSONRPCVersion {
		return failure(req.ID, InvalidRequest, "invalid jsonrpc version")
	}
	handler := s.handlers.GetHandler(req.Method)
	if handler == nil {
		return failure(req.ID, MethodNotFound, "method not found: "+req.Method)
	}
	result, rpcErr := handler(req.Params)
	if rpcErr != nil {
		return RPCResponse{JSONRPC: JSONRPCVersion, Error: rpcErr, ID: req.ID}
	}
	return RPCResponse{JSONRPC: JSONRPCVersion, Result: result, ID: req.ID}
}

func failure(id interface{}, code int, message string) RPCResponse {
	return RPCResponse{JSONRPC: JSONRPCVersion, Error: NewRPCError(code, message), ID: id}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
