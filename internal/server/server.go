// Package server provides the main HTTP server for ModelRelay.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// operationalPaths are excluded from request logging and rate limiting.
var operationalPaths = []string{"/healthz", "/readyz", "/metrics"}

// MCPHandler serves MCP-over-HTTP traffic and the audit query API.
// Defined here (consumer-side) rather than importing the concrete MCP server.
type MCPHandler interface {
	HandleMCP(w http.ResponseWriter, r *http.Request)
	HandleAuditList(w http.ResponseWriter, r *http.Request)
}

// ReadinessChecker verifies that the server is ready to serve traffic.
// Returns nil if ready, an error describing why not otherwise.
type ReadinessChecker func(ctx context.Context) error

// Server is the main ModelRelay HTTP server.
type Server struct {
	httpServer *http.Server
	mcp        MCPHandler
	logger     *zap.Logger
	mux        *http.ServeMux
	ready      ReadinessChecker
}

// New creates a new Server with middleware and routes.
// The ready parameter is optional; pass nil to report ready unconditionally.
func New(cfg Config, mcp MCPHandler, logger *zap.Logger, ready ReadinessChecker) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mcp:    mcp,
		logger: logger,
		mux:    mux,
		ready:  ready,
	}

	s.registerRoutes(cfg)

	// Middleware chain: outermost listed first.
	middlewares := []Middleware{
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, operationalPaths),
		SecurityHeadersMiddleware,
		VersionHeaderMiddleware,
		RateLimitMiddleware(100, 200, operationalPaths),
	}

	handler := Chain(mux, middlewares...)

	s.httpServer = &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,
		// Streamable MCP responses stay open while a model call runs,
		// so the write timeout is far longer than the read timeout.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// registerRoutes sets up all routes.
func (s *Server) registerRoutes(cfg Config) {
	// Unversioned operational endpoints.
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// The streamable MCP endpoint: POST carries messages, GET opens the
	// event stream, DELETE ends the session. The MCP layer owns the
	// bearer-key check for these.
	s.mux.HandleFunc("POST /mcp", s.mcp.HandleMCP)
	s.mux.HandleFunc("GET /mcp", s.mcp.HandleMCP)
	s.mux.HandleFunc("DELETE /mcp", s.mcp.HandleMCP)

	// Audit rows carry full tool inputs, so the query API sits behind the
	// same key as the MCP endpoint.
	s.mux.HandleFunc("GET /api/v1/audit", requireAPIKey(cfg.APIKey, s.mcp.HandleAuditList))

	// Catch-all for unknown paths.
	s.mux.HandleFunc("/", s.handleNotFound)
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealthz is a liveness probe -- returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// handleReadyz checks readiness -- returns 200 if the server can serve traffic.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}

	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// handleNotFound returns a problem response for unknown paths.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFound(w, "no such endpoint", r.URL.Path)
}

// requireAPIKey wraps a handler with a bearer-key check. An empty key
// disables the check.
func requireAPIKey(key string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key != "" {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != key {
				Unauthorized(w, "missing or invalid API key", r.URL.Path)
				return
			}
		}
		next(w, r)
	}
}
