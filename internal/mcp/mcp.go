// Package mcp exposes the model gateway as a Model Context Protocol server.
// Tools cover chat, comparison, and catalog lookups; resources publish the
// catalog and pricing documents. The server speaks stdio for desktop clients
// and streamable HTTP behind the main server mux.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/modelrelay/internal/chat"
	"github.com/HerbHall/modelrelay/internal/openrouter"
	"github.com/HerbHall/modelrelay/internal/version"
)

// Prometheus tool metrics.
var (
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcp_tool_calls_total",
			Help: "Total number of MCP tool invocations by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)
	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcp_tool_call_duration_seconds",
			Help:    "MCP tool invocation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)
)

func init() {
	prometheus.MustRegister(toolCallsTotal)
	prometheus.MustRegister(toolCallDuration)
}

// ChatService abstracts chat orchestration for the tool handlers.
// Implemented by *chat.Service; wired from the composition root.
type ChatService interface {
	Chat(ctx context.Context, req chat.Request) (string, error)
	Compare(ctx context.Context, req chat.CompareRequest) (string, error)
}

// ModelCatalog abstracts catalog lookups for the tool handlers and resources.
// Implemented by *catalog.Service; wired from the composition root.
type ModelCatalog interface {
	List(ctx context.Context) ([]openrouter.Model, error)
	Get(ctx context.Context, id string) (*openrouter.Model, error)
	Pricing(ctx context.Context) (map[string]openrouter.Pricing, error)
}

// Config holds the MCP surface settings.
type Config struct {
	// APIKey gates the streamable HTTP transport with a static bearer token.
	// Empty disables the check. The stdio transport is never gated.
	APIKey string

	// Transport labels audit rows with the serving transport, "stdio" or
	// "http". A process serves exactly one transport, so the label is fixed
	// at construction. Defaults to "stdio".
	Transport string
}

// Server wraps an MCP server with the gateway tool and resource surface.
type Server struct {
	cfg        Config
	chat       ChatService
	catalog    ModelCatalog
	logger     *zap.Logger
	server     *sdkmcp.Server
	auditStore *AuditStore
}

// New creates the MCP server and registers all tools and resources.
func New(cfg Config, chatSvc ChatService, cat ModelCatalog, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Transport == "" {
		cfg.Transport = "stdio"
	}

	s := &Server{
		cfg:     cfg,
		chat:    chatSvc,
		catalog: cat,
		logger:  logger,
		server: sdkmcp.NewServer(
			&sdkmcp.Implementation{
				Name:    "modelrelay",
				Version: version.Short(),
			},
			nil,
		),
	}

	s.registerTools()
	s.registerResources()

	return s
}

// SetAuditStore enables tool call auditing. Called from the composition root
// when a database is configured.
func (s *Server) SetAuditStore(store *AuditStore) {
	s.auditStore = store
}

// Run serves MCP over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	return s.server.Run(ctx, &sdkmcp.StdioTransport{})
}

// HandleMCP wraps the MCP streamable HTTP handler with optional API key auth.
func (s *Server) HandleMCP(w http.ResponseWriter, r *http.Request) {
	if s.cfg.APIKey != "" {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.cfg.APIKey {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
	}

	handler := sdkmcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *sdkmcp.Server { return s.server },
		nil,
	)
	handler.ServeHTTP(w, r)
}

// HandleAuditList returns paginated tool call audit entries.
func (s *Server) HandleAuditList(w http.ResponseWriter, r *http.Request) {
	if s.auditStore == nil {
		http.Error(w, `{"error":"audit store not available"}`, http.StatusServiceUnavailable)
		return
	}

	toolName := r.URL.Query().Get("tool_name")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, total, err := s.auditStore.List(r.Context(), toolName, limit, offset)
	if err != nil {
		s.logger.Error("failed to query audit log", zap.Error(err))
		http.Error(w, `{"error":"failed to query audit log"}`, http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode audit response", zap.Error(err))
	}
}

// toolHandler is the typed handler shape the SDK dispatches to.
type toolHandler[In any] = sdkmcp.ToolHandlerFor[In, any]

// instrument wraps a tool handler with a correlation id, a log line, metrics,
// and a best-effort audit row. Handler semantics are unchanged.
func instrument[In any](s *Server, tool string, h toolHandler[In]) toolHandler[In] {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input In) (*sdkmcp.CallToolResult, any, error) {
		start := time.Now()
		correlationID := uuid.NewString()

		result, out, err := h(ctx, req, input)

		outcome := "success"
		errMsg := ""
		switch {
		case err != nil:
			outcome = "error"
			errMsg = err.Error()
		case result != nil && result.IsError:
			outcome = "error"
			errMsg = resultText(result)
		}

		elapsed := time.Since(start)
		toolCallsTotal.WithLabelValues(tool, outcome).Inc()
		toolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())

		s.logger.Info("tool call",
			zap.String("tool", tool),
			zap.String("correlation_id", correlationID),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
		)

		s.auditToolCall(ctx, tool, writeToolJSON(input), correlationID, start, outcome == "success", errMsg)

		return result, out, err
	}
}

// auditToolCall persists a tool invocation record to the audit log.
// It is a no-op when the audit store is not configured; a write failure logs
// a warning and never fails the tool call.
func (s *Server) auditToolCall(ctx context.Context, toolName, inputJSON, correlationID string, start time.Time, success bool, errMsg string) {
	if s.auditStore == nil {
		return
	}
	entry := AuditEntry{
		Timestamp:     start,
		ToolName:      toolName,
		InputJSON:     inputJSON,
		Transport:     s.cfg.Transport,
		CorrelationID: correlationID,
		DurationMs:    time.Since(start).Milliseconds(),
		Success:       success,
		ErrorMessage:  errMsg,
	}
	if err := s.auditStore.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.Error(err))
	}
}

// resultText extracts the first text block from a tool result.
func resultText(result *sdkmcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// writeToolJSON marshals v to JSON for tool responses and audit rows.
func writeToolJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to marshal response"}`
	}
	return string(data)
}
