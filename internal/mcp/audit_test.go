package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/modelrelay/internal/store"
)

func testAuditStore(t *testing.T) *AuditStore {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), "mcp", Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewAuditStore(db.DB())
}

func TestAuditStore_round_trip(t *testing.T) {
	audit := testAuditStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)
	entry := AuditEntry{
		Timestamp:     ts,
		ToolName:      "chat_with_model",
		InputJSON:     `{"model":"openai/gpt-4o"}`,
		Transport:     "http",
		CorrelationID: "11111111-2222-3333-4444-555555555555",
		DurationMs:    87,
		Success:       false,
		ErrorMessage:  "chat failed: rate limited",
	}
	if err := audit.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	entries, total, err := audit.List(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(entries) != 1 {
		t.Fatalf("got total=%d entries=%d, want 1/1", total, len(entries))
	}

	got := entries[0]
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
	if got.ToolName != entry.ToolName {
		t.Errorf("tool_name = %q", got.ToolName)
	}
	if got.InputJSON != entry.InputJSON {
		t.Errorf("input_json = %q", got.InputJSON)
	}
	if got.Transport != "http" {
		t.Errorf("transport = %q, want http", got.Transport)
	}
	if got.CorrelationID != entry.CorrelationID {
		t.Errorf("correlation_id = %q", got.CorrelationID)
	}
	if got.DurationMs != 87 {
		t.Errorf("duration_ms = %d, want 87", got.DurationMs)
	}
	if got.Success {
		t.Error("success = true, want false")
	}
	if got.ErrorMessage != entry.ErrorMessage {
		t.Errorf("error_message = %q", got.ErrorMessage)
	}
}

func TestAuditStore_list_filters_and_paginates(t *testing.T) {
	audit := testAuditStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []AuditEntry{
		{Timestamp: base, ToolName: "chat_with_model", InputJSON: "{}", Transport: "stdio", Success: true},
		{Timestamp: base.Add(1 * time.Second), ToolName: "list_models", InputJSON: "{}", Transport: "stdio", Success: true},
		{Timestamp: base.Add(2 * time.Second), ToolName: "chat_with_model", InputJSON: "{}", Transport: "stdio", Success: true},
	}
	for _, e := range rows {
		if err := audit.Insert(ctx, e); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	// Unfiltered, newest first.
	entries, total, err := audit.List(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(entries) != 3 {
		t.Fatalf("got total=%d entries=%d, want 3/3", total, len(entries))
	}
	if !entries[0].Timestamp.Equal(base.Add(2 * time.Second)) {
		t.Errorf("first entry timestamp = %v, want newest", entries[0].Timestamp)
	}

	// Filter by tool name.
	entries, total, err = audit.List(ctx, "chat_with_model", 10, 0)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("filtered got total=%d entries=%d, want 2/2", total, len(entries))
	}
	for _, e := range entries {
		if e.ToolName != "chat_with_model" {
			t.Errorf("filter leak: %q", e.ToolName)
		}
	}

	// Pagination: second page of size 1 is the middle row.
	entries, total, err = audit.List(ctx, "", 1, 1)
	if err != nil {
		t.Fatalf("List paginated: %v", err)
	}
	if total != 3 || len(entries) != 1 {
		t.Fatalf("paginated got total=%d entries=%d, want 3/1", total, len(entries))
	}
	if !entries[0].Timestamp.Equal(base.Add(1 * time.Second)) {
		t.Errorf("page 2 entry timestamp = %v, want middle row", entries[0].Timestamp)
	}
}

func TestInstrument_writes_audit_row(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.SetAuditStore(testAuditStore(t))

	handler := instrument(s, "list_models", s.handleListModels)
	if _, _, err := handler(context.Background(), nil, struct{}{}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	entries, total, err := s.auditStore.List(context.Background(), "", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	got := entries[0]
	if got.ToolName != "list_models" {
		t.Errorf("tool_name = %q", got.ToolName)
	}
	if got.Transport != "stdio" {
		t.Errorf("transport = %q, want default stdio", got.Transport)
	}
	if got.CorrelationID == "" {
		t.Error("correlation_id is empty")
	}
	if !got.Success {
		t.Errorf("success = false, error_message = %q", got.ErrorMessage)
	}
}

func TestInstrument_records_failure(t *testing.T) {
	s, chatSvc, _ := newTestServer(t)
	s.SetAuditStore(testAuditStore(t))
	chatSvc.chatErr = fmt.Errorf("rate limited after 4 attempts")

	handler := instrument(s, "chat_with_model", s.handleChatWithModel)
	if _, _, err := handler(context.Background(), nil, chatWithModelInput{Model: "m", Message: "x"}); err != nil {
		t.Fatalf("handler: %v", err)
	}

	entries, _, err := s.auditStore.List(context.Background(), "chat_with_model", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Success {
		t.Error("success = true, want false for IsError result")
	}
	if !strings.Contains(entries[0].ErrorMessage, "chat failed") {
		t.Errorf("error_message = %q, want the handler's error text", entries[0].ErrorMessage)
	}
	if !strings.Contains(entries[0].InputJSON, `"model":"m"`) {
		t.Errorf("input_json = %q, want the serialized input", entries[0].InputJSON)
	}
}

func TestHandleAuditList(t *testing.T) {
	s, _, _ := newTestServer(t)
	audit := testAuditStore(t)
	s.SetAuditStore(audit)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := audit.Insert(context.Background(), AuditEntry{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			ToolName:  "list_models",
			InputJSON: "{}",
			Transport: "http",
			Success:   true,
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?limit=2", nil)
	rr := httptest.NewRecorder()
	s.HandleAuditList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Entries []AuditEntry `json:"entries"`
		Total   int          `json:"total"`
		Limit   int          `json:"limit"`
		Offset  int          `json:"offset"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
	if len(resp.Entries) != 2 {
		t.Errorf("entries = %d, want limit-bounded 2", len(resp.Entries))
	}
	if resp.Limit != 2 || resp.Offset != 0 {
		t.Errorf("limit/offset = %d/%d, want 2/0", resp.Limit, resp.Offset)
	}
}

func TestHandleAuditList_no_store(t *testing.T) {
	s := New(Config{}, nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	rr := httptest.NewRecorder()
	s.HandleAuditList(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}
