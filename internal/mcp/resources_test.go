package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HerbHall/modelrelay/internal/openrouter"
	"github.com/HerbHall/modelrelay/pkg/llm"
)

func readRequest(uri string) *sdkmcp.ReadResourceRequest {
	return &sdkmcp.ReadResourceRequest{
		Params: &sdkmcp.ReadResourceParams{URI: uri},
	}
}

func resourceJSON(t *testing.T, result *sdkmcp.ReadResourceResult) string {
	t.Helper()
	if result == nil || len(result.Contents) != 1 {
		t.Fatalf("expected exactly one content block, got %+v", result)
	}
	content := result.Contents[0]
	if content.MIMEType != "application/json" {
		t.Errorf("mime type = %q, want application/json", content.MIMEType)
	}
	return content.Text
}

func TestModelsResource(t *testing.T) {
	s, _, _ := newTestServer(t)

	result, err := s.handleModelsResource(context.Background(), readRequest(resourceModelsURI))
	if err != nil {
		t.Fatalf("read models: %v", err)
	}

	var models []openrouter.Model
	if err := json.Unmarshal([]byte(resourceJSON(t, result)), &models); err != nil {
		t.Fatalf("unmarshal models: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("models = %d, want 2", len(models))
	}
	if result.Contents[0].URI != resourceModelsURI {
		t.Errorf("content URI = %q, want %q", result.Contents[0].URI, resourceModelsURI)
	}
}

func TestPricingResource(t *testing.T) {
	s, _, _ := newTestServer(t)

	result, err := s.handlePricingResource(context.Background(), readRequest(resourcePricingURI))
	if err != nil {
		t.Fatalf("read pricing: %v", err)
	}

	var pricing map[string]openrouter.Pricing
	if err := json.Unmarshal([]byte(resourceJSON(t, result)), &pricing); err != nil {
		t.Fatalf("unmarshal pricing: %v", err)
	}
	p, ok := pricing["openai/gpt-4o"]
	if !ok {
		t.Fatal("pricing map missing openai/gpt-4o")
	}
	if p.Prompt != "0.0000025" {
		t.Errorf("prompt price = %q, want %q", p.Prompt, "0.0000025")
	}
}

func TestUsageResource(t *testing.T) {
	s, _, _ := newTestServer(t)

	result, err := s.handleUsageResource(context.Background(), readRequest(resourceUsageURI))
	if err != nil {
		t.Fatalf("read usage: %v", err)
	}

	text := resourceJSON(t, result)
	if !strings.Contains(text, "per-response") {
		t.Errorf("usage document %q missing tracking mode", text)
	}
}

func TestModelsResource_gateway_failure(t *testing.T) {
	s, _, cat := newTestServer(t)
	cat.err = llm.NewProviderError(llm.ErrCodeServerError, "gateway exploded", nil)

	_, err := s.handleModelsResource(context.Background(), readRequest(resourceModelsURI))
	if err == nil {
		t.Fatal("expected error when the catalog fails")
	}
	if !strings.Contains(err.Error(), "read models resource") {
		t.Errorf("error %q is not wrapped with the resource name", err)
	}

	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		t.Errorf("underlying provider error lost through wrapping: %v", err)
	}
}
