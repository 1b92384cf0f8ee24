package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs published by the server.
const (
	resourceModelsURI  = "openrouter://models"
	resourcePricingURI = "openrouter://pricing"
	resourceUsageURI   = "openrouter://usage"
)

// registerResources adds the catalog and pricing resources to the server.
// Unlike tools, resource failures surface as protocol errors.
func (s *Server) registerResources() {
	s.server.AddResource(&sdkmcp.Resource{
		URI:         resourceModelsURI,
		Name:        "models",
		Description: "The full model catalog as reported by the gateway, fetched fresh on every read.",
		MIMEType:    "application/json",
	}, s.handleModelsResource)

	s.server.AddResource(&sdkmcp.Resource{
		URI:         resourcePricingURI,
		Name:        "pricing",
		Description: "Per-model prompt and completion pricing, keyed by model identifier.",
		MIMEType:    "application/json",
	}, s.handlePricingResource)

	s.server.AddResource(&sdkmcp.Resource{
		URI:         resourceUsageURI,
		Name:        "usage",
		Description: "Where to find token usage accounting.",
		MIMEType:    "application/json",
	}, s.handleUsageResource)
}

func (s *Server) handleModelsResource(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	if s.catalog == nil {
		return nil, errors.New("model catalog not available")
	}

	models, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("read models resource: %w", err)
	}

	return jsonResource(req.Params.URI, models), nil
}

func (s *Server) handlePricingResource(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	if s.catalog == nil {
		return nil, errors.New("model catalog not available")
	}

	pricing, err := s.catalog.Pricing(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pricing resource: %w", err)
	}

	return jsonResource(req.Params.URI, pricing), nil
}

// handleUsageResource serves a static pointer document. Usage counters travel
// inline with each chat response; nothing is persisted across calls.
func (s *Server) handleUsageResource(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	doc := map[string]any{
		"tracking": "per-response",
		"note":     "Token usage is reported inline with each chat_with_model and compare_models result. ModelRelay does not persist usage totals.",
	}
	return jsonResource(req.Params.URI, doc), nil
}

// jsonResource builds a single-content JSON resource result.
func jsonResource(uri string, v any) *sdkmcp.ReadResourceResult {
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     writeToolJSON(v),
			},
		},
	}
}
