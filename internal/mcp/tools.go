package mcp

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HerbHall/modelrelay/internal/catalog"
	"github.com/HerbHall/modelrelay/internal/chat"
	"github.com/HerbHall/modelrelay/internal/openrouter"
)

// Tool input types. The SDK derives a JSON schema from the tags and rejects
// malformed arguments before the handler runs.

type chatWithModelInput struct {
	Model        string   `json:"model" jsonschema:"Model identifier to chat with, e.g. openai/gpt-4o or openrouter/auto"`
	Message      string   `json:"message" jsonschema:"The user message to send"`
	SystemPrompt string   `json:"system_prompt,omitempty" jsonschema:"Optional system prompt prepended to the conversation"`
	MaxTokens    int      `json:"max_tokens,omitempty" jsonschema:"Maximum tokens to generate (default 1000)"`
	Temperature  *float64 `json:"temperature,omitempty" jsonschema:"Sampling temperature (default 0.7)"`
}

type compareModelsInput struct {
	Models    []string `json:"models" jsonschema:"Model identifiers to compare, in the order responses should be rendered"`
	Message   string   `json:"message" jsonschema:"The prompt sent identically to every model"`
	MaxTokens int      `json:"max_tokens,omitempty" jsonschema:"Maximum tokens per model (default 500)"`
}

type getModelInfoInput struct {
	Model string `json:"model" jsonschema:"The model identifier to look up"`
}

// modelSummary is the compact catalog row returned by list_models.
type modelSummary struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	ContextLength int                `json:"context_length"`
	Pricing       openrouter.Pricing `json:"pricing"`
}

// registerTools adds all MCP tools to the server.
func (s *Server) registerTools() {
	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "list_models",
		Description: "List all models available through the gateway, with identifier, display name, context window size, and per-token pricing.",
	}, instrument(s, "list_models", s.handleListModels))

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "chat_with_model",
		Description: "Send a message to a single model and get its response, including any reasoning the model exposes and token usage counts.",
	}, instrument(s, "chat_with_model", s.handleChatWithModel))

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "compare_models",
		Description: "Send the same prompt to multiple models concurrently and get their responses side by side. A model that fails is reported inline without affecting the others.",
	}, instrument(s, "compare_models", s.handleCompareModels))

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "get_model_info",
		Description: "Get the full catalog entry for a single model: description, context window, pricing, and provider limits.",
	}, instrument(s, "get_model_info", s.handleGetModelInfo))
}

func (s *Server) handleListModels(ctx context.Context, _ *sdkmcp.CallToolRequest, _ struct{}) (*sdkmcp.CallToolResult, any, error) {
	if s.catalog == nil {
		return errorResult("model catalog not available"), nil, nil
	}

	models, err := s.catalog.List(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to list models: %v", err)), nil, nil
	}

	summaries := make([]modelSummary, 0, len(models))
	for i := range models {
		summaries = append(summaries, modelSummary{
			ID:            models[i].ID,
			Name:          models[i].Name,
			ContextLength: models[i].ContextLength,
			Pricing:       models[i].Pricing,
		})
	}

	resp := struct {
		Models []modelSummary `json:"models"`
		Count  int            `json:"count"`
	}{
		Models: summaries,
		Count:  len(summaries),
	}

	return textResult(writeToolJSON(resp)), nil, nil
}

func (s *Server) handleChatWithModel(ctx context.Context, _ *sdkmcp.CallToolRequest, input chatWithModelInput) (*sdkmcp.CallToolResult, any, error) {
	if s.chat == nil {
		return errorResult("chat service not available"), nil, nil
	}

	report, err := s.chat.Chat(ctx, chat.Request{
		Model:        input.Model,
		Message:      input.Message,
		SystemPrompt: input.SystemPrompt,
		MaxTokens:    input.MaxTokens,
		Temperature:  input.Temperature,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("chat failed: %v", err)), nil, nil
	}

	return textResult(report), nil, nil
}

func (s *Server) handleCompareModels(ctx context.Context, _ *sdkmcp.CallToolRequest, input compareModelsInput) (*sdkmcp.CallToolResult, any, error) {
	if s.chat == nil {
		return errorResult("chat service not available"), nil, nil
	}

	report, err := s.chat.Compare(ctx, chat.CompareRequest{
		Models:    input.Models,
		Message:   input.Message,
		MaxTokens: input.MaxTokens,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("comparison failed: %v", err)), nil, nil
	}

	return textResult(report), nil, nil
}

func (s *Server) handleGetModelInfo(ctx context.Context, _ *sdkmcp.CallToolRequest, input getModelInfoInput) (*sdkmcp.CallToolResult, any, error) {
	if s.catalog == nil {
		return errorResult("model catalog not available"), nil, nil
	}

	model, err := s.catalog.Get(ctx, input.Model)
	if err != nil {
		if errors.Is(err, catalog.ErrModelNotFound) {
			return errorResult(fmt.Sprintf("No model found with ID %q", input.Model)), nil, nil
		}
		return errorResult(fmt.Sprintf("failed to get model info: %v", err)), nil, nil
	}

	return textResult(writeToolJSON(model)), nil, nil
}

// textResult creates a successful CallToolResult with text content.
func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: text},
		},
	}
}

// errorResult creates an error CallToolResult with text content.
func errorResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
