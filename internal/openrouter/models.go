package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
)

// Model is one catalog entry from the gateway. Pricing values are decimal
// strings in USD per token, exactly as the gateway sends them; they are
// passed through, never computed on.
type Model struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	ContextLength int          `json:"context_length"`
	Pricing       Pricing      `json:"pricing"`
	TopProvider   *TopProvider `json:"top_provider,omitempty"`
}

// Pricing holds per-token prices as decimal strings.
type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// TopProvider describes the gateway's preferred upstream for a model.
type TopProvider struct {
	ContextLength       int `json:"context_length,omitempty"`
	MaxCompletionTokens int `json:"max_completion_tokens,omitempty"`
}

type modelsResponse struct {
	Data []Model `json:"data"`
}

// ListModels returns the full model catalog. The endpoint is public, so this
// works without an API key.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	respBody, err := c.doGet(ctx, "/models", "models")
	if err != nil {
		return nil, mapError(err)
	}
	defer respBody.Close()

	var resp modelsResponse
	if err := json.NewDecoder(respBody).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	return resp.Data, nil
}
