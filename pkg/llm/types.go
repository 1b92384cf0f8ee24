package llm

// Message represents a single turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`    // One of RoleSystem, RoleUser, RoleAssistant.
	Content string `json:"content"`
}

// Role constants for the Message.Role field.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Response contains a model's generated text and metadata.
//
// Content and Reasoning are nil when the model returned no such field.
// A nil Content is distinct from an empty string: some models answer with
// tool calls or refusals that carry no text at all, and callers render a
// placeholder in that case instead of an empty block.
type Response struct {
	Content   *string `json:"content"`             // Generated text, nil if absent.
	Reasoning *string `json:"reasoning,omitempty"` // Side-channel deliberation text, nil if absent.
	Model     string  `json:"model"`               // Model that produced this response.
	Usage     Usage   `json:"usage"`               // Token consumption stats.
	Done      bool    `json:"done"`                // True if generation completed (false if truncated).
}

// Text returns the generated content, or the empty string when absent.
func (r *Response) Text() string {
	if r == nil || r.Content == nil {
		return ""
	}
	return *r.Content
}

// Usage tracks token consumption for a single call. Values are passed
// through from the gateway unverified.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
