package openrouter

import (
	"bytes"
	"encoding/json"
	"strings"
)

// providerMessage is the raw assistant message inside a completion choice.
// Content is polymorphic across the model ecosystem: a plain JSON string,
// null, or an ordered array of typed parts. Reasoning models additionally
// attach deliberation text under "reasoning" (or "reasoning_content" for a
// few vendors).
type providerMessage struct {
	Role             string          `json:"role"`
	Content          json.RawMessage `json:"content"`
	Reasoning        *string         `json:"reasoning"`
	ReasoningContent *string         `json:"reasoning_content"`
}

// contentPart is one element of an array-shaped message content.
// Only text-kind parts contribute to the normalized text.
type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reply is the normalized {content, reasoning} pair extracted from a
// provider message. Nil fields mean the message carried no such text; a nil
// Content is distinct from a present empty string so callers can render a
// "(no content returned)" fallback.
type Reply struct {
	Content   *string
	Reasoning *string
}

// normalizeMessage reduces a polymorphic provider message to a Reply.
//
// Content rules, in precedence order: null or missing is absent; a JSON
// string is used verbatim; an array of parts concatenates the payloads of
// text-kind parts in order with no separator, and an empty concatenation is
// absent. Any other shape is absent without error: the provider ecosystem is
// heterogeneous and unversioned, so unknown shapes are tolerated rather than
// rejected. Reasoning is captured when present and non-empty.
func normalizeMessage(msg providerMessage) Reply {
	var out Reply

	reasoning := msg.Reasoning
	if reasoning == nil || *reasoning == "" {
		reasoning = msg.ReasoningContent
	}
	if reasoning != nil && *reasoning != "" {
		r := *reasoning
		out.Reasoning = &r
	}

	out.Content = normalizeContent(msg.Content)
	return out
}

func normalizeContent(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return &s
	}

	var parts []contentPart
	if err := json.Unmarshal(trimmed, &parts); err == nil {
		var b strings.Builder
		for _, part := range parts {
			if part.Type == "text" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() == 0 {
			return nil
		}
		joined := b.String()
		return &joined
	}

	return nil
}
