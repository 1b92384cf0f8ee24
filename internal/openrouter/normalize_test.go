package openrouter

import (
	"encoding/json"
	"testing"
)

func strptr(s string) *string { return &s }

func TestNormalizeMessage_content(t *testing.T) {
	tests := []struct {
		name    string
		content string // raw JSON for the content field; empty means field missing
		want    *string
	}{
		{
			name:    "null content is absent",
			content: `null`,
			want:    nil,
		},
		{
			name:    "missing content is absent",
			content: ``,
			want:    nil,
		},
		{
			name:    "plain string used verbatim",
			content: `"The answer is 42."`,
			want:    strptr("The answer is 42."),
		},
		{
			name:    "empty string stays present",
			content: `""`,
			want:    strptr(""),
		},
		{
			name:    "text parts concatenated in order",
			content: `[{"type":"text","text":"A"},{"type":"image_url","url":"x"},{"type":"text","text":"B"}]`,
			want:    strptr("AB"),
		},
		{
			name:    "no text-kind parts is absent not empty",
			content: `[{"type":"image_url","url":"x"},{"type":"audio","id":"y"}]`,
			want:    nil,
		},
		{
			name:    "empty parts array is absent",
			content: `[]`,
			want:    nil,
		},
		{
			name:    "text parts with empty payloads are absent",
			content: `[{"type":"text","text":""},{"type":"text","text":""}]`,
			want:    nil,
		},
		{
			name:    "unrecognized object shape is absent",
			content: `{"weird":"shape"}`,
			want:    nil,
		},
		{
			name:    "unrecognized scalar shape is absent",
			content: `17`,
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := providerMessage{Role: "assistant"}
			if tt.content != "" {
				msg.Content = json.RawMessage(tt.content)
			}

			got := normalizeMessage(msg)

			switch {
			case tt.want == nil && got.Content != nil:
				t.Errorf("content = %q, want absent", *got.Content)
			case tt.want != nil && got.Content == nil:
				t.Errorf("content absent, want %q", *tt.want)
			case tt.want != nil && got.Content != nil && *got.Content != *tt.want:
				t.Errorf("content = %q, want %q", *got.Content, *tt.want)
			}
		})
	}
}

func TestNormalizeMessage_reasoning(t *testing.T) {
	tests := []struct {
		name string
		msg  providerMessage
		want *string
	}{
		{
			name: "reasoning captured when present",
			msg:  providerMessage{Reasoning: strptr("thinking hard")},
			want: strptr("thinking hard"),
		},
		{
			name: "empty reasoning is absent",
			msg:  providerMessage{Reasoning: strptr("")},
			want: nil,
		},
		{
			name: "missing reasoning is absent",
			msg:  providerMessage{},
			want: nil,
		},
		{
			name: "reasoning_content fallback",
			msg:  providerMessage{ReasoningContent: strptr("vendor spelling")},
			want: strptr("vendor spelling"),
		},
		{
			name: "reasoning wins over reasoning_content",
			msg:  providerMessage{Reasoning: strptr("primary"), ReasoningContent: strptr("secondary")},
			want: strptr("primary"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeMessage(tt.msg)

			switch {
			case tt.want == nil && got.Reasoning != nil:
				t.Errorf("reasoning = %q, want absent", *got.Reasoning)
			case tt.want != nil && got.Reasoning == nil:
				t.Errorf("reasoning absent, want %q", *tt.want)
			case tt.want != nil && got.Reasoning != nil && *got.Reasoning != *tt.want:
				t.Errorf("reasoning = %q, want %q", *got.Reasoning, *tt.want)
			}
		})
	}
}

func TestNormalizeMessage_content_and_reasoning_independent(t *testing.T) {
	msg := providerMessage{
		Content:   json.RawMessage(`null`),
		Reasoning: strptr("deliberation without an answer"),
	}

	got := normalizeMessage(msg)

	if got.Content != nil {
		t.Errorf("content = %q, want absent", *got.Content)
	}
	if got.Reasoning == nil || *got.Reasoning != "deliberation without an answer" {
		t.Errorf("reasoning = %v, want captured", got.Reasoning)
	}
}
