package chat

import (
	"fmt"
	"strings"

	"github.com/HerbHall/modelrelay/pkg/llm"
)

// reasoningPreviewLimit caps reasoning text inside comparison blocks.
// Full reasoning is available through the single-model tool.
const reasoningPreviewLimit = 200

// noContentMarker renders in place of an absent completion. Absent is not
// the same as empty: some models answer with refusals or tool calls that
// carry no text.
const noContentMarker = "(no content returned)"

// renderChatReport formats a single-model completion: model identifier,
// reasoning block when present, response text, and the usage counters.
func renderChatReport(resp *llm.Response) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Model: %s\n\n", resp.Model)

	if resp.Reasoning != nil {
		fmt.Fprintf(&b, "[Reasoning]\n%s\n\n", *resp.Reasoning)
		b.WriteString("[Response]\n")
	}
	if resp.Content != nil {
		b.WriteString(*resp.Content)
	} else {
		b.WriteString(noContentMarker)
	}

	fmt.Fprintf(&b, "\n\n---\nPrompt tokens: %d\nCompletion tokens: %d\nTotal tokens: %d\n",
		resp.Usage.PromptTokens,
		resp.Usage.CompletionTokens,
		resp.Usage.TotalTokens,
	)

	return b.String()
}

// renderComparison formats per-model blocks in request order, joined by a
// visible separator and prefixed with the number of models compared.
func renderComparison(results []modelResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Comparing %d models:\n\n", len(results))

	blocks := make([]string, len(results))
	for i, res := range results {
		blocks[i] = renderComparisonBlock(res)
	}
	b.WriteString(strings.Join(blocks, "\n---\n\n"))

	return b.String()
}

func renderComparisonBlock(res modelResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", res.model)

	if res.err != nil {
		fmt.Fprintf(&b, "Error: %v\n", res.err)
		return b.String()
	}

	if res.resp.Reasoning != nil {
		fmt.Fprintf(&b, "[Reasoning]\n%s\n\n", truncate(*res.resp.Reasoning, reasoningPreviewLimit))
	}
	if res.resp.Content != nil {
		b.WriteString(*res.resp.Content)
	} else {
		b.WriteString(noContentMarker)
	}
	fmt.Fprintf(&b, "\n\nTotal tokens: %d\n", res.resp.Usage.TotalTokens)

	return b.String()
}

// truncate shortens s to limit runes, marking the cut with an ellipsis.
// Strings at or under the limit come back unmodified.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
