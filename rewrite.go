package docparse

import (
	"context"
	"strings"

	"github.com/hmatsuda/docparse/llm"
)

// rewritePage sends one page's raw text through the chat model to fix
// extraction artifacts and strip headers/footers. Returns the rewritten
// body plus the incurred cost: exact token usage when the provider reports
// it, the word-count estimate otherwise.
//
// A failed invocation surfaces as a RewriteError carrying the page number;
// the caller applies the configured abort/keep-original policy.
func (e *engine) rewritePage(ctx context.Context, pageNum int, text string) (string, Cost, error) {
	// Blank pages carry nothing worth a model round-trip.
	if strings.TrimSpace(text) == "" {
		return text, ZeroCost(), nil
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	resp, err := e.chatLLM.Chat(callCtx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: e.prompts.rewriteSystem},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", ZeroCost(), &RewriteError{Page: pageNum, Err: err}
	}

	cost := Cost{InputTokens: resp.PromptTokens, OutputTokens: resp.CompletionTokens}
	if cost.InputTokens == 0 && cost.OutputTokens == 0 {
		cost = Cost{
			InputTokens:  EstimateTokens(text),
			OutputTokens: EstimateTokens(resp.Content),
		}
	}
	return resp.Content, cost, nil
}
