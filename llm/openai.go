package llm

import "context"

// openAIProvider implements Provider for the OpenAI API.
//
// Vision-capable chat models (gpt-4o, gpt-4o-mini and later) accept
// image_url content parts on the standard chat endpoint, so the same
// client serves both text rewriting and image description.
//
// API key: set via config or the OPENAI_API_KEY env var.
type openAIProvider struct {
	base openAICompatClient
}

// NewOpenAI creates a provider for OpenAI.
func NewOpenAI(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &openAIProvider{base: newOpenAICompatClient(cfg)}
}

func (p *openAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req.Model, req.Messages, req.Temperature, req.MaxTokens)
}

func (p *openAIProvider) ChatWithImages(ctx context.Context, req VisionChatRequest) (*ChatResponse, error) {
	return p.base.chat(ctx, req.Model, req.Messages, req.Temperature, req.MaxTokens)
}
