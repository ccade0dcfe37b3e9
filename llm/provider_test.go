package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{provider: "ollama"},
		{provider: "lmstudio"},
		{provider: "openrouter"},
		{provider: "openai"},
		{provider: "groq"},
		{provider: "xai"},
		{provider: "gemini"},
		{provider: "custom"},
		{provider: "", wantErr: true},
		{provider: "bedrock", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("provider_"+tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "m", BaseURL: "http://localhost:9"})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewProvider(%q): expected error", tt.provider)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", tt.provider, err)
			}
			// Every provider must also accept vision requests.
			if _, ok := p.(VisionProvider); !ok {
				t.Errorf("provider %q does not implement VisionProvider", tt.provider)
			}
		})
	}
}

func TestChatRoundtrip(t *testing.T) {
	var gotReq chatCompletionRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"choices": []map[string]any{
				{"message": map[string]string{"content": "hello back"}, "finish_reason": "stop"},
			},
			"usage": map[string]int{
				"prompt_tokens":     21,
				"completion_tokens": 7,
				"total_tokens":      28,
			},
		})
	}))
	defer srv.Close()

	p, err := NewProvider(Config{
		Provider: "custom",
		Model:    "test-model",
		BaseURL:  srv.URL,
		APIKey:   "sk-test",
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Content != "hello back" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.PromptTokens != 21 || resp.CompletionTokens != 7 {
		t.Errorf("usage = %d/%d, want 21/7", resp.PromptTokens, resp.CompletionTokens)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	// Model falls back to the configured one when the request leaves it empty.
	if gotReq.Model != "test-model" {
		t.Errorf("wire model = %q", gotReq.Model)
	}

	var msgs []Message
	if err := json.Unmarshal(gotReq.Messages, &msgs); err != nil {
		t.Fatalf("wire messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Content != "hello" {
		t.Errorf("wire messages = %+v", msgs)
	}
}

func TestChatWithImagesRoundtrip(t *testing.T) {
	var rawMessages json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		rawMessages = req.Messages
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "a diagram"}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: "custom", Model: "llava", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	vp := p.(VisionProvider)

	resp, err := vp.ChatWithImages(context.Background(), VisionChatRequest{
		Messages: []VisionMessage{
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: "describe"},
					{Type: "image_url", ImageURL: &ImageURL{URL: "data:image/jpeg;base64,AAAA"}},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("ChatWithImages: %v", err)
	}
	if resp.Content != "a diagram" {
		t.Errorf("Content = %q", resp.Content)
	}
	// Usage missing from the response: zero values signal the caller to estimate.
	if resp.PromptTokens != 0 || resp.CompletionTokens != 0 {
		t.Errorf("usage = %d/%d, want 0/0", resp.PromptTokens, resp.CompletionTokens)
	}

	var msgs []VisionMessage
	if err := json.Unmarshal(rawMessages, &msgs); err != nil {
		t.Fatalf("wire messages: %v", err)
	}
	if len(msgs) != 1 || len(msgs[0].Content) != 2 {
		t.Fatalf("wire messages = %+v", msgs)
	}
	if msgs[0].Content[1].Type != "image_url" ||
		msgs[0].Content[1].ImageURL.URL != "data:image/jpeg;base64,AAAA" {
		t.Errorf("image part not preserved: %+v", msgs[0].Content[1])
	}
}

func TestChatNonRetryableError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: "custom", Model: "m", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
	})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should carry the status code: %v", err)
	}
	if calls != 1 {
		t.Errorf("400 must not be retried, got %d calls", calls)
	}
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p, err := NewProvider(Config{Provider: "custom", Model: "m", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "x"}},
	}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
