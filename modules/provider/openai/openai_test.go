package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tablemind/recall/internal/provider"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	}
}

func TestProvider_Complete(t *testing.T) {
	t.Parallel()

	var gotReq oaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(oaiResponse{
			Choices: []oaiChoice{{
				Message:      oaiMessage{Role: "assistant", Content: `{"facts":[]}`},
				FinishReason: "stop",
			}},
			Usage: oaiUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		})
	}))
	defer server.Close()

	p, err := New(testConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	temp := 0.0
	resp, err := p.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			{Role: provider.MessageRoleSystem, Content: "extract facts"},
			{Role: provider.MessageRoleUser, Content: "transcript here"},
		},
		ResponseSchema: json.RawMessage(`{"type":"object"}`),
		Temperature:    &temp,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Content != `{"facts":[]}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.FinishReason != provider.FinishReasonStop {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
	}

	if gotReq.Model != "test-model" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_schema" {
		t.Errorf("ResponseFormat = %+v, want json_schema", gotReq.ResponseFormat)
	}
	if gotReq.ResponseFormat.JSONSchema == nil || !gotReq.ResponseFormat.JSONSchema.Strict {
		t.Error("schema not marked strict")
	}
	if gotReq.Temperature == nil || *gotReq.Temperature != 0.0 {
		t.Errorf("Temperature = %v, want 0.0", gotReq.Temperature)
	}
}

func TestProvider_Complete_NoSchemaOmitsResponseFormat(t *testing.T) {
	t.Parallel()

	var gotReq oaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(oaiResponse{
			Choices: []oaiChoice{{Message: oaiMessage{Content: "hi"}, FinishReason: "stop"}},
		})
	}))
	defer server.Close()

	p, err := New(testConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotReq.ResponseFormat != nil {
		t.Errorf("ResponseFormat = %+v, want nil", gotReq.ResponseFormat)
	}
}

func TestProvider_Complete_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limit", http.StatusTooManyRequests, "slow down", provider.ErrRateLimit},
		{"server error", http.StatusInternalServerError, "boom", provider.ErrProviderDown},
		{"context length", http.StatusBadRequest, `{"error":{"code":"context_length_exceeded"}}`, provider.ErrContextLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p, err := New(testConfig(server.URL), nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = p.Complete(context.Background(), provider.CompletionRequest{
				Messages: []provider.LLMMessage{{Role: provider.MessageRoleUser, Content: "hi"}},
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p, err := New(testConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "https://api.example.com/v1", Model: "m"}, false},
		{"missing base_url", Config{Model: "m"}, true},
		{"bad scheme", Config{BaseURL: "ftp://x", Model: "m"}, true},
		{"missing model", Config{BaseURL: "https://x"}, true},
		{"negative max_tokens", Config{BaseURL: "https://x", Model: "m", MaxTokens: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg
			cfg.defaults()
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMapFinishReason(t *testing.T) {
	t.Parallel()

	if got := mapFinishReason("length"); got != provider.FinishReasonLength {
		t.Errorf("mapFinishReason(length) = %q", got)
	}
	if got := mapFinishReason("weird"); got != provider.FinishReason("weird") {
		t.Errorf("unknown reason not passed through: %q", got)
	}
}
