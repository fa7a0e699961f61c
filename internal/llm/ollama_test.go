package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaProvider_ExtractClaims_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("Expected path /api/chat, got %s", r.URL.Path)
		}

		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Stream {
			t.Error("Expected non-streaming request")
		}
		if req.Model != "llama3.1" {
			t.Errorf("Expected model llama3.1, got %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("Expected system and user messages, got %+v", req.Messages)
		}
		if !strings.Contains(string(req.Format), `"array"`) {
			t.Errorf("Expected array schema, got %s", req.Format)
		}
		if req.Options["num_predict"] != float64(256) {
			t.Errorf("Expected num_predict 256, got %v", req.Options["num_predict"])
		}

		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model: "llama3.1",
			Message: ollamaMessage{
				Role:    "assistant",
				Content: `["Water boils at 100 degrees Celsius at sea level.", "NAME1 lives in Paris."]`,
			},
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       20,
		})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5, MaxTokens: 256})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.ExtractClaims(context.Background(), ClaimsRequest{Text: "Water boils at 100 degrees Celsius at sea level."})
	if err != nil {
		t.Fatalf("ExtractClaims failed: %v", err)
	}

	// Placeholder filtering happens in Extractor, not the provider
	if len(resp.Claims) != 2 {
		t.Errorf("Unexpected claims: %v", resp.Claims)
	}
	if resp.TokensUsed != 30 {
		t.Errorf("Unexpected token usage: %d", resp.TokensUsed)
	}
}

func TestOllamaProvider_ExtractClaims_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "model not loaded"}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})

	_, err := provider.ExtractClaims(context.Background(), ClaimsRequest{Text: "text"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("Expected API error message, got %v", err)
	}
}

func TestOllamaProvider_ExtractClaims_NotAnArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"I cannot help"},"done":true}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "m", Timeout: 5})
	if _, err := provider.ExtractClaims(context.Background(), ClaimsRequest{Text: "text"}); err == nil {
		t.Fatal("Expected error for a non-array reply")
	}
}

func TestOllamaProvider_ExtractClaims_NoModel(t *testing.T) {
	provider, _ := NewOllamaProvider(Config{BaseURL: "http://127.0.0.1:1"})

	if _, err := provider.ExtractClaims(context.Background(), ClaimsRequest{Text: "text"}); err == nil {
		t.Fatal("Expected error when no model is configured")
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models": []}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL + "/"})
	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	down, _ := NewOllamaProvider(Config{BaseURL: "http://127.0.0.1:1"})
	if down.IsAvailable(context.Background()) {
		t.Error("Expected available to be false when nothing listens")
	}
}
