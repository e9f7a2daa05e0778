package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaClientComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Fatalf("expected stream=false for Complete")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model: "llama3.1",
			Message: ollamaMessage{
				Role:    "assistant",
				Content: "hello world",
			},
			Done: true,
		})
	}))
	defer server.Close()

	client, err := NewOllamaClient(Config{Model: "llama3.1", BaseURL: server.URL + "/api"})
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}

	answer, err := client.Complete(context.Background(), Request{
		System: "You are a helpful assistant. Keep answers concise.",
		User:   "hi",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if answer != "hello world" {
		t.Fatalf("unexpected answer: %s", answer)
	}
}

func TestOllamaClientCompleteError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	client, err := NewOllamaClient(Config{BaseURL: server.URL + "/api"})
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}

	_, err = client.Complete(context.Background(), Request{User: "hi"})
	if err == nil {
		t.Fatalf("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("expected server message in error, got %v", err)
	}
}

func TestOllamaClientCompleteAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaResponse{Error: "context length exceeded"})
	}))
	defer server.Close()

	client, err := NewOllamaClient(Config{BaseURL: server.URL + "/api"})
	if err != nil {
		t.Fatalf("NewOllamaClient: %v", err)
	}

	_, err = client.Complete(context.Background(), Request{User: "hi"})
	if err == nil || !strings.Contains(err.Error(), "context length exceeded") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{Provider: "bard"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
