package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestEmbedderCachesResults(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/embeddings" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{0.5, 0.5}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	embedder, err := NewEmbedder(EmbedderConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}

	ctx := context.Background()
	first, err := embedder.Embed(ctx, "vpn setup")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("unexpected embedding length: %d", len(first))
	}

	if _, err := embedder.Embed(ctx, "vpn setup"); err != nil {
		t.Fatalf("embed cached: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestEmbedBatchRejectsOversizedBatch(t *testing.T) {
	embedder, err := NewEmbedder(EmbedderConfig{BaseURL: "http://localhost:0"})
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}

	texts := make([]string, 101)
	for i := range texts {
		texts[i] = "x"
	}

	if _, err := embedder.EmbedBatch(context.Background(), texts); err == nil {
		t.Fatalf("expected error for oversized batch")
	}
}
