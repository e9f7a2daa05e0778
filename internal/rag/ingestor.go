package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidIngest marks ingestion failures caused by caller input rather
// than the store or chunker.
var ErrInvalidIngest = errors.New("invalid ingest input")

// Ingestor chunks document text and stores it for retrieval.
type Ingestor struct {
	chunker Chunker
	store   VectorStore
}

// IngestStats reports the outcome of one ingestion.
type IngestStats struct {
	Source       string `json:"source"`
	ChunksStored int    `json:"chunksStored"`
}

// NewIngestor creates a new ingestor
func NewIngestor(chunker Chunker, store VectorStore) *Ingestor {
	return &Ingestor{
		chunker: chunker,
		store:   store,
	}
}

// Ingest chunks the text, stamps each chunk with its source and position,
// and stores it. Re-ingesting a source replaces its previous chunks.
func (i *Ingestor) Ingest(ctx context.Context, source, text string) (IngestStats, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return IngestStats{}, fmt.Errorf("%w: source is required", ErrInvalidIngest)
	}
	if strings.TrimSpace(text) == "" {
		return IngestStats{}, fmt.Errorf("%w: text is required", ErrInvalidIngest)
	}

	chunks, err := i.chunker.ChunkText(text, map[string]string{"source": source})
	if err != nil {
		return IngestStats{}, fmt.Errorf("chunk text: %w", err)
	}

	if err := i.store.DeleteBySource(ctx, source); err != nil {
		return IngestStats{}, fmt.Errorf("replace source %s: %w", source, err)
	}

	docs := make([]Document, 0, len(chunks))
	for idx, chunk := range chunks {
		metadata := chunk.Metadata
		metadata["chunk"] = strconv.Itoa(idx)

		docs = append(docs, Document{
			ID:       chunkID(source, idx),
			Content:  chunk.Text,
			Metadata: metadata,
		})
	}

	if err := i.store.Add(ctx, docs); err != nil {
		return IngestStats{}, fmt.Errorf("store chunks: %w", err)
	}

	return IngestStats{
		Source:       source,
		ChunksStored: len(docs),
	}, nil
}

func chunkID(source string, idx int) string {
	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("%s-%d", hex.EncodeToString(sum[:8]), idx)
}
