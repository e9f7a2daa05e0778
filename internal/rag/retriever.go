package rag

import (
	"context"
	"fmt"
)

// RetrieverConfig holds retrieval configuration
type RetrieverConfig struct {
	TopK          int     `yaml:"top_k"`          // Number of results to return (default: 5)
	MinSimilarity float32 `yaml:"min_similarity"` // Minimum similarity threshold (0.0-1.0, default: 0 = keep all)
}

// Passage is one retrieved document chunk with its metadata. The "source"
// metadata key identifies where the chunk was ingested from.
type Passage struct {
	Text       string
	Metadata   map[string]string
	Similarity float32
}

// Source returns the passage's source metadata, defaulting to "unknown"
// when the key is absent.
func (p Passage) Source() string {
	if src, ok := p.Metadata["source"]; ok {
		return src
	}
	return "unknown"
}

// Retriever searches ingested documents
type Retriever struct {
	config RetrieverConfig
	store  VectorStore
}

// NewRetriever creates a new retriever
func NewRetriever(config RetrieverConfig, store VectorStore) *Retriever {
	if config.TopK == 0 {
		config.TopK = 5
	}

	return &Retriever{
		config: config,
		store:  store,
	}
}

// Search returns up to topK passages ranked by similarity to the query.
// A topK of zero falls back to the configured default.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]Passage, error) {
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if topK <= 0 {
		topK = r.config.TopK
	}

	searchResults, err := r.store.SearchByText(ctx, query, topK, r.config.MinSimilarity)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}

	passages := make([]Passage, 0, len(searchResults))
	for _, sr := range searchResults {
		passages = append(passages, Passage{
			Text:       sr.Document.Content,
			Metadata:   sr.Document.Metadata,
			Similarity: sr.Similarity,
		})
	}

	return passages, nil
}
