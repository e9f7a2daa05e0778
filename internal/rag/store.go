package rag

import (
	"context"
	"fmt"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"
)

// StoreConfig holds vector store configuration
type StoreConfig struct {
	PersistPath string `yaml:"persist_path"` // Path to persist data; empty keeps the store in memory
	Collection  string `yaml:"collection"`   // Collection name
}

// Document represents a stored document chunk
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// SearchResult represents a similarity search hit
type SearchResult struct {
	Document   Document
	Similarity float32 // 0.0 to 1.0
}

// VectorStore manages document embeddings and similarity search
type VectorStore interface {
	// Add adds documents to the store
	Add(ctx context.Context, docs []Document) error

	// SearchByText performs similarity search by text query
	SearchByText(ctx context.Context, queryText string, topK int, minSimilarity float32) ([]SearchResult, error)

	// DeleteBySource removes all documents ingested from the given source
	DeleteBySource(ctx context.Context, source string) error

	// Count returns total document count
	Count() int

	// Close closes the store
	Close() error
}

// chromemStore implements VectorStore using chromem-go
type chromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     StoreConfig
	embedder   Embedder
}

// NewVectorStore creates a new vector store
func NewVectorStore(config StoreConfig, embedder Embedder) (VectorStore, error) {
	if config.Collection == "" {
		config.Collection = "north_docs"
	}

	var db *chromem.DB
	var err error

	if config.PersistPath != "" {
		persistFile := filepath.Join(config.PersistPath, "chromem.gob")
		db, err = chromem.NewPersistentDB(persistFile, false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	collection, err := db.GetOrCreateCollection(config.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &chromemStore{
		db:         db,
		collection: collection,
		config:     config,
		embedder:   embedder,
	}, nil
}

// Add adds documents to the store
func (s *chromemStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		err := s.collection.AddDocument(ctx, chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}
	}

	return nil
}

// SearchByText performs similarity search using a text query
func (s *chromemStore) SearchByText(ctx context.Context, queryText string, topK int, minSimilarity float32) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}

	// chromem caps the result count at the collection size
	if count := s.collection.Count(); count < topK {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := s.collection.Query(ctx, queryText, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	var searchResults []SearchResult
	for _, r := range results {
		if r.Similarity < minSimilarity {
			continue
		}

		searchResults = append(searchResults, SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: r.Metadata,
			},
			Similarity: r.Similarity,
		})
	}

	return searchResults, nil
}

// DeleteBySource removes all documents stamped with the given source
func (s *chromemStore) DeleteBySource(ctx context.Context, source string) error {
	if source == "" {
		return nil
	}
	return s.collection.Delete(ctx, map[string]string{"source": source}, nil)
}

// Count returns total document count
func (s *chromemStore) Count() int {
	return s.collection.Count()
}

// Close closes the store
func (s *chromemStore) Close() error {
	// chromem-go auto-persists on changes, no explicit close needed
	return nil
}
