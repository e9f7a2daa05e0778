package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	fakeStore
	added   []Document
	deleted []string
}

func (r *recordingStore) Add(_ context.Context, docs []Document) error {
	r.added = append(r.added, docs...)
	return nil
}

func (r *recordingStore) DeleteBySource(_ context.Context, source string) error {
	r.deleted = append(r.deleted, source)
	return nil
}

func TestIngestorStampsSourceAndChunkMetadata(t *testing.T) {
	chunker, err := NewChunker(ChunkerConfig{ChunkSize: 30, ChunkOverlap: 0})
	require.NoError(t, err)

	store := &recordingStore{}
	ingestor := NewIngestor(chunker, store)

	text := "How to request VPN access.\n\nOpen the access portal and submit a request.\n\nInstall the client once approved.\n\nSign in with corporate credentials."

	stats, err := ingestor.Ingest(context.Background(), "it-handbook", text)
	require.NoError(t, err)
	require.Equal(t, "it-handbook", stats.Source)
	require.Equal(t, len(store.added), stats.ChunksStored)
	require.NotEmpty(t, store.added)

	require.Equal(t, []string{"it-handbook"}, store.deleted, "re-ingestion must replace prior chunks")

	seen := map[string]bool{}
	for i, doc := range store.added {
		require.Equal(t, "it-handbook", doc.Metadata["source"])
		require.NotEmpty(t, doc.Metadata["chunk"])
		require.False(t, seen[doc.ID], "chunk ids must be unique, duplicate at %d", i)
		seen[doc.ID] = true
	}
}

func TestIngestorRejectsBlankInput(t *testing.T) {
	chunker, err := NewChunker(ChunkerConfig{})
	require.NoError(t, err)

	ingestor := NewIngestor(chunker, &recordingStore{})

	_, err = ingestor.Ingest(context.Background(), "", "text")
	require.Error(t, err)

	_, err = ingestor.Ingest(context.Background(), "source", "   ")
	require.Error(t, err)
}
