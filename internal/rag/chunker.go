package rag

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// ChunkerConfig holds chunking configuration
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`    // Tokens per chunk (default: 256)
	ChunkOverlap int `yaml:"chunk_overlap"` // Token overlap between chunks (default: 32)
}

// Chunk represents a text chunk with metadata
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// Chunker splits document text into chunks
type Chunker interface {
	// ChunkText splits text into chunks
	ChunkText(text string, metadata map[string]string) ([]Chunk, error)

	// CountTokens returns token count for text
	CountTokens(text string) (int, error)
}

// paragraphChunker accumulates whole paragraphs up to a token budget
type paragraphChunker struct {
	config   ChunkerConfig
	encoding *tiktoken.Tiktoken
}

// NewChunker creates a new chunker
func NewChunker(config ChunkerConfig) (Chunker, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 256
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 32
	}

	// cl100k_base covers the embedding models we target
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}

	return &paragraphChunker{
		config:   config,
		encoding: encoding,
	}, nil
}

// ChunkText splits text into chunks along paragraph boundaries. A paragraph
// larger than the chunk budget is split on its own.
func (c *paragraphChunker) ChunkText(text string, metadata map[string]string) ([]Chunk, error) {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	paragraphs := strings.Split(text, "\n\n")

	var chunks []Chunk
	var current strings.Builder
	var currentTokens int
	var lastParagraph string

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Text:     strings.TrimSpace(current.String()),
			Metadata: cloneMetadata(metadata),
		})
		current.Reset()
		currentTokens = 0
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		paraTokens, err := c.CountTokens(para)
		if err != nil {
			return nil, err
		}

		// Oversized paragraph: flush what we have and split it by tokens
		if paraTokens > c.config.ChunkSize {
			flush()
			chunks = append(chunks, c.splitLongParagraph(para, metadata)...)
			lastParagraph = ""
			continue
		}

		if currentTokens+paraTokens > c.config.ChunkSize && current.Len() > 0 {
			flush()

			// Seed the next chunk with the previous paragraph for continuity
			if c.config.ChunkOverlap > 0 && lastParagraph != "" {
				overlapTokens, err := c.CountTokens(lastParagraph)
				if err != nil {
					return nil, err
				}
				if overlapTokens <= c.config.ChunkOverlap {
					current.WriteString(lastParagraph)
					current.WriteString("\n\n")
					currentTokens = overlapTokens
				}
			}
		}

		current.WriteString(para)
		current.WriteString("\n\n")
		currentTokens += paraTokens
		lastParagraph = para
	}

	flush()

	return chunks, nil
}

// splitLongParagraph splits a paragraph that exceeds the token budget into
// token-sized slices.
func (c *paragraphChunker) splitLongParagraph(para string, metadata map[string]string) []Chunk {
	tokens := c.encoding.Encode(para, nil, nil)

	var chunks []Chunk
	for start := 0; start < len(tokens); start += c.config.ChunkSize {
		end := start + c.config.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, Chunk{
			Text:     c.encoding.Decode(tokens[start:end]),
			Metadata: cloneMetadata(metadata),
		})
	}

	return chunks
}

// CountTokens returns token count for text
func (c *paragraphChunker) CountTokens(text string) (int, error) {
	return len(c.encoding.Encode(text, nil, nil)), nil
}

func cloneMetadata(src map[string]string) map[string]string {
	if len(src) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}
