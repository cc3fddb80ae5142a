package pipeline

import (
	"context"

	"github.com/siherrmann/pagerag/model"
)

// ChunkFunc groups consecutive pages into chunks labelled with unitName.
type ChunkFunc func(pages []string, pagesPerChunk int, unitName string) ([]PageChunk, error)

// EmbedFunc is a function that generates embeddings for text.
// Errors matching model.ErrSizeLimitExceeded mark oversized input.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// PageChunk is chunk text with its page range, before embedding.
type PageChunk struct {
	Content     string
	StartUnit   int
	EndUnit     int
	ChunkNumber int
	UnitName    string
	SplitPart   *string
}

// Pages formats the covered page range as "start-end".
func (c PageChunk) Pages() string {
	return model.PageRange(c.StartUnit, c.EndUnit)
}

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}
