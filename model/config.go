package model

import "fmt"

const (
	MinPagesPerChunk = 1
	MaxPagesPerChunk = 10
)

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	TopK int `json:"top_k"`
}

func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK: 3,
	}
}

func (c QueryConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTopK, c.TopK)
	}
	return nil
}

// IngestConfig controls chunking and adaptive embedding of one document.
type IngestConfig struct {
	PagesPerChunk   int  `json:"pages_per_chunk"`
	PrependMetadata bool `json:"prepend_metadata"`
	// MaxSplitDepth bounds how often an oversized chunk is bisected.
	MaxSplitDepth int `json:"max_split_depth"`
	// WordsPerPage sizes the synthetic pages of flowed formats.
	WordsPerPage int `json:"words_per_page"`
	// SplitWindow is the distance in characters around the midpoint
	// searched for a natural split delimiter.
	SplitWindow int `json:"split_window"`
}

func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		PagesPerChunk:   3,
		PrependMetadata: true,
		MaxSplitDepth:   3,
		WordsPerPage:    300,
		SplitWindow:     500,
	}
}

func (c IngestConfig) Validate() error {
	if c.PagesPerChunk < MinPagesPerChunk || c.PagesPerChunk > MaxPagesPerChunk {
		return fmt.Errorf("%w: got %d", ErrInvalidPagesPerChunk, c.PagesPerChunk)
	}
	if c.MaxSplitDepth < 0 {
		return fmt.Errorf("max split depth must not be negative: got %d", c.MaxSplitDepth)
	}
	if c.WordsPerPage <= 0 {
		return fmt.Errorf("words per page must be positive: got %d", c.WordsPerPage)
	}
	if c.SplitWindow < 0 {
		return fmt.Errorf("split window must not be negative: got %d", c.SplitWindow)
	}
	return nil
}
