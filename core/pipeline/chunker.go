package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/pagerag/model"
)

// DefaultUnitName labels the pages of every supported format.
const DefaultUnitName = "page"

// DefaultChunker returns the page grouping chunker.
func DefaultChunker() ChunkFunc {
	return ChunkPages
}

// ChunkPages joins every pagesPerChunk consecutive pages with a blank line.
// Page ranges are 1-based and inclusive; the last chunk may be shorter.
func ChunkPages(pages []string, pagesPerChunk int, unitName string) ([]PageChunk, error) {
	if pagesPerChunk < model.MinPagesPerChunk || pagesPerChunk > model.MaxPagesPerChunk {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidPagesPerChunk, pagesPerChunk)
	}

	chunks := make([]PageChunk, 0, (len(pages)+pagesPerChunk-1)/pagesPerChunk)
	for start := 0; start < len(pages); start += pagesPerChunk {
		end := min(start+pagesPerChunk, len(pages))
		chunks = append(chunks, PageChunk{
			Content:     strings.Join(pages[start:end], "\n\n"),
			StartUnit:   start + 1,
			EndUnit:     end,
			ChunkNumber: len(chunks) + 1,
			UnitName:    unitName,
		})
	}
	return chunks, nil
}
