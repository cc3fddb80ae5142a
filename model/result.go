package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SearchResult is one ranked chunk returned by a query.
type SearchResult struct {
	ChunkID    int            `json:"id"`
	Content    string         `json:"content"`
	Metadata   ResultMetadata `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

// ResultMetadata describes where a search result comes from.
type ResultMetadata struct {
	DocumentRID uuid.UUID  `json:"document_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SourceType  SourceType `json:"source_type"`
	StartUnit   int        `json:"start_page"`
	EndUnit     int        `json:"end_page"`
	ChunkNumber int        `json:"chunk_number"`
	TotalChunks int        `json:"total_chunks"`
	UnitName    string     `json:"unit_name"`
	SplitPart   *string    `json:"split_part,omitempty"`
}

// NewSearchResult builds the result view of a scored candidate.
func NewSearchResult(candidate *Candidate, similarity float64) *SearchResult {
	return &SearchResult{
		ChunkID: candidate.Chunk.ID,
		Content: candidate.Chunk.Content,
		Metadata: ResultMetadata{
			DocumentRID: candidate.Document.RID,
			Title:       candidate.Document.Title,
			Description: candidate.Document.Description,
			SourceType:  candidate.Document.SourceType,
			StartUnit:   candidate.Chunk.StartUnit,
			EndUnit:     candidate.Chunk.EndUnit,
			ChunkNumber: candidate.Chunk.ChunkNumber,
			TotalChunks: candidate.Document.TotalChunks,
			UnitName:    candidate.Chunk.UnitName,
			SplitPart:   candidate.Chunk.SplitPart,
		},
		Similarity: similarity,
	}
}

// ChunkSuccess records a top level chunk that was stored, possibly as several fragments.
type ChunkSuccess struct {
	ChunkNumber int    `json:"chunk_number"`
	Pages       string `json:"pages"`
	ChunkIDs    []int  `json:"chunk_ids"`
	Splits      int    `json:"splits"`
}

// ChunkFailure records a top level chunk that was skipped.
type ChunkFailure struct {
	ChunkNumber int    `json:"chunk_number"`
	Pages       string `json:"pages"`
	Error       string `json:"error"`
}

// IngestResult reports the outcome of one ingestion.
type IngestResult struct {
	Success          bool           `json:"success"`
	Error            string         `json:"error,omitempty"`
	SourceName       string         `json:"source_name"`
	SourceType       SourceType     `json:"file_type"`
	DocumentRID      uuid.UUID      `json:"document_id"`
	TotalPages       int            `json:"total_pages"`
	TotalChunks      int            `json:"total_chunks"`
	PagesPerChunk    int            `json:"pages_per_chunk"`
	UnitName         string         `json:"unit_name"`
	Processed        []ChunkSuccess `json:"processed_chunks"`
	SuccessfulChunks int            `json:"successful_chunks"`
	Failed           []ChunkFailure `json:"failed_chunks,omitempty"`
	FailedCount      int            `json:"failed_count"`
	Note             string         `json:"note,omitempty"`
}

// PageRange formats an inclusive 1-based unit range as "start-end".
func PageRange(start int, end int) string {
	return fmt.Sprintf("%d-%d", start, end)
}

// Finalize derives the counters and the note from the ledgers.
// The split count is the number of extra fragments over all chunks.
func (r *IngestResult) Finalize() {
	r.SuccessfulChunks = 0
	splits := 0
	for _, s := range r.Processed {
		r.SuccessfulChunks += len(s.ChunkIDs)
		splits += s.Splits
	}
	r.FailedCount = len(r.Failed)

	notes := []string{}
	if splits > 0 {
		notes = append(notes, fmt.Sprintf("%d chunk(s) were automatically split due to size", splits))
	}
	if r.FailedCount > 0 {
		notes = append(notes, fmt.Sprintf("%d chunk(s) failed to process and were skipped", r.FailedCount))
	}
	r.Note = strings.Join(notes, " | ")
}
