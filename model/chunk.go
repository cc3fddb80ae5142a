package model

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one embedded, retrievable piece of a document.
// Fragments produced by bisection share ChunkNumber and carry a SplitPart.
type Chunk struct {
	ID          int       `json:"id"`
	DocumentID  int64     `json:"document_id"`
	DocumentRID uuid.UUID `json:"document_rid"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding,omitempty"`
	StartUnit   int       `json:"start_unit"`
	EndUnit     int       `json:"end_unit"`
	ChunkNumber int       `json:"chunk_number"`
	UnitName    string    `json:"unit_name"`
	SplitPart   *string   `json:"split_part,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Candidate is a stored chunk together with its owning document,
// as read for similarity ranking.
type Candidate struct {
	Chunk    *Chunk
	Document *Document
}
