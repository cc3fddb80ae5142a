package model

import (
	"time"

	"github.com/google/uuid"
)

// SourceType is the closed set of supported input formats.
type SourceType string

const (
	// SourceTypePDF is a paged binary format with native pages.
	SourceTypePDF SourceType = "pdf"
	// SourceTypeEPUB is a flowed binary format paginated by word count.
	SourceTypeEPUB SourceType = "epub"
	// SourceTypeText is plain text paginated by word count.
	SourceTypeText SourceType = "txt"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceTypePDF, SourceTypeEPUB, SourceTypeText:
		return true
	}
	return false
}

// Paged reports whether the format has native pages.
func (s SourceType) Paged() bool {
	return s == SourceTypePDF
}

// Document is an ingested source owning its chunks.
type Document struct {
	ID          int64      `json:"id"`
	RID         uuid.UUID  `json:"rid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SourceType  SourceType `json:"source_type"`
	TotalChunks int        `json:"total_chunks"`
	Active      bool       `json:"active"`
	Metadata    Metadata   `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
