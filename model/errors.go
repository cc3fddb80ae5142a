package model

import (
	"errors"
	"fmt"
)

var (
	// Extraction kinds, matched through ExtractionError.
	ErrCorrupt           = errors.New("corrupt document")
	ErrEmpty             = errors.New("document contains no text")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEncodingFailure   = errors.New("text encoding could not be decoded")

	// ErrSizeLimitExceeded marks a provider rejection of an oversized input.
	// It is recoverable and triggers bisection of the chunk.
	ErrSizeLimitExceeded = errors.New("embedding input exceeds provider size limit")
	ErrSplitExhausted    = errors.New("chunk is too large even after multiple splits")

	ErrAllIncompatible     = errors.New("all documents had incompatible embeddings, the store may contain mixed embedding dimensions")
	ErrEmptyQuery          = errors.New("query cannot be empty")
	ErrEmptyDocumentIDList = errors.New("at least one document id is required")
	ErrInvalidTopK         = errors.New("top_k must be a positive integer")

	ErrDuplicateTitle       = errors.New("a document with this title already exists")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrInvalidPagesPerChunk = errors.New("pages per chunk must be between 1 and 10")
)

// ExtractionError aborts an ingestion before any chunk is written.
type ExtractionError struct {
	Kind error
	Err  error
}

func NewExtractionError(kind error, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Err: err}
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Is reports a match against the extraction kind.
func (e *ExtractionError) Is(target error) bool {
	return target == e.Kind
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewSizeLimitError wraps a provider error so it matches ErrSizeLimitExceeded.
func NewSizeLimitError(err error) error {
	return fmt.Errorf("%w: %v", ErrSizeLimitExceeded, err)
}
