package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IngestRequest carries one raw document and how to ingest it.
type IngestRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	SourceType  SourceType   `json:"source_type"`
	Data        []byte       `json:"-"`
	Config      IngestConfig `json:"config"`
}

// SourceTypeFromFilename maps a file extension to its source type.
func SourceTypeFromFilename(filename string) (SourceType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		return SourceTypePDF, nil
	case "epub":
		return SourceTypeEPUB, nil
	case "txt", "text", "md":
		return SourceTypeText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
}

// NewIngestRequestFromFile reads a file into an ingest request with default config.
// The title defaults to the filename without extension and the source type
// is derived from the extension.
func NewIngestRequestFromFile(filePath string, description string) (*IngestRequest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if title == "" {
		title = filename
	}

	sourceType, err := SourceTypeFromFilename(filename)
	if err != nil {
		return nil, err
	}

	return &IngestRequest{
		Title:       title,
		Description: description,
		SourceType:  sourceType,
		Data:        data,
		Config:      DefaultIngestConfig(),
	}, nil
}
