package extract

import (
	"fmt"

	"github.com/siherrmann/pagerag/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Extractor turns raw document bytes into an ordered sequence of page texts.
type Extractor struct {
	// WordsPerPage sizes the synthetic pages of flowed formats.
	WordsPerPage int
	// Fallback decodes plain text that is not valid UTF-8. Nil disables the retry.
	Fallback encoding.Encoding
}

// NewExtractor returns an extractor paginating flowed text by wordsPerPage
// and retrying invalid UTF-8 as ISO 8859-1.
func NewExtractor(wordsPerPage int) *Extractor {
	return &Extractor{
		WordsPerPage: wordsPerPage,
		Fallback:     charmap.ISO8859_1,
	}
}

// Extract returns the non-empty page sequence of data.
// Failures are *model.ExtractionError values.
func (e *Extractor) Extract(data []byte, sourceType model.SourceType) ([]string, error) {
	if e.WordsPerPage <= 0 {
		return nil, fmt.Errorf("words per page must be positive: got %d", e.WordsPerPage)
	}

	switch sourceType {
	case model.SourceTypePDF:
		return extractPDF(data)
	case model.SourceTypeEPUB:
		text, err := extractEPUB(data)
		if err != nil {
			return nil, err
		}
		return paginateOrEmpty(text, e.WordsPerPage)
	case model.SourceTypeText:
		text, err := decodeText(data, e.Fallback)
		if err != nil {
			return nil, err
		}
		return paginateOrEmpty(text, e.WordsPerPage)
	}

	return nil, model.NewExtractionError(model.ErrUnsupportedFormat, fmt.Errorf("source type %q", sourceType))
}

func paginateOrEmpty(text string, wordsPerPage int) ([]string, error) {
	pages := Paginate(text, wordsPerPage)
	if len(pages) == 0 {
		return nil, model.NewExtractionError(model.ErrEmpty, nil)
	}
	return pages, nil
}
