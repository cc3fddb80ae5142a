package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/siherrmann/pagerag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
)

type failingTransformer struct{}

func (failingTransformer) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	return 0, 0, errors.New("undecodable input")
}

func (failingTransformer) Reset() {}

type failingEncoding struct{}

func (failingEncoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: failingTransformer{}}
}

func (failingEncoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: failingTransformer{}}
}

func TestExtractText(t *testing.T) {
	extractor := NewExtractor(300)

	t.Run("Paginate plain text", func(t *testing.T) {
		pages, err := extractor.Extract([]byte(words(650)), model.SourceTypeText)

		require.NoError(t, err)
		assert.Len(t, pages, 3)
	})

	t.Run("Strip byte order mark", func(t *testing.T) {
		pages, err := extractor.Extract([]byte("\xEF\xBB\xBFhello world"), model.SourceTypeText)

		require.NoError(t, err)
		assert.Equal(t, []string{"hello world"}, pages)
	})

	t.Run("Whitespace only input is empty", func(t *testing.T) {
		_, err := extractor.Extract([]byte("  \n\n  "), model.SourceTypeText)

		assert.ErrorIs(t, err, model.ErrEmpty)
		assert.NotErrorIs(t, err, model.ErrCorrupt)
	})

	t.Run("Invalid UTF-8 is decoded with fallback", func(t *testing.T) {
		pages, err := extractor.Extract([]byte("caf\xe9 cr\xe8me"), model.SourceTypeText)

		require.NoError(t, err)
		assert.Equal(t, []string{"café crème"}, pages)
	})

	t.Run("Invalid UTF-8 without fallback fails", func(t *testing.T) {
		noFallback := &Extractor{WordsPerPage: 300}
		_, err := noFallback.Extract([]byte("caf\xe9"), model.SourceTypeText)

		assert.ErrorIs(t, err, model.ErrEncodingFailure)
	})

	t.Run("Failing fallback raises encoding failure", func(t *testing.T) {
		broken := &Extractor{WordsPerPage: 300, Fallback: failingEncoding{}}
		_, err := broken.Extract([]byte("caf\xe9"), model.SourceTypeText)

		assert.ErrorIs(t, err, model.ErrEncodingFailure)
	})

	t.Run("Unknown source type is unsupported", func(t *testing.T) {
		_, err := extractor.Extract([]byte("text"), model.SourceType("docx"))

		assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
	})

	t.Run("Invalid words per page is rejected", func(t *testing.T) {
		_, err := (&Extractor{}).Extract([]byte("text"), model.SourceTypeText)

		assert.Error(t, err)
	})
}

func TestExtractPDF(t *testing.T) {
	extractor := NewExtractor(300)

	t.Run("Garbage bytes are corrupt", func(t *testing.T) {
		_, err := extractor.Extract([]byte(strings.Repeat("not a pdf ", 20)), model.SourceTypePDF)

		assert.ErrorIs(t, err, model.ErrCorrupt)
	})

	t.Run("Truncated document is corrupt", func(t *testing.T) {
		_, err := extractor.Extract([]byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog"), model.SourceTypePDF)

		assert.ErrorIs(t, err, model.ErrCorrupt)
	})

	t.Run("Zero bytes are empty", func(t *testing.T) {
		_, err := extractor.Extract(nil, model.SourceTypePDF)

		assert.ErrorIs(t, err, model.ErrEmpty)
	})
}
