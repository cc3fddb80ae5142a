package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/siherrmann/pagerag/model"
)

// extractPDF returns one text per native page.
func extractPDF(data []byte) (pages []string, err error) {
	if len(data) == 0 {
		return nil, model.NewExtractionError(model.ErrEmpty, nil)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = model.NewExtractionError(model.ErrCorrupt, fmt.Errorf("pdf parser: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, model.NewExtractionError(model.ErrCorrupt, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, model.NewExtractionError(model.ErrCorrupt, fmt.Errorf("document has no pages"))
	}

	blank := true
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, model.NewExtractionError(model.ErrCorrupt, fmt.Errorf("page %d: %w", i, err))
		}
		text = strings.TrimSpace(text)
		if text != "" {
			blank = false
		}
		pages = append(pages, text)
	}

	if blank {
		return nil, model.NewExtractionError(model.ErrEmpty, fmt.Errorf("no text on %d page(s)", numPages))
	}
	return pages, nil
}
