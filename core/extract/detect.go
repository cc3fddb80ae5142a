package extract

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/siherrmann/pagerag/model"
)

var mimeSourceTypes = []struct {
	mime       string
	sourceType model.SourceType
}{
	{"application/pdf", model.SourceTypePDF},
	{"application/epub+zip", model.SourceTypeEPUB},
	{"text/plain", model.SourceTypeText},
}

// DetectSourceType sniffs the format from the content and falls back to the
// extension of filename. It returns the detected MIME type alongside.
func DetectSourceType(data []byte, filename string) (model.SourceType, string, error) {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		for _, candidate := range mimeSourceTypes {
			if m.Is(candidate.mime) {
				return candidate.sourceType, detected.String(), nil
			}
		}
	}

	if filename != "" {
		sourceType, err := model.SourceTypeFromFilename(filename)
		if err == nil {
			return sourceType, detected.String(), nil
		}
	}

	return "", detected.String(), model.NewExtractionError(model.ErrUnsupportedFormat, nil)
}
