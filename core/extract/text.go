package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/siherrmann/pagerag/model"
	"golang.org/x/text/encoding"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText reads data as UTF-8 and retries once with fallback.
func decodeText(data []byte, fallback encoding.Encoding) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var text string
	if utf8.Valid(data) {
		text = string(data)
	} else {
		if fallback == nil {
			return "", model.NewExtractionError(model.ErrEncodingFailure, fmt.Errorf("input is not valid UTF-8"))
		}
		decoded, err := fallback.NewDecoder().Bytes(data)
		if err != nil || !utf8.Valid(decoded) {
			return "", model.NewExtractionError(model.ErrEncodingFailure, err)
		}
		text = string(decoded)
	}

	if strings.TrimSpace(text) == "" {
		return "", model.NewExtractionError(model.ErrEmpty, nil)
	}
	return text, nil
}
