package extract

import "strings"

// Paginate splits text into whitespace delimited words and groups them into
// pages of wordsPerPage words. The last page keeps the remainder.
func Paginate(text string, wordsPerPage int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || wordsPerPage <= 0 {
		return nil
	}

	pages := make([]string, 0, (len(words)+wordsPerPage-1)/wordsPerPage)
	for start := 0; start < len(words); start += wordsPerPage {
		end := min(start+wordsPerPage, len(words))
		pages = append(pages, strings.Join(words[start:end], " "))
	}
	return pages
}
