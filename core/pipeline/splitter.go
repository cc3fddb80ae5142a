package pipeline

import "strings"

// splitDelimiters in order of preference.
var splitDelimiters = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune(" "),
}

// bisect cuts text into two trimmed halves near its middle, preferring a
// cut right after a paragraph break, line break, sentence end or space
// within window characters of the midpoint.
func bisect(text string, window int) (string, string) {
	runes := []rune(text)
	cut := splitPoint(runes, window)
	return strings.TrimSpace(string(runes[:cut])), strings.TrimSpace(string(runes[cut:]))
}

// splitPoint returns the rune index at which runes is cut.
func splitPoint(runes []rune, window int) int {
	mid := len(runes) / 2
	lo := max(mid-window, 0)
	hi := min(mid+window, len(runes))

	for _, delim := range splitDelimiters {
		if pos := lastIndexIn(runes, delim, lo, hi); pos >= 0 {
			return pos + len(delim)
		}
	}
	return mid
}

// lastIndexIn returns the start of the last occurrence of delim lying
// entirely inside runes[lo:hi], or -1.
func lastIndexIn(runes []rune, delim []rune, lo int, hi int) int {
	for i := hi - len(delim); i >= lo; i-- {
		match := true
		for j, r := range delim {
			if runes[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
