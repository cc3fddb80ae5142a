package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBisect(t *testing.T) {
	t.Run("Prefer paragraph break near the middle", func(t *testing.T) {
		text := "First sentence here. Another one\n\nSecond paragraph. More words"

		first, second := bisect(text, 500)

		assert.Equal(t, "First sentence here. Another one", first)
		assert.Equal(t, "Second paragraph. More words", second)
	})

	t.Run("Prefer line break over sentence end", func(t *testing.T) {
		text := "alpha beta. gamma\ndelta epsilon. zeta"

		first, second := bisect(text, 500)

		assert.Equal(t, "alpha beta. gamma", first)
		assert.Equal(t, "delta epsilon. zeta", second)
	})

	t.Run("Use last sentence end inside the window", func(t *testing.T) {
		text := "One. Two. Three. Four"

		first, second := bisect(text, 500)

		assert.Equal(t, "One. Two. Three.", first)
		assert.Equal(t, "Four", second)
	})

	t.Run("Ignore delimiters outside the window", func(t *testing.T) {
		text := "a b" + strings.Repeat("x", 40) + "c d"

		first, second := bisect(text, 5)

		assert.Equal(t, len([]rune(text))/2, len([]rune(first)), "Expected cut at the midpoint")
		assert.Equal(t, text, first+second)
	})

	t.Run("Cut at midpoint without delimiters", func(t *testing.T) {
		first, second := bisect("abcdefgh", 500)

		assert.Equal(t, "abcd", first)
		assert.Equal(t, "efgh", second)
	})

	t.Run("Count characters not bytes", func(t *testing.T) {
		first, second := bisect("ääääüüüü", 500)

		assert.Equal(t, "ääää", first)
		assert.Equal(t, "üüüü", second)
	})

	t.Run("Halves reconstruct the text up to trimmed whitespace", func(t *testing.T) {
		text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)
		text = strings.TrimSpace(text)

		first, second := bisect(text, 500)

		assert.NotEmpty(t, first)
		assert.NotEmpty(t, second)
		assert.Equal(t, strings.Fields(text), strings.Fields(first+" "+second))
	})
}
