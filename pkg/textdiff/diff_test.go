package textdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangedSpans(t *testing.T) {
	t.Run("identical text yields no spans", func(t *testing.T) {
		oldSpan, newSpan, inserts := ChangedSpans("same text", "same text")
		assert.Equal(t, "", oldSpan)
		assert.Equal(t, "", newSpan)
		assert.Empty(t, inserts)
	})

	t.Run("pure insertion", func(t *testing.T) {
		oldSpan, newSpan, inserts := ChangedSpans("bp stable", "bp 170/110 stable")
		assert.Equal(t, "", oldSpan)
		assert.Contains(t, newSpan, "170/110")
		assert.NotEmpty(t, inserts)
	})

	t.Run("replacement populates both sides", func(t *testing.T) {
		oldSpan, newSpan, _ := ChangedSpans("sentence 10.", "sentence 10!")
		assert.Contains(t, oldSpan, ".")
		assert.Contains(t, newSpan, "!")
	})
}

func TestTrigramDice(t *testing.T) {
	assert.Equal(t, 1.0, TrigramDice("", ""))
	assert.Equal(t, 0.0, TrigramDice("abcdef", ""))
	assert.Equal(t, 0.0, TrigramDice("", "abcdef"))
	assert.Equal(t, 1.0, TrigramDice("identical text here", "identical text here"))

	score := TrigramDice("sentence ten", "sentence ten!")
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
	assert.Greater(t, score, 0.5, "near-identical strings should be highly similar")
}

func TestTrigramDiceSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"clinical note text", "clinic note texts"},
		{"ab", "abc"},
		{"", "x"},
	}
	for _, pair := range pairs {
		a := TrigramDice(pair[0], pair[1])
		b := TrigramDice(pair[1], pair[0])
		assert.Equal(t, a, b)
		assert.GreaterOrEqual(t, a, 0.0)
		assert.LessOrEqual(t, a, 1.0)
	}
}
