package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordFilter_FirstMatch(t *testing.T) {
	f := NewWordFilter(DefaultWords)

	cases := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"clean", "A perfectly pleasant paragraph about gardening.", "", false},
		{"plain_hit", "what an idiot move", "idiot", true},
		{"case_insensitive", "That was STUPID of me", "STUPID", true},
		{"punctuation_boundary", "you idiot!", "idiot", true},
		{"inside_word_is_fine", "a classic assessment of the class", "", false},
		{"longer_word_wins_over_prefix", "asshole", "asshole", true},
		{"prefix_alone_inside_word", "fuckingham", "", false},
		{"first_in_text", "stupid and dumbass", "stupid", true},
		{"digits_are_word_runes", "idiot2", "", false},
		{"unicode_neighbours", "¡idiot¡", "idiot", true},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found := f.FirstMatch(tc.text)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWordFilter_OverlappingPatterns(t *testing.T) {
	f := NewWordFilter([]string{"he", "she", "hers"})

	got, ok := f.FirstMatch("ushers")
	assert.False(t, ok, "all candidates sit inside a longer word")
	assert.Empty(t, got)

	got, ok = f.FirstMatch("u she rs")
	assert.True(t, ok)
	assert.Equal(t, "she", got)

	assert.True(t, f.Contains("it is hers"))
}

func TestWordFilter_Empty(t *testing.T) {
	f := NewWordFilter(nil)
	assert.False(t, f.Contains("anything at all"))
}
