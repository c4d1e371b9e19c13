package content

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain_text", input: "hello world", expected: "hello world"},
		{name: "tags_become_spaces", input: "good<b>bad</b>", expected: "good bad"},
		{name: "collapses_whitespace", input: "<p>one</p>\n\n<p>two   three</p>", expected: "one two three"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripHTML(tc.input))
		})
	}
}

func TestReadTime(t *testing.T) {
	assert.Equal(t, 1, ReadTime(""))
	assert.Equal(t, 1, ReadTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadTime(strings.Repeat("word ", 201)))
	assert.Equal(t, 3, ReadTime("<p>"+strings.Repeat("word ", 450)+"</p>"))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount("<p></p>"))
	assert.Equal(t, 4, WordCount("<h2>Title</h2><p>three more words</p>"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("<p>short</p>", 150))
	assert.Equal(t, "abc...", Excerpt("abcdef", 3))
	assert.Equal(t, "héé...", Excerpt("héééé", 3))
}

func TestEmbeddingText(t *testing.T) {
	assert.Equal(t, "Title body text", EmbeddingText("Title", "<p>body</p> text"))

	long := EmbeddingText("T", strings.Repeat("é", MaxEmbeddingRunes*2))
	assert.Equal(t, MaxEmbeddingRunes, utf8.RuneCountInString(long))
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"Go", "web"}, NormalizeTags([]string{" Go ", "", "go", "web", "GO"}))

	many := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		many = append(many, strings.Repeat("x", i+1))
	}
	assert.Len(t, NormalizeTags(many), MaxTags)
}
