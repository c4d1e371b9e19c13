// Package content holds the plain-text helpers shared by blog handlers, moderation and embeddings.
package content

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinBodyWords is the shortest blog body accepted for publishing
	MinBodyWords = 50
	// MaxEmbeddingRunes bounds the text sent to the embedding model
	MaxEmbeddingRunes = 8000
	// MaxTags caps the tags stored on a blog
	MaxTags = 10

	wordsPerMinute = 200
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML removes tags and collapses whitespace. Tags become spaces so that
// "good<b>bad</b>" reads as two words.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// WordCount counts the words of s once markup is removed
func WordCount(s string) int {
	return len(strings.Fields(StripHTML(s)))
}

// ReadTime estimates reading time in whole minutes, never less than one
func ReadTime(s string) int {
	minutes := int(math.Ceil(float64(WordCount(s)) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Excerpt returns the first n runes of the plain text, with "..." appended when cut
func Excerpt(s string, n int) string {
	plain := StripHTML(s)
	if utf8.RuneCountInString(plain) <= n {
		return plain
	}
	return Truncate(plain, n) + "..."
}

// EmbeddingText builds the text a blog is embedded from
func EmbeddingText(title, body string) string {
	return Truncate(strings.TrimSpace(title+" "+StripHTML(body)), MaxEmbeddingRunes)
}

// NormalizeTags trims tags, drops empty ones and removes case-insensitive duplicates
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
