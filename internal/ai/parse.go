package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/lumina/backend/internal/content"
)

const (
	maxSuggestions     = 5
	fallbackSummaryLen = 150
	unsafeReason       = "Content flagged as unsafe by AI."
)

// Summary is the AI digest of a blog
type Summary struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
}

// Verdict is the answer of the safety check
type Verdict struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
}

// FallbackSummary is served when the model cannot summarize
func FallbackSummary(body string) Summary {
	return Summary{
		Summary:    content.Truncate(content.StripHTML(body), fallbackSummaryLen) + "...",
		Highlights: []string{},
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, fence := range []string{"```json", "```html", "```JSON", "```"} {
		s = strings.ReplaceAll(s, fence, "")
	}
	return strings.TrimSpace(s)
}

// between returns the substring from the first open to the last close, inclusive
func between(s string, open, close byte) (string, bool) {
	i := strings.IndexByte(s, open)
	j := strings.LastIndexByte(s, close)
	if i < 0 || j < i {
		return "", false
	}
	return s[i : j+1], true
}

func parseTitles(raw string) ([]string, error) {
	body, ok := between(stripFences(raw), '[', ']')
	if !ok {
		return nil, fmt.Errorf("titles: no JSON array in %q", raw)
	}
	var titles []string
	if err := json.Unmarshal([]byte(body), &titles); err != nil {
		return nil, fmt.Errorf("titles: %w", err)
	}

	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
		if len(out) == maxSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

func parseTags(raw string) []string {
	raw = stripFences(raw)
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	for i, f := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(f), `"'#*-. `)
	}
	tags := content.NormalizeTags(fields)
	if len(tags) > maxSuggestions {
		tags = tags[:maxSuggestions]
	}
	return tags
}

func parseVerdict(raw string) (Verdict, error) {
	body, ok := between(stripFences(raw), '{', '}')
	if !ok {
		return Verdict{}, fmt.Errorf("verdict: no JSON object in %q", raw)
	}
	var v struct {
		Safe   *bool   `json:"safe"`
		Reason *string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return Verdict{}, fmt.Errorf("verdict: %w", err)
	}
	if v.Safe == nil {
		return Verdict{}, errors.New("verdict: missing safe field")
	}

	verdict := Verdict{Safe: *v.Safe}
	if !verdict.Safe {
		verdict.Reason = unsafeReason
		if v.Reason != nil && strings.TrimSpace(*v.Reason) != "" {
			verdict.Reason = strings.TrimSpace(*v.Reason)
		}
	}
	return verdict, nil
}

func parseSummary(raw string) (Summary, error) {
	body, ok := between(stripFences(raw), '{', '}')
	if !ok {
		return Summary{}, fmt.Errorf("summary: no JSON object in %q", raw)
	}
	var s Summary
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	s.Summary = strings.TrimSpace(s.Summary)
	if s.Summary == "" {
		return Summary{}, ErrEmptyResponse
	}
	if s.Highlights == nil {
		s.Highlights = []string{}
	}
	return s, nil
}
