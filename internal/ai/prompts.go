package ai

import (
	"fmt"
	"strings"

	"github.com/anonto42/lumina/backend/internal/content"
)

const (
	defaultTone = "Professional"

	tagsContextRunes    = 500
	titlesContextRunes  = 1000
	summaryContextRunes = 5000
	safetyContextRunes  = 1000
)

func toneOrDefault(tone string) string {
	if tone = strings.TrimSpace(tone); tone != "" {
		return tone
	}
	return defaultTone
}

func blogSystemInstruction(tone string) string {
	return strings.Join([]string{
		"You are a professional blogger. Craft a complete, publish-ready blog post.",
		"Tone: " + toneOrDefault(tone) + ".",
		"Requirements:",
		"- Return purely valid HTML structure.",
		"- Break text into short, readable paragraphs (max 3-4 sentences each).",
		"- Wrap EVERY paragraph in <p> tags.",
		"- Use <h2> for main sections and <h3> for subsections.",
		"- Use <ul> and <li> for lists.",
		"- Do NOT use Markdown. Do NOT wrap the answer in code fences.",
	}, "\n")
}

func blogPrompt(title string) string {
	return fmt.Sprintf("Blog title: %q. Write the full blog content now. Do NOT repeat the title at the top. Start directly with the introduction.",
		strings.TrimSpace(title))
}

func tagsPrompt(title, body string) string {
	prompt := fmt.Sprintf("Generate 5 relevant, comma-separated tags for a blog post titled %q", title)
	if body = content.StripHTML(body); body != "" {
		prompt += fmt.Sprintf(" with this content: %q", content.Truncate(body, tagsContextRunes))
	}
	return prompt + `. Return ONLY the tags, no other text. Example: "Tech, AI, Future, Innovation, Coding"`
}

func titlesPrompt(body, tone string) string {
	return strings.Join([]string{
		"You are a viral blog editor. Generate 5 catchy, engaging blog titles based on the content below.",
		"Context: " + content.Truncate(content.StripHTML(body), titlesContextRunes),
		"Tone: " + toneOrDefault(tone),
		"Requirements:",
		"- Return ONLY a raw JSON array of strings",
		"- Titles should be short (under 60 chars)",
		"- No intro/outro text. Just the JSON array.",
	}, "\n")
}

func summaryPrompt(title, body string) string {
	return strings.Join([]string{
		"Summarize the following blog post in 2-3 sentences. Also extract 3-5 key highlights as brief bullet points.",
		`Return the result as JSON: {"summary": "...", "highlights": ["...", "..."]}.`,
		"Title: " + title,
		"Content: " + content.Truncate(content.StripHTML(body), summaryContextRunes),
	}, "\n")
}

func safetyPrompt(text string) string {
	return strings.Join([]string{
		"Analyze the following text for safety violations.",
		"Categories to check: hate speech, harassment, sexual content, dangerous content or violence, toxicity.",
		fmt.Sprintf("Text: %q", content.Truncate(text, safetyContextRunes)),
		`Respond with ONLY a JSON object: {"safe": boolean, "reason": "short explanation if unsafe, otherwise null"}`,
	}, "\n")
}
