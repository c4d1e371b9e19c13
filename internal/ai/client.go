// Package ai talks to Gemini for embeddings, writing help and safety checks.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/lumina/backend/internal/metrics"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/option"
)

var (
	// ErrNotConfigured is returned by every call when no API key is set
	ErrNotConfigured = errors.New("ai service not configured")
	// ErrEmptyResponse is returned when the model answers without any text
	ErrEmptyResponse = errors.New("ai returned an empty response")
)

// Config selects the models used by the client
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
}

// Client wraps the Gemini SDK. A Client built without an API key is valid and
// answers every call with ErrNotConfigured.
type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string

	textBreaker  *gobreaker.CircuitBreaker[string]
	embedBreaker *gobreaker.CircuitBreaker[[]float32]
	log          zerolog.Logger
}

// New creates the client. It only fails when an API key is given and the SDK cannot start.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	c := &Client{model: cfg.Model, embeddingModel: cfg.EmbeddingModel, log: log}
	if cfg.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set, AI features are disabled")
		return c, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client
	c.textBreaker = gobreaker.NewCircuitBreaker[string](c.breakerSettings("gemini-text"))
	c.embedBreaker = gobreaker.NewCircuitBreaker[[]float32](c.breakerSettings("gemini-embed"))
	return c, nil
}

func (c *Client) breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: breakerSuccess,
		IsExcluded:   breakerExcluded,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
}

// breakerSuccess counts an empty answer as a healthy upstream
func breakerSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrEmptyResponse)
}

// breakerExcluded leaves calls abandoned by the caller out of the failure counts
func breakerExcluded(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Enabled reports whether an API key was configured
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func observe(operation string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "open"
	case err != nil:
		status = "error"
	}
	metrics.RecordAIRequest(operation, status, time.Since(start))
}

// Embed returns the embedding vector of the text
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	values, err := c.embedBreaker.Execute(func() ([]float32, error) {
		res, err := c.client.EmbeddingModel(c.embeddingModel).EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, fmt.Errorf("gemini embedding request failed: %w", err)
		}
		if res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return nil, ErrEmptyResponse
		}
		return res.Embedding.Values, nil
	})
	observe("embed", start, err)
	if err != nil {
		return nil, err
	}

	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	return vec, nil
}

type generateOptions struct {
	system      string
	json        bool
	temperature float32
}

func (c *Client) generate(ctx context.Context, operation, prompt string, opts generateOptions) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	start := time.Now()
	text, err := c.textBreaker.Execute(func() (string, error) {
		model := c.client.GenerativeModel(c.model)
		if opts.system != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(opts.system)}}
		}
		if opts.temperature > 0 {
			model.SetTemperature(opts.temperature)
		}
		if opts.json {
			model.ResponseMIMEType = "application/json"
		}

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("gemini %s request failed: %w", operation, err)
		}
		return responseText(resp)
	})
	observe(operation, start, err)
	return text, err
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// GenerateBlog writes a full blog body in HTML for the given title
func (c *Client) GenerateBlog(ctx context.Context, title, tone string) (string, error) {
	out, err := c.generate(ctx, "generate_blog", blogPrompt(title), generateOptions{
		system:      blogSystemInstruction(tone),
		temperature: 0.8,
	})
	if err != nil {
		return "", err
	}
	return stripFences(out), nil
}

// GenerateTags suggests up to five tags for a draft
func (c *Client) GenerateTags(ctx context.Context, title, body string) ([]string, error) {
	out, err := c.generate(ctx, "generate_tags", tagsPrompt(title, body), generateOptions{temperature: 0.4})
	if err != nil {
		return nil, err
	}
	tags := parseTags(out)
	if len(tags) == 0 {
		return nil, ErrEmptyResponse
	}
	return tags, nil
}

// GenerateTitles suggests five titles for a draft
func (c *Client) GenerateTitles(ctx context.Context, body, tone string) ([]string, error) {
	out, err := c.generate(ctx, "generate_titles", titlesPrompt(body, tone), generateOptions{json: true, temperature: 0.9})
	if err != nil {
		return nil, err
	}
	return parseTitles(out)
}

// Summarize returns a short summary with highlights. On any failure it still returns
// FallbackSummary of the body together with the error.
func (c *Client) Summarize(ctx context.Context, title, body string) (Summary, error) {
	out, err := c.generate(ctx, "summarize", summaryPrompt(title, body), generateOptions{json: true, temperature: 0.3})
	if err != nil {
		return FallbackSummary(body), err
	}
	s, err := parseSummary(out)
	if err != nil {
		return FallbackSummary(body), err
	}
	return s, nil
}

// CheckSafety asks the model whether the text violates the content policy
func (c *Client) CheckSafety(ctx context.Context, text string) (Verdict, error) {
	out, err := c.generate(ctx, "moderate", safetyPrompt(text), generateOptions{json: true})
	if err != nil {
		return Verdict{}, err
	}
	return parseVerdict(out)
}
