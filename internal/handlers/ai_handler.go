package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/lumina/backend/internal/ai"
	"github.com/anonto42/lumina/backend/internal/cache"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Writer is the AI surface used by the writing tools
type Writer interface {
	GenerateBlog(ctx context.Context, title, tone string) (string, error)
	GenerateTags(ctx context.Context, title, body string) ([]string, error)
	GenerateTitles(ctx context.Context, body, tone string) ([]string, error)
	Summarize(ctx context.Context, title, body string) (ai.Summary, error)
}

// SuggestionCache keeps generated output between requests
type SuggestionCache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// AIHandler exposes the AI writing tools
type AIHandler struct {
	writer         Writer
	blogRepository repositories.BlogRepository
	cooldowns      Cooldowns
	suggestions    SuggestionCache
	ratePerMinute  int
	log            zerolog.Logger
}

// NewAIHandler creates a new AIHandler
func NewAIHandler(writer Writer, blogRepo repositories.BlogRepository, cooldowns Cooldowns, suggestions SuggestionCache, ratePerMinute int, log zerolog.Logger) *AIHandler {
	return &AIHandler{
		writer:         writer,
		blogRepository: blogRepo,
		cooldowns:      cooldowns,
		suggestions:    suggestions,
		ratePerMinute:  ratePerMinute,
		log:            log,
	}
}

// RegisterAIRoutes registers the AI routes behind a per-IP rate limit
func (h *AIHandler) RegisterAIRoutes(g *echo.Group) {
	perMinute := max(h.ratePerMinute, 1)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	limiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many AI requests, slow down")
		},
	})

	aiGroup := g.Group("/ai", limiter)
	aiGroup.POST("/generate-blog", h.GenerateBlog)
	aiGroup.POST("/generate-tags", h.GenerateTags)
	aiGroup.POST("/generate-title", h.GenerateTitle)
	aiGroup.GET("/summary/:blogId", h.GetSummary)
}

// aiError maps AI client failures onto HTTP errors
func aiError(err error) error {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are not configured")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI service is temporarily unavailable")
	case errors.Is(err, ai.ErrEmptyResponse):
		return echo.NewHTTPError(http.StatusBadGateway, "AI returned an empty response")
	default:
		return echo.NewHTTPError(http.StatusBadGateway, "AI request failed")
	}
}

// guarded runs fn under the per-user AI cooldown, releasing it when fn fails
func (h *AIHandler) guarded(c echo.Context, fn func(ctx context.Context) (any, error)) error {
	release, err := acquireCooldown(c, h.cooldowns, cache.ScopeAI, cache.AICooldown, "using the AI tools", nil)
	if err != nil {
		return err
	}
	out, err := fn(c.Request().Context())
	if err != nil {
		release()
		h.log.Warn().Err(err).Str("path", c.Path()).Msg("ai request failed")
		return aiError(err)
	}
	return success(c, http.StatusOK, out)
}

// GenerateBlog drafts a blog body for a title
func (h *AIHandler) GenerateBlog(c echo.Context) error {
	var req models.GenerateBlogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.guarded(c, func(ctx context.Context) (any, error) {
		html, err := h.writer.GenerateBlog(ctx, req.Title, req.Tone)
		if err != nil {
			return nil, err
		}
		return echo.Map{"content": html}, nil
	})
}

// GenerateTags suggests tags for a draft
func (h *AIHandler) GenerateTags(c echo.Context) error {
	var req models.GenerateTagsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.guarded(c, func(ctx context.Context) (any, error) {
		tags, err := h.writer.GenerateTags(ctx, req.Title, req.Body)
		if err != nil {
			return nil, err
		}
		return echo.Map{"tags": tags}, nil
	})
}

// GenerateTitle suggests titles for a draft
func (h *AIHandler) GenerateTitle(c echo.Context) error {
	var req models.GenerateTitleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.guarded(c, func(ctx context.Context) (any, error) {
		titles, err := h.writer.GenerateTitles(ctx, req.Body, req.Tone)
		if err != nil {
			return nil, err
		}
		return echo.Map{"titles": titles}, nil
	})
}

// GetSummary returns a cached or freshly generated summary of a blog. When generation fails
// the excerpt fallback is returned and not cached.
func (h *AIHandler) GetSummary(c echo.Context) error {
	ctx := c.Request().Context()
	blogID := c.Param("blogId")

	blog, err := h.blogRepository.GetBlogByID(ctx, blogID)
	if err != nil {
		return repoError(err, "Blog")
	}
	if !canView(c, blog) {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	key := cache.SuggestionKey(blogID, "summary")
	var cached ai.Summary
	if err := h.suggestions.Get(ctx, key, &cached); err == nil {
		return success(c, http.StatusOK, echo.Map{"summary": cached, "cached": true})
	} else if !errors.Is(err, cache.ErrMiss) {
		h.log.Warn().Err(err).Str("key", key).Msg("reading summary cache")
	}

	summary, err := h.writer.Summarize(ctx, blog.Title, blog.Body)
	if err != nil {
		h.log.Warn().Err(err).Str("blog_id", blogID).Msg("summary generation failed, using excerpt")
		return success(c, http.StatusOK, echo.Map{"summary": summary, "cached": false, "fallback": true})
	}

	if err := h.suggestions.Set(ctx, key, summary, cache.SuggestionTTL); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("writing summary cache")
	}
	return success(c, http.StatusOK, echo.Map{"summary": summary, "cached": false})
}
