package handlers

import (
	"net/http"
	"testing"

	"github.com/anonto42/lumina/backend/internal/ai"
	"github.com/anonto42/lumina/backend/internal/cache"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGetSummary_DraftHidesCachedSummary(t *testing.T) {
	blog := &models.Blog{ID: primitive.NewObjectID(), AuthorID: 1, Status: models.BlogStatusDraft, Title: "Unreleased"}
	id := blog.ID.Hex()
	blogs := &mockBlogRepo{}
	blogs.On("GetBlogByID", mock.Anything, id).Return(blog, nil)
	suggestions := memorySuggestions{
		cache.SuggestionKey(id, "summary"): {Summary: "secret plans", Highlights: []string{"launch date"}},
	}
	h := NewAIHandler(nil, blogs, nil, suggestions, 10, zerolog.Nop())
	e := echo.New()

	c, _ := requestContext(e, http.MethodGet, "", "blogId", id, 2, models.RoleUser)
	err := h.GetSummary(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))

	c, _ = requestContext(e, http.MethodGet, "", "blogId", id, 0, "")
	err = h.GetSummary(c)
	assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
	blogs.AssertNumberOfCalls(t, "GetBlogByID", 2)

	c, rec := requestContext(e, http.MethodGet, "", "blogId", id, 1, models.RoleUser)
	require.NoError(t, h.GetSummary(c))
	data := decodeData(t, rec)
	assert.Equal(t, true, data["cached"])
	assert.Equal(t, "secret plans", data["summary"].(map[string]any)["summary"])
}

func TestGetSummary_CachedForPublishedBlog(t *testing.T) {
	blog := &models.Blog{ID: primitive.NewObjectID(), AuthorID: 1, Status: models.BlogStatusPublished}
	id := blog.ID.Hex()
	blogs := &mockBlogRepo{}
	blogs.On("GetBlogByID", mock.Anything, id).Return(blog, nil)
	suggestions := memorySuggestions{cache.SuggestionKey(id, "summary"): ai.Summary{Summary: "short"}}
	h := NewAIHandler(nil, blogs, nil, suggestions, 10, zerolog.Nop())

	c, rec := requestContext(echo.New(), http.MethodGet, "", "blogId", id, 0, "")
	require.NoError(t, h.GetSummary(c))
	data := decodeData(t, rec)
	assert.Equal(t, true, data["cached"])
}
