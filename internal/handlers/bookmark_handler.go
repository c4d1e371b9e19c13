package handlers

import (
	"net/http"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// BookmarkHandler handles bookmark HTTP requests
type BookmarkHandler struct {
	bookmarkRepository repositories.BookmarkRepository
	blogRepository     repositories.BlogRepository
}

// NewBookmarkHandler creates a new BookmarkHandler
func NewBookmarkHandler(bookmarkRepo repositories.BookmarkRepository, blogRepo repositories.BlogRepository) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarkRepository: bookmarkRepo,
		blogRepository:     blogRepo,
	}
}

// RegisterBookmarkRoutes registers bookmark routes
func (h *BookmarkHandler) RegisterBookmarkRoutes(g *echo.Group) {
	g.POST("/blogs/:id/bookmark", h.ToggleBookmark)
	g.GET("/bookmarks", h.GetBookmarks)
}

// ToggleBookmark bookmarks a blog, or removes the bookmark when it exists
func (h *BookmarkHandler) ToggleBookmark(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	blogID := c.Param("id")
	blog, err := h.blogRepository.GetBlogByID(c.Request().Context(), blogID)
	if err != nil {
		return repoError(err, "Blog")
	}
	if !canView(c, blog) {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	result, err := h.bookmarkRepository.Toggle(currentUserID, blogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"bookmarked": result.Active()})
}

// GetBookmarks lists the current user's bookmarked blogs, newest bookmark first
func (h *BookmarkHandler) GetBookmarks(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ids, err := h.bookmarkRepository.BlogIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	blogs, err := h.blogRepository.GetBlogsByIDs(c.Request().Context(), ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	byID := make(map[string]models.Blog, len(blogs))
	for _, b := range blogs {
		byID[b.ID.Hex()] = b
	}

	// Blogs deleted since they were bookmarked are skipped
	out := make([]models.BlogCompact, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b.ToCompact())
		}
	}

	return success(c, http.StatusOK, out)
}
