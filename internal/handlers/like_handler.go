package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	blogRepository repositories.BlogRepository
	userRepository repositories.UserRepository
	notifier       *Notifier
	log            zerolog.Logger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, blogRepo repositories.BlogRepository, userRepo repositories.UserRepository, notifier *Notifier, log zerolog.Logger) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		blogRepository: blogRepo,
		userRepository: userRepo,
		notifier:       notifier,
		log:            log,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/blogs/:id/like", h.ToggleLike)
	g.GET("/blogs/:id/likes/status", h.GetLikeStatus)
}

// ToggleLike likes the blog, or removes the like when the user already liked it
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ctx := c.Request().Context()
	blogID := c.Param("id")
	blog, err := h.blogRepository.GetBlogByID(ctx, blogID)
	if err != nil {
		return repoError(err, "Blog")
	}
	if !canView(c, blog) {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	result, err := h.likeRepository.Toggle(blogID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	switch result {
	case repositories.ToggleRemoved:
		background(h.log, "decrement_likes_count", func(ctx context.Context) error {
			return h.blogRepository.DecrementLikesCount(ctx, blogID)
		})
		return success(c, http.StatusOK, echo.Map{"liked": false, "likesCount": max(blog.LikesCount-1, 0)})
	case repositories.ToggleUnchanged:
		return success(c, http.StatusOK, echo.Map{"liked": true, "likesCount": blog.LikesCount})
	}

	background(h.log, "increment_likes_count", func(ctx context.Context) error {
		return h.blogRepository.IncrementLikesCount(ctx, blogID)
	})

	var actor *models.UserCompact
	if user, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		compact := user.ToCompact()
		actor = &compact
	}
	h.notifier.Notify(models.Notification{
		Type:        models.NotificationLike,
		ActorID:     currentUserID,
		RecipientID: blog.AuthorID,
		BlogID:      blogID,
		Message:     actorName(actor) + " liked your blog",
	})

	return success(c, http.StatusOK, echo.Map{"liked": true, "likesCount": blog.LikesCount + 1})
}

// GetLikeStatus reports whether the current user liked the blog and the total like count
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	blogID := c.Param("id")

	hasLiked, err := h.likeRepository.HasLiked(blogID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	count, err := h.likeRepository.CountByBlog(blogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{"liked": hasLiked, "likesCount": count})
}
