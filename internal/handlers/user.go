package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/lumina/backend/internal/cache"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository   repositories.UserRepository
	blogRepository   repositories.BlogRepository
	followRepository repositories.FollowRepository
	cooldowns        Cooldowns
	cleanup          *Cleanup
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, blogRepo repositories.BlogRepository, followRepo repositories.FollowRepository, cooldowns Cooldowns, cleanup *Cleanup) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		blogRepository:   blogRepo,
		followRepository: followRepo,
		cooldowns:        cooldowns,
		cleanup:          cleanup,
	}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeleteUser)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/blogs", h.GetUserBlogs)
}

// GetUser returns a public profile with the user's published blogs
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(id)
	if err != nil {
		return repoError(err, "User profile")
	}

	blogs, err := h.blogRepository.ListBlogs(c.Request().Context(), repositories.BlogFilter{
		AuthorID:      id,
		PublishedOnly: true,
		Sort:          repositories.BlogSortNewest,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	isFollowing := false
	if viewer := getUserIDFromContext(c); viewer != 0 && viewer != id {
		isFollowing, _ = h.followRepository.IsFollowing(viewer, id)
	}

	compact := make([]models.BlogCompact, len(blogs))
	for i := range blogs {
		compact[i] = blogs[i].ToCompact()
	}

	return success(c, http.StatusOK, echo.Map{
		"user":        user,
		"blogs":       compact,
		"blogCount":   len(blogs),
		"isFollowing": isFollowing,
	})
}

// GetUserBlogs lists a user's blogs. Drafts and private blogs are included only for the owner.
func (h *UserHandler) GetUserBlogs(c echo.Context) error {
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	page, limit := pageParams(c, 10, 50)
	filter := repositories.BlogFilter{
		AuthorID:      id,
		PublishedOnly: getUserIDFromContext(c) != id,
		Sort:          repositories.BlogSortNewest,
		Skip:          int64((page - 1) * limit),
		Limit:         int64(limit),
	}

	ctx := c.Request().Context()
	blogs, err := h.blogRepository.ListBlogs(ctx, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	total, err := h.blogRepository.CountBlogs(ctx, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"blogs": blogs},
		"meta":    paginationMeta(page, limit, total),
	})
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		return repoError(err, "User profile")
	}
	return success(c, http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile, at most once a day for non-admins
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		return repoError(err, "User profile")
	}

	lastEdit := func(context.Context, uint) (time.Time, error) {
		if user.LastProfileEditAt == nil {
			return time.Time{}, repositories.ErrNotFound
		}
		return *user.LastProfileEditAt, nil
	}
	release, err := acquireCooldown(c, h.cooldowns, cache.ScopeProfileEdit, cache.ProfileEditCooldown, "updating your profile", lastEdit)
	if err != nil {
		return err
	}

	if name := strings.TrimSpace(req.FullName); name != "" {
		user.FullName = name
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Website != "" {
		user.Website = req.Website
	}
	if req.ProfileImageURL != "" {
		user.ProfileImageURL = req.ProfileImageURL
	}
	now := time.Now()
	user.LastProfileEditAt = &now

	if err := h.userRepository.UpdateUser(user); err != nil {
		release()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, user)
}

// DeleteUser deletes the authenticated user's account and content
func (h *UserHandler) DeleteUser(c echo.Context) error {
	if err := h.cleanup.RemoveUser(c.Request().Context(), getUserIDFromContext(c)); err != nil {
		return repoError(err, "User profile")
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchUsers searches for users by name or email
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(query, 20)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, toCompactUsers(users))
}
