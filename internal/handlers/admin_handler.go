package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const maxAnnouncementHours = 24 * 365

// AdminHandler serves the admin console
type AdminHandler struct {
	userRepository          repositories.UserRepository
	blogRepository          repositories.BlogRepository
	commentRepository       repositories.CommentRepository
	moderationLogRepository repositories.ModerationLogRepository
	announcementRepository  repositories.AnnouncementRepository
	cleanup                 *Cleanup
	log                     zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	userRepo repositories.UserRepository,
	blogRepo repositories.BlogRepository,
	commentRepo repositories.CommentRepository,
	moderationLogRepo repositories.ModerationLogRepository,
	announcementRepo repositories.AnnouncementRepository,
	cleanup *Cleanup,
	log zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		userRepository:          userRepo,
		blogRepository:          blogRepo,
		commentRepository:       commentRepo,
		moderationLogRepository: moderationLogRepo,
		announcementRepository:  announcementRepo,
		cleanup:                 cleanup,
		log:                     log,
	}
}

// RegisterAdminRoutes registers admin routes. The group must already require the admin role.
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/stats", h.GetStats)
	g.GET("/users", h.ListUsers)
	g.PUT("/users/:id/role", h.ToggleRole)
	g.DELETE("/users/:id", h.DeleteUser)
	g.DELETE("/blogs/:id", h.DeleteBlog)
	g.PUT("/blogs/:id/featured", h.ToggleFeatured)
	g.POST("/announcements", h.CreateAnnouncement)
	g.DELETE("/announcements/:id", h.DeleteAnnouncement)
	g.GET("/moderation-logs", h.GetModerationLogs)
}

// GetStats returns dashboard counters, fetched concurrently
func (h *AdminHandler) GetStats(c echo.Context) error {
	var users, blogs, published, comments, blocked int64

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		users, err = h.userRepository.CountUsers()
		return err
	})
	g.Go(func() (err error) {
		blogs, err = h.blogRepository.CountBlogs(ctx, repositories.BlogFilter{})
		return err
	})
	g.Go(func() (err error) {
		published, err = h.blogRepository.CountBlogs(ctx, repositories.BlogFilter{PublishedOnly: true})
		return err
	})
	g.Go(func() (err error) {
		comments, err = h.commentRepository.CountComments(ctx)
		return err
	})
	g.Go(func() (err error) {
		blocked, err = h.moderationLogRepository.CountByAction(models.ModerationBlocked)
		return err
	})
	if err := g.Wait(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{
		"users":          users,
		"blogs":          blogs,
		"publishedBlogs": published,
		"comments":       comments,
		"blockedContent": blocked,
	})
}

// ListUsers lists accounts, optionally filtered by name or email
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.userRepository.SearchUsers(strings.TrimSpace(c.QueryParam("q")), 100)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, users)
}

// ToggleRole switches a user between USER and ADMIN
func (h *AdminHandler) ToggleRole(c echo.Context) error {
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	if id == getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot change your own role")
	}

	user, err := h.userRepository.GetUserByID(id)
	if err != nil {
		return repoError(err, "User")
	}
	role := models.RoleAdmin
	if user.IsAdmin() {
		role = models.RoleUser
	}
	if err := h.userRepository.SetRole(id, role); err != nil {
		return repoError(err, "User")
	}
	h.log.Info().Uint("user_id", id).Str("role", string(role)).Uint("by", getUserIDFromContext(c)).Msg("role changed")

	return success(c, http.StatusOK, echo.Map{"id": id, "role": role})
}

// DeleteUser removes another user's account and content
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	if id == getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot delete your own account from the admin console")
	}
	if err := h.cleanup.RemoveUser(c.Request().Context(), id); err != nil {
		return repoError(err, "User")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteBlog removes any blog
func (h *AdminHandler) DeleteBlog(c echo.Context) error {
	if err := h.cleanup.RemoveBlog(c.Request().Context(), c.Param("id")); err != nil {
		return repoError(err, "Blog")
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleFeatured features or unfeatures a blog
func (h *AdminHandler) ToggleFeatured(c echo.Context) error {
	ctx := c.Request().Context()
	blogID := c.Param("id")
	blog, err := h.blogRepository.GetBlogByID(ctx, blogID)
	if err != nil {
		return repoError(err, "Blog")
	}
	featured := !blog.Featured
	if err := h.blogRepository.SetFeatured(ctx, blogID, featured); err != nil {
		return repoError(err, "Blog")
	}
	return success(c, http.StatusOK, echo.Map{"featured": featured})
}

// parseAnnouncementDuration reads a number of hours, or "always" for no expiry
func parseAnnouncementDuration(s string, now time.Time) (*time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "always" {
		return nil, nil
	}
	hours, err := strconv.Atoi(s)
	if err != nil || hours < 1 || hours > maxAnnouncementHours {
		return nil, fmt.Errorf("duration must be a number of hours between 1 and %d, or \"always\"", maxAnnouncementHours)
	}
	expires := now.Add(time.Duration(hours) * time.Hour)
	return &expires, nil
}

// CreateAnnouncement publishes a site banner and retires the previous one
func (h *AdminHandler) CreateAnnouncement(c echo.Context) error {
	var req models.CreateAnnouncementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	expiresAt, err := parseAnnouncementDuration(req.Duration, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	kind := req.Type
	if kind == "" {
		kind = "info"
	}

	announcement := &models.Announcement{
		Message:   strings.TrimSpace(req.Message),
		Type:      kind,
		ExpiresAt: expiresAt,
		CreatedBy: getUserIDFromContext(c),
	}
	if err := h.announcementRepository.CreateAnnouncement(announcement); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusCreated, announcement)
}

// DeleteAnnouncement takes a banner down
func (h *AdminHandler) DeleteAnnouncement(c echo.Context) error {
	id, err := parseIDParam(c, "id", "announcement")
	if err != nil {
		return err
	}
	if err := h.announcementRepository.Deactivate(id); err != nil {
		return repoError(err, "Announcement")
	}
	return success(c, http.StatusOK, echo.Map{"deactivated": true})
}

// GetModerationLogs pages through blocked and flagged content
func (h *AdminHandler) GetModerationLogs(c echo.Context) error {
	page, limit := pageParams(c, 20, 100)
	logs, total, err := h.moderationLogRepository.ListLogs(page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"logs": logs},
		"meta":    paginationMeta(page, limit, total),
	})
}
