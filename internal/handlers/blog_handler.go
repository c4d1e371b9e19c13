package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/lumina/backend/internal/cache"
	"github.com/anonto42/lumina/backend/internal/content"
	"github.com/anonto42/lumina/backend/internal/embedding"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/recommend"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const metaDescriptionLength = 150

// Recommender produces similarity-ranked blog lists
type Recommender interface {
	Related(ctx context.Context, blogID string) ([]recommend.Ranked, error)
	PersonalFeed(ctx context.Context, userID uint) ([]recommend.Ranked, bool)
}

// BlogHandler handles HTTP requests related to blogs
type BlogHandler struct {
	blogRepository     repositories.BlogRepository
	commentRepository  repositories.CommentRepository
	userRepository     repositories.UserRepository
	likeRepository     repositories.LikeRepository
	bookmarkRepository repositories.BookmarkRepository
	historyRepository  repositories.ReadingHistoryRepository
	recommender        Recommender
	moderator          ContentModerator
	cooldowns          Cooldowns
	embeddings         embedding.Enqueuer
	notifier           *Notifier
	cleanup            *Cleanup
	log                zerolog.Logger
}

// BlogDeps groups the collaborators of BlogHandler
type BlogDeps struct {
	Blogs       repositories.BlogRepository
	Comments    repositories.CommentRepository
	Users       repositories.UserRepository
	Likes       repositories.LikeRepository
	Bookmarks   repositories.BookmarkRepository
	History     repositories.ReadingHistoryRepository
	Recommender Recommender
	Moderator   ContentModerator
	Cooldowns   Cooldowns
	Embeddings  embedding.Enqueuer
	Notifier    *Notifier
	Cleanup     *Cleanup
}

// NewBlogHandler creates a new BlogHandler
func NewBlogHandler(deps BlogDeps, log zerolog.Logger) *BlogHandler {
	return &BlogHandler{
		blogRepository:     deps.Blogs,
		commentRepository:  deps.Comments,
		userRepository:     deps.Users,
		likeRepository:     deps.Likes,
		bookmarkRepository: deps.Bookmarks,
		historyRepository:  deps.History,
		recommender:        deps.Recommender,
		moderator:          deps.Moderator,
		cooldowns:          deps.Cooldowns,
		embeddings:         deps.Embeddings,
		notifier:           deps.Notifier,
		cleanup:            deps.Cleanup,
		log:                log,
	}
}

// RegisterPublicBlogRoutes registers routes readable without an account
func (h *BlogHandler) RegisterPublicBlogRoutes(g *echo.Group) {
	g.GET("/blogs/:id", h.GetBlog)
	g.GET("/blogs/:id/related", h.GetRelated)
}

// RegisterBlogRoutes registers blog routes that need an account
func (h *BlogHandler) RegisterBlogRoutes(g *echo.Group) {
	g.POST("/blogs", h.CreateBlog)
	g.PUT("/blogs/:id", h.UpdateBlog)
	g.DELETE("/blogs/:id", h.DeleteBlog)
}

// canView hides drafts and private blogs from everyone but their author and admins
func canView(c echo.Context, blog *models.Blog) bool {
	return blog.IsPublic() || blog.AuthorID == getUserIDFromContext(c) || isAdmin(c)
}

// RankedBlog is a recommended blog with its similarity score
type RankedBlog struct {
	models.Blog
	Author *models.UserCompact `json:"author,omitempty"`
	Score  float64             `json:"score"`
}

func rankedBlogs(users repositories.UserRepository, ranked []recommend.Ranked) []RankedBlog {
	ids := make([]uint, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Blog.AuthorID
	}
	authors := compactUsers(users, ids)

	out := make([]RankedBlog, len(ranked))
	for i, r := range ranked {
		out[i] = RankedBlog{Blog: r.Blog, Score: r.Score}
		if a, ok := authors[r.Blog.AuthorID]; ok {
			out[i].Author = &a
		}
	}
	return out
}

func (h *BlogHandler) lastBlog(ctx context.Context, userID uint) (time.Time, error) {
	blogs, err := h.blogRepository.ListBlogs(ctx, repositories.BlogFilter{AuthorID: userID, Sort: repositories.BlogSortNewest, Limit: 1})
	if err != nil {
		return time.Time{}, err
	}
	if len(blogs) == 0 {
		return time.Time{}, repositories.ErrNotFound
	}
	return blogs[0].CreatedAt, nil
}

// CreateBlog publishes a new blog
func (h *BlogHandler) CreateBlog(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateBlogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tags := content.NormalizeTags(req.Tags)
	if len(tags) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "At least one tag is required")
	}
	if content.WordCount(req.Body) < content.MinBodyWords {
		return echo.NewHTTPError(http.StatusBadRequest, "Blog body must contain at least 50 words")
	}

	author, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return repoError(err, "User")
	}

	ctx := c.Request().Context()
	release, err := acquireCooldown(c, h.cooldowns, cache.ScopeBlogCreate, cache.BlogCreateCooldown, "publishing another blog", h.lastBlog)
	if err != nil {
		return err
	}
	if err := moderate(c, h.moderator, req.Title+" "+req.Body); err != nil {
		release()
		return err
	}

	status := req.Status
	if status == "" {
		status = models.BlogStatusPublished
	}
	now := time.Now()
	blog := &models.Blog{
		AuthorID:      currentUserID,
		Title:         strings.TrimSpace(req.Title),
		Body:          req.Body,
		CoverImageURL: req.CoverImageURL,
		Category:      strings.TrimSpace(req.Category),
		Tags:          tags,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.blogRepository.CreateBlog(ctx, blog); err != nil {
		release()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	embedding.Schedule(h.embeddings, h.log, blog.ID.Hex())
	if blog.IsPublic() {
		h.notifier.BlogPublished(author, blog)
	}
	h.log.Info().Str("blog_id", blog.ID.Hex()).Uint("author_id", currentUserID).Msg("blog created")

	return success(c, http.StatusCreated, blog)
}

// GetBlog returns a blog with its comment thread and counts one view
func (h *BlogHandler) GetBlog(c echo.Context) error {
	ctx := c.Request().Context()
	blogID := c.Param("id")

	blog, err := h.blogRepository.GetBlogByID(ctx, blogID)
	if err != nil {
		return repoError(err, "Blog")
	}
	if !canView(c, blog) {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	if viewed, err := h.blogRepository.IncrementViews(ctx, blogID); err == nil {
		blog = viewed
	} else {
		h.log.Warn().Err(err).Str("blog_id", blogID).Msg("incrementing views")
	}

	comments, err := loadThread(ctx, h.commentRepository, h.userRepository, blog)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var author *models.UserCompact
	if u, err := h.userRepository.GetUserByID(blog.AuthorID); err == nil {
		compact := u.ToCompact()
		author = &compact
	}

	isLiked, isBookmarked := false, false
	if viewer := getUserIDFromContext(c); viewer != 0 {
		isLiked, _ = h.likeRepository.HasLiked(blogID, viewer)
		isBookmarked, _ = h.bookmarkRepository.IsBookmarked(viewer, blogID)
		background(h.log, "record_reading_history", func(context.Context) error {
			return h.historyRepository.Record(viewer, blogID)
		})
	}

	return success(c, http.StatusOK, echo.Map{
		"blog":            blog,
		"author":          author,
		"comments":        comments,
		"commentCount":    blog.CommentsCount,
		"isLiked":         isLiked,
		"isBookmarked":    isBookmarked,
		"readTime":        content.ReadTime(blog.Body),
		"metaDescription": content.Excerpt(blog.Body, metaDescriptionLength),
	})
}

// UpdateBlog edits a blog. Only the author may edit and a changed text is embedded again.
func (h *BlogHandler) UpdateBlog(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateBlogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	blogID := c.Param("id")
	blog, err := h.blogRepository.GetBlogByID(ctx, blogID)
	if err != nil {
		return repoError(err, "Blog")
	}
	if blog.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this blog")
	}

	textChanged := false
	if title := strings.TrimSpace(req.Title); title != "" && title != blog.Title {
		blog.Title = title
		textChanged = true
	}
	if req.Body != "" && req.Body != blog.Body {
		if content.WordCount(req.Body) < content.MinBodyWords {
			return echo.NewHTTPError(http.StatusBadRequest, "Blog body must contain at least 50 words")
		}
		blog.Body = req.Body
		textChanged = true
	}
	if req.CoverImageURL != nil {
		blog.CoverImageURL = *req.CoverImageURL
	}
	if category := strings.TrimSpace(req.Category); category != "" {
		blog.Category = category
	}
	if req.Tags != nil {
		tags := content.NormalizeTags(req.Tags)
		if len(tags) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "At least one tag is required")
		}
		blog.Tags = tags
	}
	if req.Status != "" {
		blog.Status = req.Status
	}

	release, err := acquireCooldown(c, h.cooldowns, cache.ScopeBlogEdit, cache.BlogEditCooldown, "editing a blog", nil)
	if err != nil {
		return err
	}
	if textChanged {
		if err := moderate(c, h.moderator, blog.Title+" "+blog.Body); err != nil {
			release()
			return err
		}
	}

	blog.UpdatedAt = time.Now()
	if err := h.blogRepository.UpdateBlog(ctx, blogID, blog); err != nil {
		release()
		return repoError(err, "Blog")
	}

	if textChanged {
		embedding.Schedule(h.embeddings, h.log, blogID)
	}

	return success(c, http.StatusOK, blog)
}

// DeleteBlog deletes a blog with its comments. Allowed for the author and admins.
func (h *BlogHandler) DeleteBlog(c echo.Context) error {
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
	if blog.AuthorID != currentUserID && !isAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this blog")
	}

	if err := h.cleanup.RemoveBlog(ctx, blogID); err != nil {
		return repoError(err, "Blog")
	}
	h.log.Info().Str("blog_id", blogID).Uint("by", currentUserID).Msg("blog deleted")

	return c.NoContent(http.StatusNoContent)
}

// GetRelated returns the blogs most similar to :id
func (h *BlogHandler) GetRelated(c echo.Context) error {
	ctx := c.Request().Context()
	blogID := c.Param("id")
	blog, err := h.blogRepository.GetBlogByID(ctx, blogID)
	if err != nil {
		return repoError(err, "Blog")
	}
	if !canView(c, blog) {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	ranked, err := h.recommender.Related(ctx, blogID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, rankedBlogs(h.userRepository, ranked))
}
