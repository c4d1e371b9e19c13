package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/lumina/backend/internal/cache"
	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/anonto42/lumina/backend/internal/thread"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	blogRepository    repositories.BlogRepository
	userRepository    repositories.UserRepository
	moderator         ContentModerator
	cooldowns         Cooldowns
	notifier          *Notifier
	log               zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	blogRepo repositories.BlogRepository,
	userRepo repositories.UserRepository,
	moderator ContentModerator,
	cooldowns Cooldowns,
	notifier *Notifier,
	log zerolog.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		blogRepository:    blogRepo,
		userRepository:    userRepo,
		moderator:         moderator,
		cooldowns:         cooldowns,
		notifier:          notifier,
		log:               log,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/blogs/:id/comments", h.CreateComment)
	g.GET("/blogs/:id/comments", h.GetComments)
	g.POST("/comments/:id/replies", h.CreateReply)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.POST("/comments/:id/pin", h.TogglePin)
	g.POST("/comments/:id/react", h.React)
}

// loadThread fetches every comment of the blog and returns them as a sorted reply tree
// with authors and reaction counts attached
func loadThread(ctx context.Context, comments repositories.CommentRepository, users repositories.UserRepository, blog *models.Blog) ([]*thread.Node, error) {
	list, err := comments.GetCommentsByBlogID(ctx, blog.ID.Hex())
	if err != nil {
		return nil, err
	}
	roots := thread.Build(list, blog.AuthorID)

	ids := make([]uint, 0, len(list))
	thread.Walk(roots, func(n *thread.Node) { ids = append(ids, n.AuthorID) })
	authors := compactUsers(users, ids)

	thread.Walk(roots, func(n *thread.Node) {
		if a, ok := authors[n.AuthorID]; ok {
			n.Author = &a
		}
		n.ReactionCounts = models.ReactionCounts(n.Reactions)
	})
	return roots, nil
}

func (h *CommentHandler) lastComment(ctx context.Context, userID uint) (time.Time, error) {
	last, err := h.commentRepository.GetLastCommentByAuthor(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	return last.CreatedAt, nil
}

func (h *CommentHandler) commentNode(comment *models.Comment) *thread.Node {
	node := &thread.Node{Comment: *comment, Children: []*thread.Node{}}
	if author, err := h.userRepository.GetUserByID(comment.AuthorID); err == nil {
		compact := author.ToCompact()
		node.Author = &compact
	}
	return node
}

// CreateComment adds a top-level comment to a blog
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Comment cannot be empty")
	}

	ctx := c.Request().Context()
	blog, err := h.blogRepository.GetBlogByID(ctx, c.Param("id"))
	if err != nil {
		return repoError(err, "Blog")
	}
	if !canView(c, blog) {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	release, err := acquireCooldown(c, h.cooldowns, cache.ScopeComment, cache.CommentCooldown, "commenting", h.lastComment)
	if err != nil {
		return err
	}
	if err := moderate(c, h.moderator, content); err != nil {
		release()
		return err
	}

	now := time.Now()
	comment := &models.Comment{
		BlogID:    blog.ID,
		AuthorID:  currentUserID,
		Content:   content,
		Reactions: map[string]models.Reaction{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		release()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	blogID := blog.ID.Hex()
	background(h.log, "increment_comments_count", func(ctx context.Context) error {
		return h.blogRepository.IncrementCommentsCount(ctx, blogID)
	})

	node := h.commentNode(comment)
	h.notifier.Notify(models.Notification{
		Type:        models.NotificationComment,
		ActorID:     currentUserID,
		RecipientID: blog.AuthorID,
		BlogID:      blogID,
		Message:     actorName(node.Author) + " commented on your blog",
	})

	return success(c, http.StatusCreated, node)
}

// CreateReply answers an existing comment one level deeper
func (h *CommentHandler) CreateReply(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Reply cannot be empty")
	}

	ctx := c.Request().Context()
	parent, err := h.commentRepository.GetCommentByID(ctx, c.Param("id"))
	if err != nil {
		return repoError(err, "Comment")
	}
	if parent.IsDeleted {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot reply to a deleted comment")
	}

	blogID := parent.BlogID.Hex()
	blog, err := h.blogRepository.GetBlogByID(ctx, blogID)
	if err != nil {
		return repoError(err, "Blog")
	}
	if !canView(c, blog) {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	if err := moderate(c, h.moderator, content); err != nil {
		return err
	}

	now := time.Now()
	parentID := parent.ID
	reply := &models.Comment{
		BlogID:    parent.BlogID,
		AuthorID:  currentUserID,
		Content:   content,
		ParentID:  &parentID,
		Depth:     parent.Depth + 1,
		Reactions: map[string]models.Reaction{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.commentRepository.CreateComment(ctx, reply); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	background(h.log, "increment_comments_count", func(ctx context.Context) error {
		return h.blogRepository.IncrementCommentsCount(ctx, blogID)
	})

	node := h.commentNode(reply)
	h.notifier.Notify(models.Notification{
		Type:        models.NotificationReply,
		ActorID:     currentUserID,
		RecipientID: parent.AuthorID,
		BlogID:      blogID,
		Message:     actorName(node.Author) + " replied to your comment",
	})

	return success(c, http.StatusCreated, node)
}

// GetComments returns the comment thread of a blog
func (h *CommentHandler) GetComments(c echo.Context) error {
	ctx := c.Request().Context()
	blog, err := h.blogRepository.GetBlogByID(ctx, c.Param("id"))
	if err != nil {
		return repoError(err, "Blog")
	}
	if !canView(c, blog) {
		return echo.NewHTTPError(http.StatusNotFound, "Blog not found")
	}

	roots, err := loadThread(ctx, h.commentRepository, h.userRepository, blog)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{"comments": roots, "total": thread.Count(roots)})
}

// DeleteComment removes a comment. A comment with replies is replaced by a tombstone so the thread stays intact.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ctx := c.Request().Context()
	commentID := c.Param("id")
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return repoError(err, "Comment")
	}

	blogID := comment.BlogID.Hex()
	blogOwner := false
	if blog, err := h.blogRepository.GetBlogByID(ctx, blogID); err == nil {
		blogOwner = blog.AuthorID == currentUserID
	}
	if comment.AuthorID != currentUserID && !blogOwner && !isAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	hasReplies, err := h.commentRepository.HasReplies(ctx, commentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if hasReplies {
		if err := h.commentRepository.SoftDeleteComment(ctx, commentID); err != nil {
			return repoError(err, "Comment")
		}
		return success(c, http.StatusOK, echo.Map{"deleted": true, "tombstone": true})
	}

	if err := h.commentRepository.DeleteComment(ctx, commentID); err != nil {
		return repoError(err, "Comment")
	}
	background(h.log, "decrement_comments_count", func(ctx context.Context) error {
		return h.blogRepository.DecrementCommentsCount(ctx, blogID)
	})

	return success(c, http.StatusOK, echo.Map{"deleted": true, "tombstone": false})
}

// TogglePin pins or unpins a comment. Only the blog author may pin and at most one comment per blog is pinned.
func (h *CommentHandler) TogglePin(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, c.Param("id"))
	if err != nil {
		return repoError(err, "Comment")
	}
	blog, err := h.blogRepository.GetBlogByID(ctx, comment.BlogID.Hex())
	if err != nil {
		return repoError(err, "Blog")
	}
	if blog.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the blog author can pin comments")
	}
	if comment.IsDeleted {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot pin a deleted comment")
	}

	pinned := !comment.IsPinned
	if err := h.commentRepository.SetPinned(ctx, comment, pinned); err != nil {
		return repoError(err, "Comment")
	}

	return success(c, http.StatusOK, echo.Map{"is_pinned": pinned})
}

// React sets the caller's emoji reaction. Sending the current reaction again removes it.
func (h *CommentHandler) React(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.ReactRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	reaction, err := models.ParseReaction(req.Emoji)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid reaction")
	}

	ctx := c.Request().Context()
	commentID := c.Param("id")
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return repoError(err, "Comment")
	}
	if comment.IsDeleted {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot react to a deleted comment")
	}

	var reactions map[string]models.Reaction
	userReaction := reaction
	if comment.Reactions[strconv.FormatUint(uint64(currentUserID), 10)] == reaction {
		reactions, err = h.commentRepository.RemoveReaction(ctx, commentID, currentUserID)
		userReaction = ""
	} else {
		reactions, err = h.commentRepository.SetReaction(ctx, commentID, currentUserID, reaction)
	}
	if err != nil {
		return repoError(err, "Comment")
	}

	return success(c, http.StatusOK, echo.Map{
		"reactionCounts": models.ReactionCounts(reactions),
		"userReaction":   userReaction,
	})
}
