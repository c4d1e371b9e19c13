package handlers

import (
	"context"
	"fmt"

	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/rs/zerolog"
)

// Cleanup removes blogs and accounts together with the rows that point at them
type Cleanup struct {
	blogs         repositories.BlogRepository
	comments      repositories.CommentRepository
	users         repositories.UserRepository
	likes         repositories.LikeRepository
	bookmarks     repositories.BookmarkRepository
	follows       repositories.FollowRepository
	notifications repositories.NotificationRepository
	history       repositories.ReadingHistoryRepository
	log           zerolog.Logger
}

func NewCleanup(
	blogRepo repositories.BlogRepository,
	commentRepo repositories.CommentRepository,
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	bookmarkRepo repositories.BookmarkRepository,
	followRepo repositories.FollowRepository,
	notifRepo repositories.NotificationRepository,
	historyRepo repositories.ReadingHistoryRepository,
	log zerolog.Logger,
) *Cleanup {
	return &Cleanup{
		blogs:         blogRepo,
		comments:      commentRepo,
		users:         userRepo,
		likes:         likeRepo,
		bookmarks:     bookmarkRepo,
		follows:       followRepo,
		notifications: notifRepo,
		history:       historyRepo,
		log:           log,
	}
}

// RemoveBlog deletes the blog and then its comments, likes, bookmarks and history entries
func (cl *Cleanup) RemoveBlog(ctx context.Context, blogID string) error {
	if err := cl.blogs.DeleteBlog(ctx, blogID); err != nil {
		return err
	}
	cl.removeBlogDependents(ctx, blogID)
	return nil
}

func (cl *Cleanup) removeBlogDependents(ctx context.Context, blogID string) {
	logger := cl.log.With().Str("blog_id", blogID).Logger()
	if n, err := cl.comments.DeleteCommentsByBlogID(ctx, blogID); err != nil {
		logger.Warn().Err(err).Msg("deleting blog comments")
	} else if n > 0 {
		logger.Debug().Int64("comments", n).Msg("deleted blog comments")
	}
	if err := cl.likes.DeleteByBlog(blogID); err != nil {
		logger.Warn().Err(err).Msg("deleting blog likes")
	}
	if err := cl.bookmarks.DeleteByBlog(blogID); err != nil {
		logger.Warn().Err(err).Msg("deleting blog bookmarks")
	}
	if err := cl.history.DeleteByBlogID(blogID); err != nil {
		logger.Warn().Err(err).Msg("deleting blog reading history")
	}
}

// RemoveUser deletes an account, its blogs and its social graph
func (cl *Cleanup) RemoveUser(ctx context.Context, userID uint) error {
	if _, err := cl.users.GetUserByID(userID); err != nil {
		return err
	}

	if err := cl.follows.RemoveUser(userID); err != nil {
		return fmt.Errorf("follow graph: %w", err)
	}
	if err := cl.users.DeleteUser(userID); err != nil {
		return err
	}

	logger := cl.log.With().Uint("user_id", userID).Logger()
	if err := cl.notifications.DeleteByUser(userID); err != nil {
		logger.Warn().Err(err).Msg("deleting notifications")
	}
	if err := cl.history.DeleteByUser(userID); err != nil {
		logger.Warn().Err(err).Msg("deleting reading history")
	}

	blogIDs, err := cl.blogs.DeleteBlogsByAuthor(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("deleting blogs")
	}
	for _, id := range blogIDs {
		cl.removeBlogDependents(ctx, id)
	}

	logger.Info().Int("blogs", len(blogIDs)).Msg("user removed")
	return nil
}
