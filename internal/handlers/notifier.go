package handlers

import (
	"context"
	"fmt"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Notifier creates notifications in the background so a failure never breaks the triggering request
type Notifier struct {
	notifications repositories.NotificationRepository
	follows       repositories.FollowRepository
	log           zerolog.Logger
}

func NewNotifier(notifRepo repositories.NotificationRepository, followRepo repositories.FollowRepository, log zerolog.Logger) *Notifier {
	return &Notifier{notifications: notifRepo, follows: followRepo, log: log}
}

// actorName is the display name used in notification messages
func actorName(author *models.UserCompact) string {
	if author == nil || author.FullName == "" {
		return "Someone"
	}
	return author.FullName
}

// Notify stores one notification. Notifying yourself is a no-op except for blog uploads.
func (n *Notifier) Notify(notification models.Notification) {
	if notification.ActorID == notification.RecipientID && notification.Type != models.NotificationBlogUpload {
		return
	}
	background(n.log, "notify", func(context.Context) error {
		return n.notifications.Create(&notification)
	})
}

// BlogPublished confirms the upload to the author and tells every follower about it
func (n *Notifier) BlogPublished(author *models.User, blog *models.Blog) {
	blogID := blog.ID.Hex()
	background(n.log, "notify_blog_published", func(ctx context.Context) error {
		g, _ := errgroup.WithContext(ctx)
		g.Go(func() error {
			return n.notifications.Create(&models.Notification{
				Type:        models.NotificationBlogUpload,
				ActorID:     author.ID,
				RecipientID: author.ID,
				BlogID:      blogID,
				Message:     fmt.Sprintf("Your blog %q was published", blog.Title),
			})
		})
		g.Go(func() error {
			followerIDs, err := n.follows.FollowerIDs(author.ID)
			if err != nil {
				return fmt.Errorf("follower ids: %w", err)
			}
			if len(followerIDs) == 0 {
				return nil
			}
			batch := make([]models.Notification, 0, len(followerIDs))
			for _, id := range followerIDs {
				batch = append(batch, models.Notification{
					Type:        models.NotificationBlogUpload,
					ActorID:     author.ID,
					RecipientID: id,
					BlogID:      blogID,
					Message:     fmt.Sprintf("%s published %q", author.FullName, blog.Title),
				})
			}
			return n.notifications.CreateBatch(batch)
		})
		return g.Wait()
	})
}
