package models

import "time"

// NotificationType enumerates what triggered a notification
type NotificationType string

const (
	NotificationLike       NotificationType = "like"
	NotificationComment    NotificationType = "comment"
	NotificationReply      NotificationType = "reply"
	NotificationFollow     NotificationType = "follow"
	NotificationBlogUpload NotificationType = "blog_upload"
)

// NotificationRetention is how long notifications are kept before the janitor removes them
const NotificationRetention = 30 * 24 * time.Hour

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Type        NotificationType `json:"type" gorm:"size:30;index"`
	ActorID     uint             `json:"actor_id" gorm:"index"`
	RecipientID uint             `json:"recipient_id" gorm:"index"`
	BlogID      string           `json:"blog_id,omitempty"` // deep link target
	Message     string           `json:"message"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}
