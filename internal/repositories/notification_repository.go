package repositories

import (
	"fmt"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository stores the notification inbox of every user
type NotificationRepository interface {
	Create(notification *models.Notification) error
	CreateBatch(notifications []models.Notification) error
	ListForRecipient(recipientID uint, offset, limit int) ([]models.Notification, int64, error)
	ListSince(recipientID uint, since time.Time, limit int) ([]models.Notification, error)
	CountUnread(recipientID uint) (int64, error)
	MarkRead(recipientID, notificationID uint) (unread int64, err error)
	MarkAllRead(recipientID uint) (int64, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
	DeleteByUser(userID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) inbox(recipientID uint) *gorm.DB {
	return r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
}

func (r *postgresNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// CreateBatch inserts a follower fan-out in chunks of 100 rows
func (r *postgresNotificationRepository) CreateBatch(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.CreateInBatches(notifications, 100).Error
}

func (r *postgresNotificationRepository) ListForRecipient(recipientID uint, offset, limit int) ([]models.Notification, int64, error) {
	var total int64
	if err := r.inbox(recipientID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var notifications []models.Notification
	err := r.inbox(recipientID).Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).Find(&notifications).Error
	return notifications, total, err
}

// ListSince returns the newest notifications created at or after since
func (r *postgresNotificationRepository) ListSince(recipientID uint, since time.Time, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.inbox(recipientID).Where("created_at >= ?", since).
		Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) CountUnread(recipientID uint) (int64, error) {
	var count int64
	err := r.inbox(recipientID).Where("is_read = ?", false).Count(&count).Error
	return count, err
}

// MarkRead flags one notification of the recipient and returns what is left unread.
// A notification owned by someone else is reported as not found.
func (r *postgresNotificationRepository) MarkRead(recipientID, notificationID uint) (int64, error) {
	var unread int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Notification{}).
			Where("id = ? AND recipient_id = ?", notificationID, recipientID).
			Update("is_read", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
		}
		return tx.Model(&models.Notification{}).
			Where("recipient_id = ? AND is_read = ?", recipientID, false).
			Count(&unread).Error
	})
	return unread, err
}

// MarkAllRead flags the whole inbox and returns how many notifications changed
func (r *postgresNotificationRepository) MarkAllRead(recipientID uint) (int64, error) {
	res := r.inbox(recipientID).Where("is_read = ?", false).Update("is_read", true)
	return res.RowsAffected, res.Error
}

// DeleteOlderThan removes notifications created before the cutoff
func (r *postgresNotificationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", cutoff).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationRepository) DeleteByUser(userID uint) error {
	return r.db.Where("recipient_id = ? OR actor_id = ?", userID, userID).Delete(&models.Notification{}).Error
}
