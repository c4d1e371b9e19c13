package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"gorm.io/gorm"
)

// AnnouncementRepository manages the site-wide banner
type AnnouncementRepository interface {
	CreateAnnouncement(announcement *models.Announcement) error
	GetActive(now time.Time) (*models.Announcement, error)
	Deactivate(id uint) error
}

type postgresAnnouncementRepository struct {
	db *gorm.DB
}

func NewPostgresAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &postgresAnnouncementRepository{db: db}
}

// CreateAnnouncement publishes a new banner and retires every other one
func (r *postgresAnnouncementRepository) CreateAnnouncement(announcement *models.Announcement) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Announcement{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
			return err
		}
		announcement.IsActive = true
		return tx.Create(announcement).Error
	})
}

// GetActive returns the active, unexpired announcement or nil when there is none
func (r *postgresAnnouncementRepository) GetActive(now time.Time) (*models.Announcement, error) {
	var a models.Announcement
	err := r.db.Where("is_active = ? AND (expires_at IS NULL OR expires_at > ?)", true, now).
		Order("created_at DESC").
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *postgresAnnouncementRepository) Deactivate(id uint) error {
	res := r.db.Model(&models.Announcement{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("announcement %d: %w", id, ErrNotFound)
	}
	return nil
}
