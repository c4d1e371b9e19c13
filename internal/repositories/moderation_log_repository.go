package repositories

import (
	"github.com/anonto42/lumina/backend/internal/models"
	"gorm.io/gorm"
)

// ModerationLogRepository stores moderation decisions for the admin console
type ModerationLogRepository interface {
	CreateLog(log *models.ModerationLog) error
	ListLogs(page, limit int) ([]models.ModerationLog, int64, error)
	CountByAction(action models.ModerationAction) (int64, error)
}

type postgresModerationLogRepository struct {
	db *gorm.DB
}

func NewPostgresModerationLogRepository(db *gorm.DB) ModerationLogRepository {
	return &postgresModerationLogRepository{db: db}
}

func (r *postgresModerationLogRepository) CreateLog(log *models.ModerationLog) error {
	return r.db.Create(log).Error
}

func (r *postgresModerationLogRepository) ListLogs(page, limit int) ([]models.ModerationLog, int64, error) {
	var logs []models.ModerationLog
	var total int64

	if err := r.db.Model(&models.ModerationLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&logs).Error
	return logs, total, err
}

func (r *postgresModerationLogRepository) CountByAction(action models.ModerationAction) (int64, error) {
	var count int64
	err := r.db.Model(&models.ModerationLog{}).Where("action = ?", action).Count(&count).Error
	return count, err
}
