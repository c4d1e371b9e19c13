package repositories

import (
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadingHistoryRepository keeps the recently viewed blogs of each user
type ReadingHistoryRepository interface {
	Record(userID uint, blogID string) error
	RecentBlogIDs(userID uint, limit int) ([]string, error)
	DeleteByBlogID(blogID string) error
	DeleteByUser(userID uint) error
}

type postgresReadingHistoryRepository struct {
	db *gorm.DB
}

func NewPostgresReadingHistoryRepository(db *gorm.DB) ReadingHistoryRepository {
	return &postgresReadingHistoryRepository{db: db}
}

// Record moves the blog to the top of the user's history and trims it to MaxReadingHistory entries
func (r *postgresReadingHistoryRepository) Record(userID uint, blogID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		entry := models.ReadingHistory{UserID: userID, BlogID: blogID, ViewedAt: time.Now()}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "blog_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
		}).Create(&entry).Error
		if err != nil {
			return err
		}

		keep := tx.Model(&models.ReadingHistory{}).Select("id").
			Where("user_id = ?", userID).
			Order("viewed_at DESC").
			Limit(models.MaxReadingHistory)
		return tx.Where("user_id = ? AND id NOT IN (?)", userID, keep).Delete(&models.ReadingHistory{}).Error
	})
}

// RecentBlogIDs returns the blog IDs the user viewed most recently, newest first
func (r *postgresReadingHistoryRepository) RecentBlogIDs(userID uint, limit int) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.ReadingHistory{}).
		Where("user_id = ?", userID).
		Order("viewed_at DESC").
		Limit(limit).
		Pluck("blog_id", &ids).Error
	return ids, err
}

func (r *postgresReadingHistoryRepository) DeleteByBlogID(blogID string) error {
	return r.db.Where("blog_id = ?", blogID).Delete(&models.ReadingHistory{}).Error
}

func (r *postgresReadingHistoryRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.ReadingHistory{}).Error
}
