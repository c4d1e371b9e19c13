package repositories

import (
	"github.com/anonto42/lumina/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookmarkRepository stores the reading list of each user
type BookmarkRepository interface {
	Toggle(userID uint, blogID string) (ToggleResult, error)
	IsBookmarked(userID uint, blogID string) (bool, error)
	BlogIDs(userID uint) ([]string, error)
	DeleteByBlog(blogID string) error
}

// PostgresBookmarkRepository implements BookmarkRepository
type PostgresBookmarkRepository struct {
	db *gorm.DB
}

func NewPostgresBookmarkRepository(db *gorm.DB) *PostgresBookmarkRepository {
	return &PostgresBookmarkRepository{db: db}
}

// Toggle saves the blog, or unsaves it when it is already on the list
func (r *PostgresBookmarkRepository) Toggle(userID uint, blogID string) (ToggleResult, error) {
	result := ToggleUnchanged
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND blog_id = ?", userID, blogID).Delete(&models.Bookmark{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			result = ToggleRemoved
			return nil
		}
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Bookmark{UserID: userID, BlogID: blogID})
		if res.RowsAffected > 0 {
			result = ToggleAdded
		}
		return res.Error
	})
	return result, err
}

func (r *PostgresBookmarkRepository) IsBookmarked(userID uint, blogID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Bookmark{}).Where("user_id = ? AND blog_id = ?", userID, blogID).Limit(1).Count(&count).Error
	return count > 0, err
}

// BlogIDs lists the saved blogs of the user, most recently saved first
func (r *PostgresBookmarkRepository) BlogIDs(userID uint) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Bookmark{}).Where("user_id = ?", userID).
		Order("created_at DESC").Pluck("blog_id", &ids).Error
	return ids, err
}

func (r *PostgresBookmarkRepository) DeleteByBlog(blogID string) error {
	return r.db.Where("blog_id = ?", blogID).Delete(&models.Bookmark{}).Error
}
