package repositories

import (
	"github.com/anonto42/lumina/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleResult tells the caller which row change a toggle made
type ToggleResult int

const (
	// ToggleUnchanged means a concurrent request inserted the same row first
	ToggleUnchanged ToggleResult = iota
	ToggleAdded
	ToggleRemoved
)

// Active reports whether the row exists once the toggle is done
func (r ToggleResult) Active() bool {
	return r != ToggleRemoved
}

// LikeRepository stores who liked which blog. The denormalized likes_count lives on the Mongo
// blog document and is adjusted by the caller, only for ToggleAdded and ToggleRemoved.
type LikeRepository interface {
	Toggle(blogID string, userID uint) (ToggleResult, error)
	HasLiked(blogID string, userID uint) (bool, error)
	CountByBlog(blogID string) (int64, error)
	DeleteByBlog(blogID string) error
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// Toggle removes the like when it exists and adds it otherwise.
// Two concurrent toggles by the same user resolve to one row at most.
func (r *PostgresLikeRepository) Toggle(blogID string, userID uint) (ToggleResult, error) {
	result := ToggleUnchanged
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("blog_id = ? AND user_id = ?", blogID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			result = ToggleRemoved
			return nil
		}
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Like{BlogID: blogID, UserID: userID})
		if res.RowsAffected > 0 {
			result = ToggleAdded
		}
		return res.Error
	})
	return result, err
}

func (r *PostgresLikeRepository) HasLiked(blogID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("blog_id = ? AND user_id = ?", blogID, userID).Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *PostgresLikeRepository) CountByBlog(blogID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("blog_id = ?", blogID).Count(&count).Error
	return count, err
}

// DeleteByBlog removes the likes of a deleted blog
func (r *PostgresLikeRepository) DeleteByBlog(blogID string) error {
	return r.db.Where("blog_id = ?", blogID).Delete(&models.Like{}).Error
}
