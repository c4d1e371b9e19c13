package repositories

import (
	"fmt"

	"github.com/anonto42/lumina/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores the follow graph. The followers_count and following_count columns of
// users are kept in step with the edges inside the same transaction.
type FollowRepository interface {
	Follow(followerID, followingID uint) error
	Unfollow(followerID, followingID uint) error
	IsFollowing(followerID, followingID uint) (bool, error)
	ListFollowers(userID uint) ([]models.User, error)
	ListFollowing(userID uint) ([]models.User, error)
	FollowerIDs(userID uint) ([]uint, error)
	RemoveUser(userID uint) error
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func bumpCounter(tx *gorm.DB, userID uint, column string, delta int) error {
	q := tx.Model(&models.User{}).Where("id = ?", userID)
	if delta < 0 {
		q = q.Where(column+" >= ?", -delta)
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

// Follow adds the edge. It returns ErrConflict when the edge already exists.
func (r *PostgresFollowRepository) Follow(followerID, followingID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("follow %d->%d: %w", followerID, followingID, ErrConflict)
		}
		if err := bumpCounter(tx, followerID, "following_count", 1); err != nil {
			return err
		}
		return bumpCounter(tx, followingID, "followers_count", 1)
	})
}

// Unfollow removes the edge. It returns ErrNotFound when there was none.
func (r *PostgresFollowRepository) Unfollow(followerID, followingID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("follow %d->%d: %w", followerID, followingID, ErrNotFound)
		}
		if err := bumpCounter(tx, followerID, "following_count", -1); err != nil {
			return err
		}
		return bumpCounter(tx, followingID, "followers_count", -1)
	})
}

func (r *PostgresFollowRepository) IsFollowing(followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Limit(1).Count(&count).Error
	return count > 0, err
}

func (r *PostgresFollowRepository) listUsers(selectCol, whereCol string, userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id IN (?)",
		r.db.Model(&models.Follow{}).Select(selectCol).Where(whereCol+" = ?", userID),
	).Order("full_name").Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) ListFollowers(userID uint) ([]models.User, error) {
	return r.listUsers("follower_id", "following_id", userID)
}

func (r *PostgresFollowRepository) ListFollowing(userID uint) ([]models.User, error) {
	return r.listUsers("following_id", "follower_id", userID)
}

// FollowerIDs lists who follows the user, used to fan out blog_upload notifications
func (r *PostgresFollowRepository) FollowerIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).Where("following_id = ?", userID).Pluck("follower_id", &ids).Error
	return ids, err
}

// RemoveUser deletes every edge touching the user and gives back the counts it contributed
// to the other side of each edge
func (r *PostgresFollowRepository) RemoveUser(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		followers := tx.Model(&models.Follow{}).Select("follower_id").Where("following_id = ?", userID)
		if err := tx.Model(&models.User{}).Where("id IN (?) AND following_count > 0", followers).
			UpdateColumn("following_count", gorm.Expr("following_count - 1")).Error; err != nil {
			return err
		}
		following := tx.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID)
		if err := tx.Model(&models.User{}).Where("id IN (?) AND followers_count > 0", following).
			UpdateColumn("followers_count", gorm.Expr("followers_count - 1")).Error; err != nil {
			return err
		}
		return tx.Where("follower_id = ? OR following_id = ?", userID, userID).Delete(&models.Follow{}).Error
	})
}
