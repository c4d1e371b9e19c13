package models

import "time"

// MaxReadingHistory caps how many recently viewed blogs are remembered per user
const MaxReadingHistory = 20

// ReadingHistory records that a user viewed a blog
type ReadingHistory struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   uint      `json:"user_id" gorm:"uniqueIndex:idx_history_user_blog;index"`
	BlogID   string    `json:"blog_id" gorm:"uniqueIndex:idx_history_user_blog"`
	ViewedAt time.Time `json:"viewed_at" gorm:"index"`
}

func (ReadingHistory) TableName() string {
	return "reading_history"
}
