package models

import "time"

// Bookmark is a blog a user saved to read later
type Bookmark struct {
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	BlogID    string    `json:"blog_id" gorm:"primaryKey;size:24;index"`
	CreatedAt time.Time `json:"created_at"`
}
