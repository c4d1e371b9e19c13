package models

import "time"

// Like records that a user liked a blog. Blogs live in MongoDB, so BlogID is the hex ObjectID.
type Like struct {
	BlogID    string    `json:"blog_id" gorm:"primaryKey;size:24"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`
}
