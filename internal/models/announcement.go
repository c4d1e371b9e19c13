package models

import "time"

// Announcement is a site-wide banner managed by admins. Only one is active at a time.
type Announcement struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Message   string     `json:"message"`
	Type      string     `json:"type" gorm:"size:10;default:info"`
	IsActive  bool       `json:"is_active" gorm:"index"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil means it stays until replaced
	CreatedBy uint       `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// CreateAnnouncementRequest defines the request body for publishing an announcement.
// Duration is a number of hours or "always".
type CreateAnnouncementRequest struct {
	Message  string `json:"message" validate:"required,max=500"`
	Type     string `json:"type" validate:"omitempty,oneof=info warning danger success"`
	Duration string `json:"duration" validate:"required"`
}
