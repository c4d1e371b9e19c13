package models

import "time"

// ModerationAction is the outcome recorded for a moderated piece of content
type ModerationAction string

const (
	ModerationBlocked ModerationAction = "BLOCKED"
	ModerationFlagged ModerationAction = "FLAGGED"
	ModerationAllowed ModerationAction = "ALLOWED"
)

// ModerationLog keeps an audit trail of rejected content
type ModerationLog struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	UserID       uint             `json:"user_id" gorm:"index"`
	Content      string           `json:"content"`
	Reason       string           `json:"reason"`
	FlaggedWords string           `json:"flagged_words,omitempty"`
	Stage        string           `json:"stage" gorm:"size:10"` // local or ai
	Action       ModerationAction `json:"action" gorm:"size:10;index"`
	IP           string           `json:"ip,omitempty" gorm:"size:64"`
	CreatedAt    time.Time        `json:"created_at" gorm:"index"`
}
