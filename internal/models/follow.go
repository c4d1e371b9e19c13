package models

import "time"

// Follow is a directed edge of the social graph: FollowerID reads FollowingID.
// The pair is the primary key, so an edge exists at most once.
type Follow struct {
	FollowerID  uint      `json:"follower_id" gorm:"primaryKey;autoIncrement:false"`
	FollowingID uint      `json:"following_id" gorm:"primaryKey;autoIncrement:false;index;check:chk_follows_not_self,follower_id <> following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
